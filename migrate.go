package main

import (
	"annotations/config/database"

	"github.com/spf13/cobra"
)

var rollbackSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Connect(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		return database.RunMigrations(cmd.Context(), db)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back applied migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Connect(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		return database.RollbackMigrations(cmd.Context(), db, rollbackSteps)
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}

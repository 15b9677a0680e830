package main

import (
	"fmt"
	"os"

	"annotations/config"
	"annotations/pkg/logger"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "annotations",
	Short:         "Backend for notes attached to pages, apps and documents",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Running without a subcommand starts the server.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "optional YAML config file")
}

// loadConfig reads configuration and initializes the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogLevel)
	return cfg, nil
}

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

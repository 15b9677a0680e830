package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"annotations/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// RunMigrations applies pending schema migrations. Only pending migrations
// are executed, so it is safe to call on every start.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	m, err := newMigrator(ctx, db)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Log.Info("No migrations to apply (database up-to-date)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ := m.Version()
	logger.Log.Info("Applied migrations successfully", zap.Uint("version", version))
	return nil
}

// RollbackMigrations reverts the given number of migration steps.
func RollbackMigrations(ctx context.Context, db *sql.DB, steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", steps)
	}
	m, err := newMigrator(ctx, db)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	logger.Log.Info("Rolled back migrations", zap.Int("steps", steps))
	return nil
}

// newMigrator runs on a dedicated connection so that closing the migrator
// leaves the shared pool open.
func newMigrator(ctx context.Context, db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire migration connection: %w", err)
	}
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		if closeErr := driver.Close(); closeErr != nil {
			logger.Log.Warn("Failed to close migration database", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Log.Warn("Failed to close migration source", zap.Error(srcErr))
	}
	if dbErr != nil {
		logger.Log.Warn("Failed to close migration database", zap.Error(dbErr))
	}
}

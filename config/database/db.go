package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"annotations/config"
	"annotations/pkg/logger"

	_ "github.com/lib/pq"
)

// Pinger is the subset of *sql.DB used while waiting for the database.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns / 2)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := WaitForDB(ctx, db, cfg.Retries, cfg.RetryDelay); err != nil {
		db.Close()
		return nil, err
	}
	logger.Sugar.Info("Successfully connected to the database")
	return db, nil
}

// WaitForDB pings until the database answers, retrying a few times in case of
// temporary DNS or network blips.
func WaitForDB(ctx context.Context, db Pinger, retries int, delay time.Duration) error {
	if retries < 1 {
		retries = 1
	}
	var err error
	for i := 0; i < retries; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if i == retries-1 {
			break
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", delay, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("could not connect to database after %d attempts: %w", retries, err)
}

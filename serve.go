package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"annotations/config"
	"annotations/config/database"
	"annotations/internal/notes/repository"
	"annotations/internal/pagetitle"
	"annotations/middleware"
	"annotations/pkg/logger"
	"annotations/router"
	"annotations/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	handler := router.Setup(st, pagetitle.NewFetcher(cfg.TitleFetch), middleware.NewMetrics(), cfg.AllowedOrigins())
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Go Backend listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// openStore returns the configured store and a func that releases it.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Log.Warn("Using in-memory store; notes are lost on restart")
		return repository.NewMemoryRepository(), func() {}, nil
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := database.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	return repository.NewNotesRepository(db), func() {
		if err := db.Close(); err != nil {
			logger.Log.Warn("Failed to close database", zap.Error(err))
		}
	}, nil
}

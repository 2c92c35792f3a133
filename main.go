package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"cafe-order/config"
	"cafe-order/db"
	"cafe-order/logger"
	"cafe-order/store"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "cafe-order",
		Short:         "Café ordering backend: menu, orders and live status updates",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the process logger.
func bootstrap() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(log)
	return cfg, log, nil
}

// openStore returns the configured store and a func that releases it.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}
	pool, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	if cfg.Store.AutoMigrate {
		if err := applyMigrations(ctx, pool, log); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return store.NewPostgres(pool), pool.Close, nil
}

// Package cli carries the bootstrap steps shared by the budgetshop
// binaries: env loading, config validation, logging and store setup.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgetshop/internal/backend"
	"budgetshop/internal/config"
	"budgetshop/internal/log"
)

// Bootstrap loads .env, parses and validates configuration and builds
// the process logger. Validation failures are fatal: the errors are
// logged and the process exits.
func Bootstrap(component string) (*config.Config, *log.Logger) {
	// .env is a local development convenience, absence is fine.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: component,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenStore resolves the configured store backend or exits.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) *backend.Result {
	res, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", "backend", cfg.DBBackend, "error", err)
		os.Exit(1)
	}
	return res
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

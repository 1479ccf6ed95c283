// Package cli holds the process bootstrap shared by the fincal binaries and
// the subcommands of the fincal command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fincal/internal/backend"
	"fincal/internal/config"
	"fincal/internal/ledger"
	"fincal/internal/log"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Component = component
	if cfg != nil {
		lc.Level = log.ParseLevel(cfg.LogLevel)
		lc.Format = cfg.LogFormat
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env files for local development. Missing files are
// ignored.
func LoadEnvFile(files ...string) {
	config.LoadDotEnv(files...)
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// OpenStore creates the configured backend and loads the ledger from it.
// The returned cleanup releases the backend.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...ledger.Option) (*ledger.Store, backend.CleanupFunc, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]ledger.Option{ledger.WithKey(cfg.StorageKey), ledger.WithLogger(logger)}, opts...)
	store := ledger.New(res.Backend, opts...)
	status, err := store.Load(ctx)
	if err != nil {
		res.Cleanup()
		return nil, nil, fmt.Errorf("load ledger: %w", err)
	}
	logger.InfoContext(ctx, "ledger ready",
		log.FieldOperation, log.OpLoad,
		log.FieldBackend, string(bc.Type),
		"status", status.String(),
	)
	return store, res.Cleanup, nil
}

// GracefulShutdown returns a context that is cancelled on SIGINT or SIGTERM.
// A second signal exits the process immediately.
func GracefulShutdown(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)
			cancel()
		case <-ctx.Done():
			return
		}
		select {
		case sig := <-sigChan:
			logger.Warn("Second signal received, exiting", "signal", sig.String())
			os.Exit(1)
		case <-parent.Done():
		}
	}()
	return ctx, cancel
}

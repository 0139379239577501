// Package cli holds the start-up plumbing shared by the binaries and the
// buchctl command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"buchhaltung/internal/backend"
	"buchhaltung/internal/config"
	"buchhaltung/internal/log"
	"buchhaltung/internal/sheets"
	"buchhaltung/internal/sheets/google"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// SetupLogger installs the default logger for a binary from LOG_LEVEL and
// LOG_FORMAT.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	return log.Setup(log.ConfigFromEnv(cfg.LogLevel, cfg.LogFormat, component))
}

// OpenBackend opens the configured store and wires the services.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend.Backend, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	b, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	return b, nil
}

// OpenReportWriter returns the Google Sheets exporter, or nil when no
// spreadsheet is configured.
func OpenReportWriter(ctx context.Context, cfg *config.Config) (sheets.ReportWriter, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}
	return google.NewExporter(ctx, cfg.GoogleSpreadsheetID, google.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	})
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"buchhaltung/internal/amqp"
	"buchhaltung/internal/cli"
	"buchhaltung/internal/events"
	apphttp "buchhaltung/internal/http"
	"buchhaltung/internal/log"
)

func main() {
	cli.LoadEnvFile()

	bootstrap := log.New(log.DefaultConfig())
	cfg := cli.LoadAndValidateConfig(bootstrap.Logger)
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	b, err := cli.OpenBackend(context.Background(), cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "driver", cfg.DBDriver)
		os.Exit(1)
	}
	defer b.Close()

	// Postings made through the API are announced when a broker is configured.
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, "")
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		b.Ledger.Subscribe(events.NewOutbound(amqpClient))
		logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange)
	}

	srv := apphttp.NewServer(":"+cfg.Port, b, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(log.ComponentHTTP),
	})

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting buchhaltung server", "port", cfg.Port, "driver", cfg.DBDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

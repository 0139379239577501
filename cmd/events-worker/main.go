package main

import (
	"context"
	"errors"
	"os"
	"time"

	"buchhaltung/internal/amqp"
	"buchhaltung/internal/cli"
	"buchhaltung/internal/events"
	"buchhaltung/internal/log"
)

func main() {
	cli.LoadEnvFile()

	bootstrap := log.New(log.DefaultConfig())
	cfg := cli.LoadAndValidateConfig(bootstrap.Logger)
	logger := cli.SetupLogger(cfg, log.ComponentEvents)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the events worker")
		os.Exit(1)
	}
	keys := cfg.BindingKeys(events.InboundKeys())
	logger.Info("Starting events-worker", "queue", cfg.AMQPQueue, "routing_keys", keys)

	b, err := cli.OpenBackend(context.Background(), cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "driver", cfg.DBDriver)
		os.Exit(1)
	}
	defer b.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, keys...)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Bookings made from events are announced like API postings.
	b.Ledger.Subscribe(events.NewOutbound(amqpClient))
	inbound := events.NewInbound(b.Ledger, b.Assets)

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, nil)
	if err := amqpClient.ConsumeWithRetry(ctx, inbound.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Events worker stopped")
}

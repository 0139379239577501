package main

import (
	"context"
	"os"
	"time"

	"buchhaltung/internal/amqp"
	"buchhaltung/internal/cli"
	"buchhaltung/internal/depreciation"
	"buchhaltung/internal/events"
	"buchhaltung/internal/log"
)

func main() {
	cli.LoadEnvFile()

	bootstrap := log.New(log.DefaultConfig())
	cfg := cli.LoadAndValidateConfig(bootstrap.Logger)
	logger := cli.SetupLogger(cfg, log.ComponentDepreciation)

	logger.Info("Starting depreciation-worker",
		"interval", cfg.DepreciationInterval,
		"workers", cfg.DepreciationWorkers,
		"post_ledger", cfg.DepreciationPostLedger)

	b, err := cli.OpenBackend(context.Background(), cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "driver", cfg.DBDriver)
		os.Exit(1)
	}
	defer b.Close()

	var onRun func(context.Context, depreciation.RunSummary)
	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, "")
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		outbound := events.NewOutbound(amqpClient)
		b.Ledger.Subscribe(outbound)
		onRun = outbound.RunCompleted
	} else {
		logger.Info("AMQP disabled - depreciation runs are not announced")
	}

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, nil)
	depreciation.NewTicker(b.Engine, cfg.DepreciationInterval, onRun).Run(ctx)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Depreciation worker stopped")
}

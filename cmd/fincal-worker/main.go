package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"fincal/internal/amqp"
	"fincal/internal/cli"
	"fincal/internal/log"
	"fincal/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(nil, log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting fincal-worker", "backup_dir", cfg.BackupDir, "interval", cfg.BackupInterval.String())

	ctx, cancel := cli.GracefulShutdown(context.Background(), logger)
	defer cancel()

	store, cleanup, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer cleanup()

	backups := worker.NewBackupWorker(worker.FromStore(store), cfg.BackupDir, cfg.BackupKeep, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return backups.Run(gctx, cfg.BackupInterval) })

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		g.Go(func() error {
			err := client.ConsumeChanges(gctx, backups.HandleChange)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled - backups run on the interval only")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

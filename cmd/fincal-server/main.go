package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fincal/internal/amqp"
	"fincal/internal/cache"
	"fincal/internal/cli"
	apphttp "fincal/internal/http"
	"fincal/internal/log"
	"fincal/internal/report"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(nil, log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg, log.ComponentApp)

	ctx, cancel := cli.GracefulShutdown(context.Background(), logger)
	defer cancel()

	store, cleanup, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer cleanup()

	reportCache := cache.NewLRUCache[any](cfg.ReportCacheSize, cfg.ReportCacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(reportCache)
	caches.StartCleanup(cfg.ReportCacheTTL)
	defer caches.Stop()

	reports := report.NewService(store, report.WithCache(reportCache), report.WithLogger(logger))
	defer reports.Attach(store.Bus())()

	srv := apphttp.NewServer(":"+cfg.Port, store, reports,
		apphttp.WithLogger(logger),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
	)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		fwd := amqp.NewForwarder(client, logger, 0)
		defer fwd.Attach(store.Bus())()
		g.Go(func() error { return fwd.Run(gctx) })
		logger.Info("Change forwarding enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	g.Go(func() error {
		logger.Info("Starting fincal server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

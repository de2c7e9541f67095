package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"weekspend/internal/amqp"
	"weekspend/internal/backend"
	"weekspend/internal/cache"
	"weekspend/internal/cli"
	"weekspend/internal/config"
	"weekspend/internal/log"
	"weekspend/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration:", err)
		os.Exit(1)
	}
	logger, err := cli.SetupLogger(cfg, log.ComponentWorker)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	if err := checkConfig(cfg); err != nil {
		cli.Fatal(logger, "Worker cannot start", err)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		cli.Fatal(logger, "Worker failed", err)
	}
	logger.Info("Worker stopped")
}

// checkConfig rejects settings under which the worker could never see the
// server's expenses.
func checkConfig(cfg *config.Config) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required")
	}
	if bt := backend.BackendType(cfg.DataBackend); !bt.IsShared() {
		return fmt.Errorf("DATA_BACKEND %q is local to one process, use %s or %s", cfg.DataBackend, backend.SQLiteBackend, backend.PostgresBackend)
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	be, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if be.Cleanup != nil {
		defer func() {
			if err := be.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	defer caches.Stop()
	caches.StartCleanup(time.Minute)

	reports, err := cli.NewReportService(cfg, be.Store, caches)
	if err != nil {
		return err
	}
	digests := worker.NewDigestWorker(reports, reports.Engine().Formatter())

	// A digest on startup covers events missed while the worker was down.
	if err := digests.StartupDigest(ctx); err != nil {
		logger.Warn("Startup digest failed", log.FieldError, err)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect to AMQP: %w", err)
	}
	defer client.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeExpenseEvents(gctx, digests.HandleExpenseEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return g.Wait()
}

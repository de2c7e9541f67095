package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"weekspend/internal/amqp"
	"weekspend/internal/cache"
	"weekspend/internal/cli"
	"weekspend/internal/config"
	apphttp "weekspend/internal/http"
	"weekspend/internal/log"
	"weekspend/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration:", err)
		os.Exit(1)
	}
	logger, err := cli.SetupLogger(cfg, log.ComponentApp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		cli.Fatal(logger, "Server failed", err)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	be, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	defer caches.Stop()

	reports, err := cli.NewReportService(cfg, be.Store, caches)
	if err != nil {
		return err
	}

	// Events are optional: without a broker the server still works.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, expense events disabled", log.FieldError, err)
		} else {
			publisher = client
		}
	}

	// Closes the store and the AMQP client.
	expenses := services.NewExpenseService(be.Store, publisher)
	defer func() {
		if err := expenses.Close(); err != nil {
			logger.Error("Cleanup failed", log.FieldError, err)
		}
	}()

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Expenses:       expenses,
		Reports:        reports,
		Ping:           be.Ping,
		Logger:         logger,
		TrustedProxies: cfg.TrustedProxies,
		RateLimit:      cfg.RateLimit,
	})
	if err != nil {
		return err
	}

	caches.StartCleanup(time.Minute)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting weekspend server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"locale", cfg.Locale,
			"currency", cfg.Currency,
			"week_start", cfg.WeekStart)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

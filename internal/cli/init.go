// Package cli holds the startup steps shared by cmd/weekspend,
// cmd/weekspend-worker and cmd/weekspend-report.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"weekspend/internal/backend"
	"weekspend/internal/cache"
	"weekspend/internal/config"
	"weekspend/internal/log"
	"weekspend/internal/services"
	"weekspend/internal/store"
	"weekspend/internal/weekly"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads and validates the environment configuration.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger at the configured level and makes
// it the slog default.
func SetupLogger(cfg *config.Config, component string) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	c := log.DefaultConfig()
	c.Level = level
	c.Component = component
	logger := log.New(c)
	log.SetDefault(logger)
	return logger, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// OpenBackend creates the store selected by DATA_BACKEND.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bc)
}

// NewReportService builds the engine from cfg and a report service over
// reader. When caches is non-nil the report memo is registered with it.
func NewReportService(cfg *config.Config, reader store.ExpenseReader, caches *cache.Manager) (*services.ReportService, error) {
	engine, err := cfg.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("build weekly engine: %w", err)
	}

	var memo cache.Cache[weekly.Report]
	if caches != nil && cfg.ReportCacheSize > 0 {
		lru := cache.NewLRUCache[weekly.Report](cfg.ReportCacheSize, cfg.ReportCacheTTL)
		caches.Register("week_reports", lru)
		memo = lru
	}
	return services.NewReportService(reader, engine, weekly.SystemClock, memo), nil
}

// Fatal logs err and exits with status 1.
func Fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, log.FieldError, err)
	os.Exit(1)
}

package backend

import (
	"context"
	"path/filepath"
	"testing"

	"weekspend/internal/config"
	"weekspend/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "mongo"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "postgres", PostgresDSN: "postgres://x"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != PostgresBackend || cfg.PostgresDSN != "postgres://x" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestBackendTypeIsShared(t *testing.T) {
	for bt, want := range map[BackendType]bool{
		SQLiteBackend:   true,
		PostgresBackend: true,
		MemoryBackend:   false,
		"mongo":         false,
	} {
		if got := bt.IsShared(); got != want {
			t.Errorf("%s.IsShared() = %v, want %v", bt, got, want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without dsn", Config{Type: PostgresBackend}, true},
		{"unknown", Config{Type: "mongo"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: t.TempDir()})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		if res.Cleanup != nil || res.Ping != nil {
			t.Fatal("memory backend should have no lifecycle hooks")
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "w.db")})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		defer res.Cleanup()

		if err := res.Ping(ctx); err != nil {
			t.Fatalf("Ping: %v", err)
		}
		e, err := res.Store.AddExpense(ctx, core.Expense{Date: core.NewDate(2024, 5, 14), Amount: core.MustAmount("1"), Category: core.Food})
		if err != nil || e.ID == "" {
			t.Fatalf("AddExpense: %+v %v", e, err)
		}
	})
}

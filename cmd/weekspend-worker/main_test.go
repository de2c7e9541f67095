package main

import (
	"strings"
	"testing"

	"weekspend/internal/config"
)

func TestCheckConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"default memory backend", map[string]string{"AMQP_URL": "amqp://localhost"}, "DATA_BACKEND"},
		{"explicit memory backend", map[string]string{"AMQP_URL": "amqp://localhost", "DATA_BACKEND": "memory"}, "DATA_BACKEND"},
		{"no broker", map[string]string{"DATA_BACKEND": "sqlite"}, "AMQP_URL"},
		{"sqlite", map[string]string{"AMQP_URL": "amqp://localhost", "DATA_BACKEND": "sqlite"}, ""},
		{"postgres", map[string]string{"AMQP_URL": "amqp://localhost", "DATA_BACKEND": "postgres", "POSTGRES_DSN": "postgres://localhost/weekspend"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadFrom(tt.env)
			if err != nil {
				t.Fatalf("LoadFrom: %v", err)
			}
			err = checkConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

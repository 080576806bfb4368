package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Redis.URL != "" {
		t.Errorf("expected Redis disabled by default, got %q", cfg.Redis.URL)
	}
	if cfg.Recurring.BatchSize != 100 {
		t.Errorf("expected recurring batch size 100, got %d", cfg.Recurring.BatchSize)
	}
	if cfg.Gate.Capacity <= 0 || cfg.Gate.Interval <= 0 {
		t.Errorf("expected a positive gate budget, got %d per %s", cfg.Gate.Capacity, cfg.Gate.Interval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("GATE_INTERVAL", "1m")
	t.Setenv("RECURRING_WORKER_ENABLED", "false")
	t.Setenv("ENV", "test")

	cfg := Load()

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Gate.Interval != time.Minute {
		t.Errorf("expected gate interval 1m, got %s", cfg.Gate.Interval)
	}
	if cfg.Recurring.WorkerEnabled {
		t.Error("expected recurring worker disabled")
	}
	if !cfg.IsTest() {
		t.Error("expected test environment")
	}
}

func TestMalformedValuesFallBack(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(*Config) bool
	}{
		{"int", "SERVER_PORT", "eighty", func(c *Config) bool { return c.Server.Port == 8080 }},
		{"bool", "EMAIL_WORKER_ENABLED", "maybe", func(c *Config) bool { return c.Email.WorkerEnabled }},
		{"duration", "VIEW_CACHE_TTL", "5", func(c *Config) bool { return c.Cache.TTL == 5*time.Minute }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if !tt.check(Load()) {
				t.Errorf("%s=%q should fall back to the default", tt.key, tt.value)
			}
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeTempConfig(t, `
mode = "monitor"
log_level = "debug"

[monitor]
markets = ["will-it-rain-tomorrow"]
poll_interval = "30s"

[analyze]
max_slippage_cents = 3.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != "monitor" || cfg.LogLevel != "debug" {
		t.Errorf("top-level fields not applied: %q %q", cfg.Mode, cfg.LogLevel)
	}
	if cfg.Monitor.PollInterval.Duration != 30*time.Second {
		t.Errorf("poll interval: want 30s, got %v", cfg.Monitor.PollInterval.Duration)
	}
	if cfg.Analyze.MaxSlippageCents != 3.5 {
		t.Errorf("max slippage: want 3.5, got %v", cfg.Analyze.MaxSlippageCents)
	}
	// Untouched sections keep their defaults.
	if cfg.Polymarket.ClobHost != Defaults().Polymarket.ClobHost {
		t.Errorf("clob host default lost: %q", cfg.Polymarket.ClobHost)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("merged config should validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, "")
	t.Setenv("LIQLENS_POSTGRES_PASSWORD", "hunter2")
	t.Setenv("LIQLENS_MONITOR_MARKETS", "a, b ,c")
	t.Setenv("LIQLENS_MONITOR_POLL_INTERVAL", "2m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Postgres.Password != "hunter2" {
		t.Errorf("password override not applied")
	}
	if len(cfg.Monitor.Markets) != 3 || cfg.Monitor.Markets[1] != "b" {
		t.Errorf("markets override: got %v", cfg.Monitor.Markets)
	}
	if cfg.Monitor.PollInterval.Duration != 2*time.Minute {
		t.Errorf("poll interval override: got %v", cfg.Monitor.PollInterval.Duration)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.Analyze.DepthRadiusCents = 0
	cfg.Analyze.SpreadWeight = 0.9 // weights no longer sum to 1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("want validation error")
	}
	for _, fragment := range []string{"mode", "depth_radius_cents", "weights"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error should mention %q: %v", fragment, err)
		}
	}
}

func TestValidateArchiveIntervalWhenArchivalEnabled(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "record"
	cfg.Record.ArchiveRetentionDays = 30
	cfg.Record.ArchiveInterval.Duration = 0

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "archive_interval") {
		t.Fatalf("want archive_interval validation error, got %v", err)
	}

	// Disabling retention makes the zero interval irrelevant.
	cfg.Record.ArchiveRetentionDays = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected err with archival disabled: %v", err)
	}
}

func TestValidateMonitorNeedsMarkets(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "monitor"
	if err := cfg.Validate(); err == nil {
		t.Fatal("monitor mode without markets should fail validation")
	}
	cfg.Monitor.Markets = []string{"some-market"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

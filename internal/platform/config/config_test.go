package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"studywarden/internal/platform/config"
)

func TestFromEnvAndNormalize(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STUDYWARDEN_DATA_DIR", dir)
	t.Setenv("STUDYWARDEN_TICK_INTERVAL", "250ms")

	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	cfg, err = cfg.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Fatalf("expected 250ms tick, got %s", cfg.TickInterval)
	}
	if cfg.DBPath != filepath.Join(dir, "studywarden.db") {
		t.Fatalf("unexpected db path %s", cfg.DBPath)
	}
	if cfg.PolicyPath != filepath.Join(dir, "policy.yaml") {
		t.Fatalf("unexpected policy path %s", cfg.PolicyPath)
	}
	if cfg.ListenAddr != "127.0.0.1:7465" {
		t.Fatalf("unexpected default listen addr %s", cfg.ListenAddr)
	}
}

func TestNormalizeRejectsMissingValues(t *testing.T) {
	t.Parallel()
	if _, err := (config.Config{ListenAddr: "x", TickInterval: time.Second}).Normalize(); err == nil {
		t.Fatalf("expected missing data dir to be rejected")
	}
	if _, err := (config.Config{DataDir: "d", ListenAddr: "x"}).Normalize(); err == nil {
		t.Fatalf("expected zero tick interval to be rejected")
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPolicyCheckPrintsEffectivePolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("default_tier: standard\nallowed_hours:\n  start: \"06:30\"\n  end: \"20:00\"\n"), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"policy", "check", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"policy ok", "allowed hours: 06:30-20:00", "tier standard (default)", "cap stretch: 3/day"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestPolicyCheckRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("tiers:\n  free:\n    cadence_seconds: -1\n"), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"policy", "check", path})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected invalid policy to fail")
	}
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STUDYWARDEN_DATA_DIR", filepath.Join(dir, "env"))
	t.Setenv("STUDYWARDEN_TICK_INTERVAL", "2s")

	opts := &options{}
	root := newRootCmd()
	if err := root.ParseFlags([]string{"--data-dir", filepath.Join(dir, "flag"), "--tick", "500ms"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	opts.dataDir, _ = root.PersistentFlags().GetString("data-dir")
	opts.tick, _ = root.PersistentFlags().GetDuration("tick")

	cfg, err := loadConfig(root, opts)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DataDir != filepath.Join(dir, "flag") {
		t.Fatalf("expected flag data dir, got %s", cfg.DataDir)
	}
	if cfg.TickInterval != 500*time.Millisecond {
		t.Fatalf("expected flag tick 500ms, got %s", cfg.TickInterval)
	}
	if cfg.DBPath != filepath.Join(dir, "flag", "studywarden.db") {
		t.Fatalf("expected db under flag data dir, got %s", cfg.DBPath)
	}
}

func TestClientCommandsRequireGuardian(t *testing.T) {
	t.Setenv("STUDYWARDEN_GUARDIAN", "")
	t.Setenv("STUDYWARDEN_DATA_DIR", t.TempDir())
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"budget", "show", "--profile", "p-1"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "--guardian") {
		t.Fatalf("expected guardian error, got %v", err)
	}
}

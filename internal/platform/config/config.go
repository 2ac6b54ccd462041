package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration. Environment variables fill it first;
// CLI flags override individual fields afterwards.
type Config struct {
	DataDir      string        `env:"STUDYWARDEN_DATA_DIR" envDefault:".studywarden"`
	DBPath       string        `env:"STUDYWARDEN_DB_PATH"`
	ListenAddr   string        `env:"STUDYWARDEN_LISTEN_ADDR" envDefault:"127.0.0.1:7465"`
	PolicyPath   string        `env:"STUDYWARDEN_POLICY_PATH"`
	AnalyzerPath string        `env:"STUDYWARDEN_ANALYZER_PATH"`
	AnalyzerSum  string        `env:"STUDYWARDEN_ANALYZER_SHA256"`
	LogLevel     string        `env:"STUDYWARDEN_LOG_LEVEL" envDefault:"info"`
	TickInterval time.Duration `env:"STUDYWARDEN_TICK_INTERVAL" envDefault:"1s"`
}

// FromEnv parses the environment into a Config.
func FromEnv() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Normalize validates cfg and derives paths that were left empty.
func (c Config) Normalize() (Config, error) {
	if c.DataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "studywarden.db")
	}
	if c.PolicyPath == "" {
		c.PolicyPath = filepath.Join(c.DataDir, "policy.yaml")
	}
	if c.ListenAddr == "" {
		return Config{}, fmt.Errorf("listen address is required")
	}
	if c.TickInterval <= 0 {
		return Config{}, fmt.Errorf("tick interval must be positive")
	}
	return c, nil
}

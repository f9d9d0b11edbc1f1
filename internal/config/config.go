// Package config loads sessionwatch configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/sessionwatch/internal/daemon"
)

// SessionConfig holds session lifecycle tuning.
type SessionConfig struct {
	InactivityTimeout time.Duration `yaml:"inactivity_timeout" env:"SESSIONWATCH_SESSION_INACTIVITY_TIMEOUT"`
	MaxDuration       time.Duration `yaml:"max_duration" env:"SESSIONWATCH_SESSION_MAX_DURATION"`
	SampleRate        float64       `yaml:"sample_rate" env:"SESSIONWATCH_SESSION_SAMPLE_RATE"`
}

// BatchConfig holds batch sink tuning.
type BatchConfig struct {
	Dir        string        `yaml:"dir" env:"SESSIONWATCH_BATCH_DIR"`
	MaxRecords int           `yaml:"max_records" env:"SESSIONWATCH_BATCH_MAX_RECORDS"`
	MaxAge     time.Duration `yaml:"max_age" env:"SESSIONWATCH_BATCH_MAX_AGE"`
}

// DaemonConfig holds ingest daemon tuning.
type DaemonConfig struct {
	Inbox        string        `yaml:"inbox" env:"SESSIONWATCH_INBOX"`
	Archive      string        `yaml:"archive" env:"SESSIONWATCH_ARCHIVE"`
	Failed       string        `yaml:"failed" env:"SESSIONWATCH_FAILED"`
	PollMode     bool          `yaml:"poll_mode" env:"SESSIONWATCH_POLL_MODE"`
	PollInterval time.Duration `yaml:"poll_interval" env:"SESSIONWATCH_POLL_INTERVAL"`
}

// LiveConfig holds the live stream listener settings.
type LiveConfig struct {
	Enabled bool   `yaml:"enabled" env:"SESSIONWATCH_LIVE_ENABLED"`
	Addr    string `yaml:"addr" env:"SESSIONWATCH_LIVE_ADDR"`
}

// Config holds all configurable sessionwatch parameters.
type Config struct {
	ApplicationID     string        `yaml:"application_id" env:"SESSIONWATCH_APPLICATION_ID"`
	KeepAliveInterval time.Duration `yaml:"keep_alive_interval" env:"SESSIONWATCH_KEEP_ALIVE_INTERVAL"`
	QueueSize         int           `yaml:"queue_size" env:"SESSIONWATCH_QUEUE_SIZE"`
	StorePath         string        `yaml:"store_path" env:"SESSIONWATCH_STORE_PATH"`

	Session SessionConfig `yaml:"session"`
	Batch   BatchConfig   `yaml:"batch"`
	Daemon  DaemonConfig  `yaml:"daemon"`
	Live    LiveConfig    `yaml:"live"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	dirs := daemon.DefaultDirConfig()
	base := filepath.Dir(dirs.Inbox)
	return &Config{
		ApplicationID:     "default",
		KeepAliveInterval: 5 * time.Minute,
		QueueSize:         256,
		StorePath:         filepath.Join(base, "records.db"),
		Session: SessionConfig{
			InactivityTimeout: 15 * time.Minute,
			MaxDuration:       4 * time.Hour,
			SampleRate:        100,
		},
		Batch: BatchConfig{
			Dir:        filepath.Join(base, "batches"),
			MaxRecords: 500,
			MaxAge:     30 * time.Second,
		},
		Daemon: DaemonConfig{
			Inbox:        dirs.Inbox,
			Archive:      dirs.Archive,
			Failed:       dirs.Failed,
			PollInterval: 5 * time.Second,
		},
		Live: LiveConfig{
			Addr: "127.0.0.1:8787",
		},
	}
}

// Load loads configuration from a YAML file, then applies environment
// variable overrides. Empty path falls back to
// ~/.sessionwatch/config.yaml. Missing file returns defaults. Invalid
// YAML returns an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return applyEnv(cfg)
		}
		path = filepath.Join(home, ".sessionwatch", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(cfg)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return applyEnv(cfg)
}

func applyEnv(cfg *Config) (*Config, error) {
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}
	return cfg, nil
}

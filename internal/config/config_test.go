package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ApplicationID != "default" {
		t.Errorf("expected default application id, got %q", cfg.ApplicationID)
	}
	if cfg.KeepAliveInterval != 5*time.Minute {
		t.Errorf("expected 5m keep-alive, got %v", cfg.KeepAliveInterval)
	}
	if cfg.QueueSize != 256 {
		t.Errorf("expected queue size 256, got %d", cfg.QueueSize)
	}
	if cfg.Session.InactivityTimeout != 15*time.Minute {
		t.Errorf("expected 15m inactivity timeout, got %v", cfg.Session.InactivityTimeout)
	}
	if cfg.Session.SampleRate != 100 {
		t.Errorf("expected sample rate 100, got %v", cfg.Session.SampleRate)
	}
	if cfg.Batch.MaxRecords != 500 {
		t.Errorf("expected 500 batch records, got %d", cfg.Batch.MaxRecords)
	}
	if cfg.Daemon.Inbox == "" || cfg.Daemon.Archive == "" || cfg.Daemon.Failed == "" {
		t.Error("expected daemon directories to default")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.ApplicationID != "default" {
		t.Errorf("expected defaults, got %q", cfg.ApplicationID)
	}
}

func TestLoadPartialYAMLKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("application_id: web-shop\nsession:\n  sample_rate: 25\n")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ApplicationID != "web-shop" {
		t.Errorf("expected web-shop, got %q", cfg.ApplicationID)
	}
	if cfg.Session.SampleRate != 25 {
		t.Errorf("expected sample rate 25, got %v", cfg.Session.SampleRate)
	}
	// Unspecified fields keep their defaults.
	if cfg.QueueSize != 256 {
		t.Errorf("expected default queue size, got %d", cfg.QueueSize)
	}
}

func TestLoadInvalidYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("application_id: [unclosed"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestEnvOverridesWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("application_id: from-yaml\nqueue_size: 64\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SESSIONWATCH_APPLICATION_ID", "from-env")
	t.Setenv("SESSIONWATCH_KEEP_ALIVE_INTERVAL", "90s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ApplicationID != "from-env" {
		t.Errorf("env must override yaml, got %q", cfg.ApplicationID)
	}
	if cfg.KeepAliveInterval != 90*time.Second {
		t.Errorf("expected 90s keep-alive from env, got %v", cfg.KeepAliveInterval)
	}
	if cfg.QueueSize != 64 {
		t.Errorf("yaml value must survive when no env override, got %d", cfg.QueueSize)
	}
}

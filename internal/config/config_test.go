package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EASYLAW_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8000" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "api_base_url: https://api.easylaw.example\nupload_max_mb: 5\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EASYLAW_CONFIG", path)
	t.Setenv("EASYLAW_LOG_LEVEL", "error")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "https://api.easylaw.example" {
		t.Fatalf("APIBaseURL = %q, want file value", cfg.APIBaseURL)
	}
	if cfg.UploadMaxMB != 5 {
		t.Fatalf("UploadMaxMB = %d, want file value", cfg.UploadMaxMB)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("LogLevel = %q, env must win over file", cfg.LogLevel)
	}
	if got := cfg.UploadMaxBytes(); got != 5<<20 {
		t.Fatalf("UploadMaxBytes() = %d", got)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_base_url: [broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EASYLAW_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted a malformed config file")
	}
}

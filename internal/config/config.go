package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIBaseURL     string        `yaml:"api_base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	CacheTTL     time.Duration `yaml:"cache_ttl"`
	PollInterval time.Duration `yaml:"poll_interval"`

	CredentialsPath string `yaml:"credentials_path"`
	UploadMaxMB     int    `yaml:"upload_max_mb"`

	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Load resolves configuration in three layers: defaults, then the
// optional config file (EASYLAW_CONFIG or ~/.easylaw/config.yaml), then
// environment variables. Later layers win.
func Load() (Config, error) {
	cfg := defaults()

	path := os.Getenv("EASYLAW_CONFIG")
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".easylaw", "config.yaml")
		}
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		APIBaseURL:      "http://localhost:8000",
		RequestTimeout:  15 * time.Second,
		CacheTTL:        30 * time.Second,
		PollInterval:    2 * time.Second,
		CredentialsPath: filepath.Join(home, ".easylaw", "session.json"),
		UploadMaxMB:     20,
		LogLevel:        "warn",
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.APIBaseURL = mustEnv("EASYLAW_API_URL", cfg.APIBaseURL)
	cfg.RequestTimeout = mustEnvDuration("EASYLAW_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.CacheTTL = mustEnvDuration("EASYLAW_CACHE_TTL", cfg.CacheTTL)
	cfg.PollInterval = mustEnvDuration("EASYLAW_POLL_INTERVAL", cfg.PollInterval)
	cfg.CredentialsPath = mustEnv("EASYLAW_CREDENTIALS_PATH", cfg.CredentialsPath)
	cfg.UploadMaxMB = mustEnvInt("EASYLAW_UPLOAD_MAX_MB", cfg.UploadMaxMB)
	cfg.LogLevel = mustEnv("EASYLAW_LOG_LEVEL", cfg.LogLevel)
	cfg.MetricsAddr = mustEnv("EASYLAW_METRICS_ADDR", cfg.MetricsAddr)
}

// UploadMaxBytes converts the configured megabyte limit.
func (c Config) UploadMaxBytes() int64 {
	return int64(c.UploadMaxMB) << 20
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

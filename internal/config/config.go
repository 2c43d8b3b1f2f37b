// Package config loads and validates the worker's TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	App    AppConfig    `toml:"app"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port           int             `toml:"port"`
	ReadTimeout    string          `toml:"read_timeout"`
	WriteTimeout   string          `toml:"write_timeout"`
	RequestTimeout string          `toml:"request_timeout"`
	RateLimit      RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig bounds the rate of POST /api/v1/asi requests the server
// accepts; one token bucket is shared by all clients.
type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// StoreConfig contains bigram store settings.
type StoreConfig struct {
	Path        string   `toml:"path"`         // SQLite DSN, or ":memory:"
	SeedPath    string   `toml:"seed_path"`    // optional JSON seed artifact
	AutoMigrate bool     `toml:"auto_migrate"` // run migrations on Open
	WatchSeed   bool     `toml:"watch_seed"`   // hot-reload seed file via fsnotify
	Formats     []string `toml:"formats"`      // recognized format universe
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    "15s",
			WriteTimeout:   "60s",
			RequestTimeout: "10s",
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 10,
				Burst:             20,
			},
		},
		Store: StoreConfig{
			Path:        "asi.db",
			SeedPath:    "",
			AutoMigrate: true,
			WatchSeed:   false,
			Formats:     []string{"standard", "modern", "pioneer", "legacy", "vintage", "pauper"},
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".asi-worker")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from disk. Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &config, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Server.ReadTimeout); err != nil {
		return fmt.Errorf("invalid read timeout %q: %w", c.Server.ReadTimeout, err)
	}
	if _, err := time.ParseDuration(c.Server.WriteTimeout); err != nil {
		return fmt.Errorf("invalid write timeout %q: %w", c.Server.WriteTimeout, err)
	}
	if _, err := time.ParseDuration(c.Server.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request timeout %q: %w", c.Server.RequestTimeout, err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate limit requests per second must be positive: %v", c.Server.RateLimit.RequestsPerSecond)
	}
	if c.Server.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit burst must be positive: %d", c.Server.RateLimit.Burst)
	}
	if len(c.Store.Formats) == 0 {
		return fmt.Errorf("at least one format must be configured")
	}
	return nil
}

// IsValidFormat reports whether f is a recognized format for this store.
func (c *Config) IsValidFormat(f string) bool {
	for _, known := range c.Store.Formats {
		if known == f {
			return true
		}
	}
	return false
}

// GetReadTimeout returns the HTTP server read timeout as a duration.
func (c *Config) GetReadTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.ReadTimeout)
}

// GetWriteTimeout returns the HTTP server write timeout as a duration.
func (c *Config) GetWriteTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.WriteTimeout)
}

// GetRequestTimeout returns the per-request timeout as a duration.
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.RequestTimeout)
}

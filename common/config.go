// Package common provides shared utilities for tsetmc-go
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for tsetmc-go
type Config struct {
	Client  ClientConfig  `toml:"client"`
	Cache   CacheConfig   `toml:"cache"`
	Logging LoggingConfig `toml:"logging"`
}

// ClientConfig holds HTTP client configuration for the TSETMC endpoints.
type ClientConfig struct {
	BaseURL       string `toml:"base_url"`        // www.tsetmc.com
	LegacyBaseURL string `toml:"legacy_base_url"` // old.tsetmc.com
	CDNBaseURL    string `toml:"cdn_base_url"`    // cdn.tsetmc.com
	IFBBaseURL    string `toml:"ifb_base_url"`    // www.ifb.ir (payeh boards)
	UserAgent     string `toml:"user_agent"`
	RateLimit     int    `toml:"rate_limit"` // requests per second
	MaxRetries    int    `toml:"max_retries"`
	Timeout       string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ClientConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// CacheConfig holds the local market-data cache configuration.
type CacheConfig struct {
	Path    string `toml:"path"`
	Enabled bool   `toml:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			BaseURL:       "http://www.tsetmc.com",
			LegacyBaseURL: "http://old.tsetmc.com",
			CDNBaseURL:    "http://cdn.tsetmc.com",
			IFBBaseURL:    "https://www.ifb.ir",
			RateLimit:     10,
			MaxRetries:    3,
			Timeout:       "30s",
		},
		Cache: CacheConfig{
			Path:    "data/market",
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("TSETMC_BASE_URL"); v != "" {
		config.Client.BaseURL = v
	}
	if v := os.Getenv("TSETMC_LEGACY_BASE_URL"); v != "" {
		config.Client.LegacyBaseURL = v
	}
	if v := os.Getenv("TSETMC_CDN_BASE_URL"); v != "" {
		config.Client.CDNBaseURL = v
	}
	if v := os.Getenv("TSETMC_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Client.RateLimit = n
		}
	}
	if v := os.Getenv("TSETMC_TIMEOUT"); v != "" {
		config.Client.Timeout = v
	}
	if v := os.Getenv("TSETMC_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("TSETMC_DATA_PATH"); v != "" {
		config.Cache.Path = v
	}
}

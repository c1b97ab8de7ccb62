package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Bridge    BridgeConfig
	Cache     CacheConfig
	Tray      TrayConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds the local API server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// BridgeConfig holds host-process bridge configuration.
// Offline swaps the HTTP bridge for the in-memory host, optionally seeded
// from a JSON/YAML/TOML document.
type BridgeConfig struct {
	Address string        `envconfig:"BRIDGE_ADDR" default:"http://127.0.0.1:1420"`
	Timeout time.Duration `envconfig:"BRIDGE_TIMEOUT" default:"10s"`
	Offline bool          `envconfig:"BRIDGE_OFFLINE" default:"false"`
	Seed    string        `envconfig:"BRIDGE_SEED"`
}

// CacheConfig holds query cache windows for browsers and settings.
type CacheConfig struct {
	StaleTime     time.Duration `envconfig:"CACHE_STALE_TIME" default:"5m"`
	GCTime        time.Duration `envconfig:"CACHE_GC_TIME" default:"10m"`
	Retry         int           `envconfig:"CACHE_RETRY" default:"2"`
	RetryDelay    time.Duration `envconfig:"CACHE_RETRY_DELAY" default:"1s"`
	SweepInterval time.Duration `envconfig:"CACHE_SWEEP_INTERVAL" default:"1m"`
}

// TrayConfig holds tray menu configuration.
type TrayConfig struct {
	Enabled bool `envconfig:"TRAY_ENABLED" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "127.0.0.1",
		},
		Bridge: BridgeConfig{
			Address: "http://127.0.0.1:1420",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			StaleTime:     5 * time.Minute,
			GCTime:        10 * time.Minute,
			Retry:         2,
			RetryDelay:    time.Second,
			SweepInterval: time.Minute,
		},
		Tray: TrayConfig{
			Enabled: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

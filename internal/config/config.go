// Package config loads gemsync configuration from a TOML file with
// environment variable overrides for credentials.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "gemsync.toml"

// Database configures the warranty database connection.
type Database struct {
	DSN string `toml:"dsn"`
}

// Shopify configures the remote catalog platform.
type Shopify struct {
	ShopDomain     string `toml:"shop_domain"`
	AccessToken    string `toml:"access_token"`
	APIVersion     string `toml:"api_version"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Processing configures the sync orchestrator.
type Processing struct {
	Workers            int     `toml:"workers"`
	MaxRetries         int     `toml:"max_retries"`
	RetryDelayMS       int     `toml:"retry_delay_ms"`
	RateLimitPerSecond float64 `toml:"rate_limit_per_second"`
	RateLimitBurst     int     `toml:"rate_limit_burst"`
	BatchThreshold     int     `toml:"batch_threshold"`
	BulkPollIntervalMS int     `toml:"bulk_poll_interval_ms"`
	BulkTimeoutMinutes int     `toml:"bulk_timeout_minutes"`
}

// Logging configures the structured logger.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full gemsync configuration.
type Config struct {
	Database   Database   `toml:"database"`
	Shopify    Shopify    `toml:"shopify"`
	Processing Processing `toml:"processing"`
	Logging    Logging    `toml:"logging"`

	// ResultsDB is the path of the local run-results database.
	ResultsDB string `toml:"results_db"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Shopify: Shopify{
			APIVersion:     "2024-10",
			TimeoutSeconds: 30,
		},
		Processing: Processing{
			Workers:            4,
			MaxRetries:         3,
			RetryDelayMS:       1000,
			RateLimitPerSecond: 2,
			RateLimitBurst:     4,
			BatchThreshold:     10,
			BulkPollIntervalMS: 2000,
			BulkTimeoutMinutes: 30,
		},
		Logging:   Logging{Level: "info", Format: "text"},
		ResultsDB: "gemsync.db",
	}
}

// Load reads configuration from path (or DefaultPath when empty, if it
// exists), then applies environment overrides. A .env file in the
// working directory is honored for local development.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides file values with environment variables so secrets
// never need to live in the TOML file.
func (c *Config) applyEnv() {
	if v := os.Getenv("GEMSYNC_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("SHOPIFY_SHOP_DOMAIN"); v != "" {
		c.Shopify.ShopDomain = v
	}
	if v := os.Getenv("SHOPIFY_ACCESS_TOKEN"); v != "" {
		c.Shopify.AccessToken = v
	}
	if v := os.Getenv("GEMSYNC_RESULTS_DB"); v != "" {
		c.ResultsDB = v
	}
}

// Timeout returns the remote request timeout as a duration.
func (s Shopify) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// RetryDelay returns the initial retry backoff as a duration.
func (p Processing) RetryDelay() time.Duration {
	return time.Duration(p.RetryDelayMS) * time.Millisecond
}

// BulkPollInterval returns the bulk operation poll interval.
func (p Processing) BulkPollInterval() time.Duration {
	return time.Duration(p.BulkPollIntervalMS) * time.Millisecond
}

// BulkTimeout returns the bulk operation wait ceiling.
func (p Processing) BulkTimeout() time.Duration {
	return time.Duration(p.BulkTimeoutMinutes) * time.Minute
}

// NewLogger builds a slog.Logger from the logging section.
func (c *Config) NewLogger() *slog.Logger {
	var level slog.Level
	switch c.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

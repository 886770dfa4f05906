// Package config loads taskline configuration from environment
// variables and the optional directory seed file.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`

	// Storage
	DBPath string `envconfig:"DB_PATH" default:"taskline.db"`

	// API auth: "api-key", "jwt", or "none"
	AuthMode  string `envconfig:"AUTH_MODE" default:"api-key"`
	APIKey    string `envconfig:"API_KEY"`
	JWTSecret string `envconfig:"JWT_SECRET"`

	// Rate limiting
	RateLimitRPS   int `envconfig:"RATE_LIMIT_RPS" default:"100"`
	RateLimitBurst int `envconfig:"RATE_LIMIT_BURST" default:"200"`

	// CORS
	CORSOrigins string `envconfig:"CORS_ORIGINS"`

	// Slack mirroring (optional, service starts without Slack)
	SlackBotToken string `envconfig:"SLACK_BOT_TOKEN"`
	SlackChannel  string `envconfig:"SLACK_CHANNEL"`

	// Org directory
	DirectorySeedPath  string        `envconfig:"DIRECTORY_SEED_PATH"`
	DirectoryCacheSize int           `envconfig:"DIRECTORY_CACHE_SIZE" default:"256"`
	DirectoryCacheTTL  time.Duration `envconfig:"DIRECTORY_CACHE_TTL" default:"1m"`

	// Retention (cron spec)
	RetentionSchedule string `envconfig:"RETENTION_SCHEDULE" default:"0 3 * * *"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case "api-key":
		// An empty API_KEY is allowed but fail-closed: the auth
		// middleware rejects every request until a key is set.
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("AUTH_MODE=jwt requires JWT_SECRET")
		}
	case "none":
	default:
		return fmt.Errorf("unknown AUTH_MODE: %q", c.AuthMode)
	}

	if c.SlackBotToken != "" && c.SlackChannel == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN requires SLACK_CHANNEL")
	}
	return nil
}

// SlackEnabled returns true if Slack mirroring is configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

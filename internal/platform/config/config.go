package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// RedisURL enables the Redis-backed session store for multi-instance
	// deployments. Empty means single-instance in-memory mode.
	RedisURL string `env:"REDIS_URL"`

	// SessionSecret signs the browser session-token cookie.
	SessionSecret  string        `env:"SESSION_SECRET" default:"sentiscope-dev-secret"`
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" default:"60m"`

	// Per-session analysis limits.
	RateCooldown       time.Duration `env:"RATE_COOLDOWN" default:"2s"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" default:"10"`
	RateLimitPerHour   int           `env:"RATE_LIMIT_PER_HOUR" default:"100"`

	// Per-IP limits applied at the HTTP layer, before session resolution.
	IPRatePerSecond float64 `env:"IP_RATE_PER_SECOND" default:"20"`
	IPRateBurst     int     `env:"IP_RATE_BURST" default:"40"`

	MaxBatchSize int `env:"MAX_BATCH_SIZE" default:"100"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.AppEnv == "production" && cfg.SessionSecret == "sentiscope-dev-secret" {
		return fmt.Errorf("SESSION_SECRET must be set in production")
	}
	if cfg.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive, got %s", cfg.SessionTimeout)
	}
	if cfg.RateCooldown < 0 {
		return fmt.Errorf("RATE_COOLDOWN must not be negative, got %s", cfg.RateCooldown)
	}
	if cfg.RateLimitPerMinute <= 0 || cfg.RateLimitPerHour <= 0 {
		return fmt.Errorf("rate limits must be positive, got %d/min %d/h", cfg.RateLimitPerMinute, cfg.RateLimitPerHour)
	}
	if cfg.RateLimitPerHour < cfg.RateLimitPerMinute {
		return fmt.Errorf("RATE_LIMIT_PER_HOUR (%d) must not be below RATE_LIMIT_PER_MINUTE (%d)", cfg.RateLimitPerHour, cfg.RateLimitPerMinute)
	}
	if cfg.MaxBatchSize <= 0 {
		return fmt.Errorf("MAX_BATCH_SIZE must be positive, got %d", cfg.MaxBatchSize)
	}
	return nil
}

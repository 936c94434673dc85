package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	AccessTokenSecret      string `env:"ACCESS_TOKEN_SECRET,required"`
	RefreshTokenSecret     string `env:"REFRESH_TOKEN_SECRET,required"`
	SettlementSharedSecret string `env:"SETTLEMENT_SHARED_SECRET,required"`
	SettlementNetworkURL   string `env:"SETTLEMENT_NETWORK_URL"`
	DatabaseURL            string `env:"DATABASE_URL,required"`
	RedisURL               string `env:"REDIS_URL"`
	Port                   int    `env:"PORT,default=8080"`
	LogLevel               string `env:"LOG_LEVEL,default=info"`

	CORSOrigins []string `env:"CORS_ORIGINS"`

	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,default=15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL,default=720h"`

	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL,default=1h"`

	// Webhook delivery
	WebhookTimeout     time.Duration `env:"WEBHOOK_TIMEOUT,default=10s"`
	WebhookMaxRetries  int           `env:"WEBHOOK_MAX_RETRIES,default=3"`
	WebhookBackoffBase time.Duration `env:"WEBHOOK_BACKOFF_BASE,default=1s"`
	WebhookWorkers     int           `env:"WEBHOOK_WORKERS,default=8"`

	// HTTP server timeouts
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT,default=15s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT,default=60s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

const minSecretLength = 16

func (c *Config) validate() error {
	if len(c.AccessTokenSecret) < minSecretLength {
		return fmt.Errorf("ACCESS_TOKEN_SECRET must be at least %d characters", minSecretLength)
	}
	if len(c.RefreshTokenSecret) < minSecretLength {
		return fmt.Errorf("REFRESH_TOKEN_SECRET must be at least %d characters", minSecretLength)
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}

	if c.WebhookTimeout <= 0 {
		return fmt.Errorf("WEBHOOK_TIMEOUT must be positive")
	}
	if c.WebhookMaxRetries < 0 || c.WebhookMaxRetries > 10 {
		return fmt.Errorf("WEBHOOK_MAX_RETRIES must be between 0 and 10, got %d", c.WebhookMaxRetries)
	}
	if c.WebhookWorkers < 1 {
		return fmt.Errorf("WEBHOOK_WORKERS must be at least 1")
	}

	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL must be positive")
	}

	return nil
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port              int    `env:"PORT" envDefault:"8080"`
	DatabaseURL       string `env:"DATABASE_URL,required"`
	RedisURL          string `env:"REDIS_URL,required"`
	JWTSecret         string `env:"JWT_SECRET"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
	StorageURL        string `env:"STORAGE_URL"`
	StorageServiceKey string `env:"STORAGE_SERVICE_KEY"`
	StorageBucket     string `env:"STORAGE_BUCKET" envDefault:"project-files"`
	CRMBaseURL        string `env:"CRM_BASE_URL" envDefault:"https://services.leadconnectorhq.com"`
	CRMAPIKey         string `env:"CRM_API_KEY"`
	CRMLocationID     string `env:"CRM_LOCATION_ID"`
	WebhookSigningKey string `env:"WEBHOOK_SIGNING_KEY"`
	AdminTokenTTLHrs  int    `env:"ADMIN_TOKEN_TTL_HOURS" envDefault:"24"`
	DriverTokenTTLHrs int    `env:"DRIVER_TOKEN_TTL_HOURS" envDefault:"12"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	PortalBaseURL     string `env:"PORTAL_BASE_URL" envDefault:""`
}

func (c *Config) AdminTokenTTL() time.Duration {
	return time.Duration(c.AdminTokenTTLHrs) * time.Hour
}

func (c *Config) DriverTokenTTL() time.Duration {
	return time.Duration(c.DriverTokenTTLHrs) * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.AdminPasswordHash != "" {
		if !strings.HasPrefix(c.AdminPasswordHash, "$2a$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2b$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2y$") {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash (generate with: go run scripts/hash-password.go <password>)")
		}
	}

	if isProduction {
		if err := validateSecret("JWT_SECRET", c.JWTSecret); err != nil {
			return err
		}

		if c.WebhookSigningKey == "" {
			log.Warn().Msg("WEBHOOK_SIGNING_KEY is empty in production: email webhook signature verification disabled")
		}
		if c.StorageServiceKey == "" {
			log.Warn().Msg("STORAGE_SERVICE_KEY is empty in production: upload relay calls will be rejected upstream")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("AdminTokenTTL converts hours to duration", func(t *testing.T) {
		cfg := &Config{AdminTokenTTLHrs: 24}
		assert.Equal(t, 24*time.Hour, cfg.AdminTokenTTL())
	})

	t.Run("DriverTokenTTL converts hours to duration", func(t *testing.T) {
		cfg := &Config{DriverTokenTTLHrs: 12}
		assert.Equal(t, 12*time.Hour, cfg.DriverTokenTTL())
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"PORT":           os.Getenv("PORT"),
		"DATABASE_URL":   os.Getenv("DATABASE_URL"),
		"REDIS_URL":      os.Getenv("REDIS_URL"),
		"STORAGE_BUCKET": os.Getenv("STORAGE_BUCKET"),
		"CRM_BASE_URL":   os.Getenv("CRM_BASE_URL"),
		"LOG_LEVEL":      os.Getenv("LOG_LEVEL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Unsetenv("PORT")
		os.Unsetenv("STORAGE_BUCKET")
		os.Unsetenv("CRM_BASE_URL")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, "project-files", cfg.StorageBucket)
		assert.Equal(t, "https://services.leadconnectorhq.com", cfg.CRMBaseURL)
		assert.Equal(t, 24, cfg.AdminTokenTTLHrs)
		assert.Equal(t, 12, cfg.DriverTokenTTLHrs)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("fails without DATABASE_URL", func(t *testing.T) {
		os.Unsetenv("DATABASE_URL")
		os.Setenv("REDIS_URL", "redis://localhost:6379")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:        8080,
			DatabaseURL: "postgres://localhost/test",
			RedisURL:    "redis://localhost:6379",
		}
	}

	t.Run("accepts empty admin hash", func(t *testing.T) {
		cfg := base()
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("rejects non-bcrypt admin hash", func(t *testing.T) {
		cfg := base()
		cfg.AdminPasswordHash = "plaintext-password"
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("accepts bcrypt admin hash", func(t *testing.T) {
		cfg := base()
		cfg.AdminPasswordHash = "$2b$12$abcdefghijklmnopqrstuv"
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("production requires a strong JWT secret", func(t *testing.T) {
		cfg := base()
		cfg.JWTSecret = "short"
		assert.Error(t, cfg.Validate(true))

		cfg.JWTSecret = "a-long-enough-secret-with-plenty-of-entropy-123"
		assert.NoError(t, cfg.Validate(true))
	})

	t.Run("production rejects known weak secrets", func(t *testing.T) {
		cfg := base()
		cfg.JWTSecret = "change-me"
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("development skips secret checks", func(t *testing.T) {
		cfg := base()
		cfg.JWTSecret = "short"
		assert.NoError(t, cfg.Validate(false))
	})
}

// Package config collects the process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"ecoloop/internal/services"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"

	defaultJWTSecret = "secret_key_change_me"
)

type Config struct {
	Port          string
	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	JWTSecret      string
	TokenTTL       time.Duration
	RequestTimeout time.Duration

	CORSOrigins        []string
	RateLimitPerMinute int
	GinMode            string
	LogLevel           string

	SMTP            services.SMTPConfig
	NotifyQueueSize int
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, reading env vars from system")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Missing keys take their defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:          get("PORT", "8080"),
		StoreDriver:   strings.ToLower(get("STORE_DRIVER", DriverPostgres)),
		DatabaseURL:   get("DATABASE_URL", ""),
		MongoURI:      get("MONGODB_URI", ""),
		MongoDatabase: get("MONGODB_DATABASE", "ecoloop"),
		JWTSecret:     get("JWT_SECRET", ""),
		GinMode:       get("GIN_MODE", "debug"),
		LogLevel:      get("LOG_LEVEL", "info"),
		CORSOrigins:   splitList(get("CORS_ORIGINS", "")),
		SMTP: services.SMTPConfig{
			Host:     get("SMTP_HOST", ""),
			Port:     get("SMTP_PORT", ""),
			Username: get("SMTP_USER", ""),
			Password: get("SMTP_PASS", ""),
			From:     get("SMTP_FROM", ""),
		},
	}

	var errs []error
	var err error
	if cfg.TokenTTL, err = parseDuration("TOKEN_TTL", get("TOKEN_TTL", "168h")); err != nil {
		errs = append(errs, err)
	}
	if cfg.RequestTimeout, err = parseDuration("REQUEST_TIMEOUT", get("REQUEST_TIMEOUT", "10s")); err != nil {
		errs = append(errs, err)
	}
	if cfg.RateLimitPerMinute, err = parseInt("RATE_LIMIT_PER_MINUTE", get("RATE_LIMIT_PER_MINUTE", "120")); err != nil {
		errs = append(errs, err)
	}
	if cfg.NotifyQueueSize, err = parseInt("NOTIFY_QUEUE_SIZE", get("NOTIFY_QUEUE_SIZE", "1000")); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if cfg.JWTSecret == "" {
		if cfg.GinMode == "release" {
			return nil, errors.New("JWT_SECRET is required in release mode")
		}
		log.Warn().Msg("JWT_SECRET not set, using an insecure development secret")
		cfg.JWTSecret = defaultJWTSecret
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the selected store driver needs. The CLI
// calls it again after flags override the driver.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongo store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want postgres, mongo or memory)", c.StoreDriver)
	}
	return nil
}

func parseDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func parseInt(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

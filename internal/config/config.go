package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	defaultDSN     = "host=localhost user=postgres password=postgres dbname=shiftcost port=5432 sslmode=disable"
	defaultOrigins = "http://localhost:5173"
)

type Config struct {
	AppEnv           string
	HTTPPort         string
	DatabaseDriver   string // "postgres" or "sqlite"
	DatabaseDSN      string
	JWTSecret        string
	CORSOrigins      string
	VenueTimezone    string
	CatalogueFile    string // optional YAML overriding the built-in burger list
	NATSURL          string // empty disables ledger alerts
	NATSAlertSubject string
	LogLevel         string

	// Warnings collected while loading; the caller logs them once a logger exists.
	Warnings []string
}

// Load reads the environment, seeded from .env outside production.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		DatabaseDriver:   strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		DatabaseDSN:      getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		CORSOrigins:      getEnv("CORS_ALLOWED_ORIGINS", defaultOrigins),
		VenueTimezone:    getEnv("VENUE_TIMEZONE", "Asia/Bangkok"),
		CatalogueFile:    getEnv("USAGE_CATALOGUE_FILE", ""),
		NATSURL:          getEnv("NATS_URL", ""),
		NATSAlertSubject: getEnv("NATS_ALERT_SUBJECT", "shiftcost.ledger.alert"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("DATABASE_DRIVER %q is not supported (postgres, sqlite)", cfg.DatabaseDriver)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	if cfg.DatabaseDriver == "postgres" && cfg.DatabaseDSN == defaultDSN {
		cfg.Warnings = append(cfg.Warnings, "DATABASE_DSN is using the local default")
	}
	if cfg.CORSOrigins == defaultOrigins {
		cfg.Warnings = append(cfg.Warnings, "CORS_ALLOWED_ORIGINS is using the local default")
	}
	if cfg.NATSURL == "" {
		cfg.Warnings = append(cfg.Warnings, "NATS_URL is not set, ledger alerts are only logged")
	}

	return cfg, nil
}

// Location is the venue time zone the trading window is placed in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.VenueTimezone)
	if err != nil {
		return nil, fmt.Errorf("VENUE_TIMEZONE %q: %w", c.VenueTimezone, err)
	}
	return loc, nil
}

// Origins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

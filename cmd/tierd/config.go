package main

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	backendPostgres = "postgres"
	backendRedis    = "redis"
	backendMemory   = "memory"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Name     string `env:"APP_NAME" envDefault:"tierd"`
	LogLevel string `env:"LOG_LEVEL"`

	CatalogPath     string `env:"TIER_CATALOG_PATH"`
	UsageBackend    string `env:"USAGE_BACKEND" envDefault:"postgres"`
	HardQuota       bool   `env:"HARD_QUOTA" envDefault:"true"`
	ImmediateCancel bool   `env:"IMMEDIATE_CANCEL" envDefault:"false"`
	UsageTimezone   string `env:"USAGE_TIMEZONE" envDefault:"UTC"`
	MessageLanguage string `env:"MESSAGE_LANGUAGE" envDefault:"en"`

	SessionCacheSize     int           `env:"SESSION_CACHE_SIZE" envDefault:"1000"`
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"15m"`
	SessionMaxAge        time.Duration `env:"SESSION_MAX_AGE" envDefault:"5m"`
	SessionPruneInterval time.Duration `env:"SESSION_PRUNE_INTERVAL" envDefault:"1m"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	MetricsEnabled     bool     `env:"METRICS_ENABLED" envDefault:"true"`
}

func (c appConfig) backend() (string, error) {
	switch b := strings.ToLower(strings.TrimSpace(c.UsageBackend)); b {
	case backendPostgres, backendRedis, backendMemory:
		return b, nil
	default:
		return "", fmt.Errorf("unsupported USAGE_BACKEND %q", c.UsageBackend)
	}
}

func (c appConfig) location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.UsageTimezone)
	if err != nil {
		return nil, fmt.Errorf("USAGE_TIMEZONE: %w", err)
	}
	return loc, nil
}

func (c appConfig) language() (language.Tag, error) {
	tag, err := language.Parse(c.MessageLanguage)
	if err != nil {
		return language.Und, fmt.Errorf("MESSAGE_LANGUAGE: %w", err)
	}
	return tag, nil
}

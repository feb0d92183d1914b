// Package config provides configuration loading for the pid generator
// service. It handles environment variable parsing and supplies defaults
// for everything spec.md §6 allows to go unset.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// init loads environment variables from .env files during package
// initialization. In dev, .env and .env.local are loaded if present; in
// production there typically is no .env file and this is a no-op.
// godotenv.Load does not override already-set environment variables, so OS
// env always takes precedence over .env.
func init() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env.local file: %v\n", err)
		}
	}
}

// Config captures environment-driven settings for the pid generator
// daemon and CLI.
type Config struct {
	Env            string // Deployment environment (dev, staging, prod)
	HTTPAddress    string // HTTP server address (e.g., ":8080")
	MetricsAddress string // Metrics server address (e.g., ":9090")

	DOIPrefix    string // spec.md §6 doi.prefix
	DOINamespace string // spec.md §6 doi.namespace
	URNNamespace string // spec.md §6 urn.namespace

	Timezone *time.Location // spec.md §6 timezone, for Minted.created

	DatabaseDriver string // "memory" or "postgres"
	DatabaseDSN    string // required when DatabaseDriver == "postgres"
}

const (
	defaultHTTPAddress    = ":8080"
	defaultMetricsAddress = ":9090"
	defaultDOIPrefix      = "10.5072"
	defaultDOINamespace   = "dans"
	defaultURNNamespace   = "nl-ui"
	defaultTimezone       = "UTC"
	defaultDatabaseDriver = "memory"
)

// Load reads environment variables and produces a Config suitable for
// wiring the service. It returns an error if a required value is missing
// or malformed.
func Load() (Config, error) {
	cfg := Config{}

	cfg.Env = getEnv("PID_ENV", "dev")
	cfg.HTTPAddress = getEnv("PID_HTTP_ADDR", defaultHTTPAddress)
	cfg.MetricsAddress = getEnv("PID_METRICS_ADDR", defaultMetricsAddress)

	cfg.DOIPrefix = getEnv("PID_DOI_PREFIX", defaultDOIPrefix)
	cfg.DOINamespace = getEnv("PID_DOI_NAMESPACE", defaultDOINamespace)
	cfg.URNNamespace = getEnv("PID_URN_NAMESPACE", defaultURNNamespace)

	tzName := getEnv("PID_TIMEZONE", defaultTimezone)
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("invalid PID_TIMEZONE %q: %w", tzName, err)
	}
	cfg.Timezone = loc

	cfg.DatabaseDriver = strings.ToLower(getEnv("PID_DB_DRIVER", defaultDatabaseDriver))
	if dsn, exists := os.LookupEnv("PID_DB_DSN"); exists {
		cfg.DatabaseDSN = dsn
	}
	if cfg.DatabaseDriver == "postgres" && cfg.DatabaseDSN == "" {
		return Config{}, errors.New("PID_DB_DSN is required when PID_DB_DRIVER=postgres")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable value, returning a fallback if
// not set or empty.
func getEnv(key, fallback string) string {
	if v, exists := os.LookupEnv(key); exists && v != "" {
		return v
	}
	return fallback
}

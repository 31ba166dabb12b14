// Package config loads runtime settings from the environment, reading a .env file first when one
// is present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the ledger binaries need at startup.
type Config struct {
	DatabaseURL             string
	MaxConns                int32
	LogLevel                string
	Env                     string
	DefaultWarehouseName    string
	QuarantineWarehouseName string
	MigrationsDir           string
	MetricsAddr             string // empty disables the /metrics listener
}

// Development reports whether logs should be pretty-printed.
func (c Config) Development() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "dev"
}

// Load reads the environment. files are .env paths to try first; missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}

	cfg := Config{
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		LogLevel:                strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Env:                     strings.ToLower(getEnv("APP_ENV", "development")),
		DefaultWarehouseName:    getEnv("DEFAULT_WAREHOUSE_NAME", "Main Warehouse"),
		QuarantineWarehouseName: getEnv("QUARANTINE_WAREHOUSE_NAME", "Quarantine"),
		MigrationsDir:           getEnv("MIGRATIONS_DIR", "migrations"),
		MetricsAddr:             os.Getenv("METRICS_ADDR"),
	}

	maxConns, err := strconv.ParseInt(getEnv("DB_MAX_CONNS", "10"), 10, 32)
	if err != nil || maxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be a positive integer, got %q", os.Getenv("DB_MAX_CONNS"))
	}
	cfg.MaxConns = int32(maxConns)
	return cfg, nil
}

// RequireDatabase fails when no DATABASE_URL is configured.
func (c Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

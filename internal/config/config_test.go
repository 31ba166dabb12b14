package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"manufacturing-ledger/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "DB_MAX_CONNS", "LOG_LEVEL", "APP_ENV", "DEFAULT_WAREHOUSE_NAME", "QUARANTINE_WAREHOUSE_NAME", "METRICS_ADDR"} {
		t.Setenv(k, "")
	}
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxConns != 10 || cfg.LogLevel != "info" || cfg.DefaultWarehouseName != "Main Warehouse" || cfg.QuarantineWarehouseName != "Quarantine" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Development() {
		t.Error("expected development mode by default")
	}
	if cfg.MetricsAddr != "" || cfg.MigrationsDir != "migrations" {
		t.Errorf("unexpected metrics or migrations defaults: %+v", cfg)
	}
	if err := cfg.RequireDatabase(); err == nil {
		t.Error("expected RequireDatabase to fail without DATABASE_URL")
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "DB_MAX_CONNS", "APP_ENV"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	path := filepath.Join(t.TempDir(), ".env")
	content := "DATABASE_URL=postgres://ledger@localhost/ledger\nDB_MAX_CONNS=4\nAPP_ENV=production\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DatabaseURL != "postgres://ledger@localhost/ledger" || cfg.MaxConns != 4 || cfg.Development() {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoad_InvalidMaxConns(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "lots")
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected an error for a non-numeric DB_MAX_CONNS")
	}
}

// migrate applies migrations/NNN_description.sql files in order, recording each version and its
// checksum in schema_migrations. An applied file whose checksum changed aborts the run.
//
// Usage: go run ./cmd/migrate
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"manufacturing-ledger/internal/config"
	"manufacturing-ledger/internal/db"
	"manufacturing-ledger/internal/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const advisoryLockKey = 7462839

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init("migrate", cfg.LogLevel, cfg.Development())

	ctx := context.Background()
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pool, err := db.NewPool(connCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("[CONNECT] failed")
	}
	defer pool.Close()
	log.Info().Msg("[CONNECT] success")

	m := &migrator{pool: pool, dir: cfg.MigrationsDir, log: log}
	if err := m.run(ctx); err != nil {
		log.Fatal().Err(err).Msg("migration aborted")
	}
	log.Info().Msg("[DONE] All migrations processed.")
}

type migrator struct {
	pool *pgxpool.Pool
	dir  string
	log  zerolog.Logger
}

func (m *migrator) run(ctx context.Context) error {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("[LOCK] failed to acquire connection for lock: %w", err)
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", advisoryLockKey).Scan(&locked); err != nil {
		return fmt.Errorf("[LOCK] failed to query advisory lock: %w", err)
	}
	if !locked {
		return errors.New("[LOCK] failed: another migrator is currently running")
	}
	defer conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockKey)
	m.log.Info().Msg("[LOCK] success")

	_, err = m.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	files, err := discoverMigrations(m.dir)
	if err != nil {
		return err
	}
	for _, filename := range files {
		if err := m.apply(ctx, filename); err != nil {
			return err
		}
	}
	return nil
}

func discoverMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("[DISCOVER] failed to read migrations directory: %w", err)
	}

	var filenames []string
	versions := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, err := extractVersion(entry.Name())
		if err != nil {
			return nil, err
		}
		if versions[version] {
			return nil, fmt.Errorf("[DISCOVER] duplicate version found: %s", version)
		}
		versions[version] = true
		filenames = append(filenames, entry.Name())
	}

	sort.Strings(filenames)
	return filenames, nil
}

func extractVersion(filename string) (string, error) {
	parts := strings.SplitN(filename, "_", 2)
	if len(parts) < 2 {
		return "", fmt.Errorf("[DISCOVER] invalid migration filename format: %s. Expected format NNN_description.sql", filename)
	}
	return parts[0], nil
}

func (m *migrator) apply(ctx context.Context, filename string) error {
	version, err := extractVersion(filename)
	if err != nil {
		return err
	}
	sqlBytes, err := os.ReadFile(filepath.Join(m.dir, filename))
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", filename, err)
	}
	sum := sha256.Sum256(sqlBytes)
	checksum := hex.EncodeToString(sum[:])

	var existing string
	err = m.pool.QueryRow(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", version).Scan(&existing)
	switch {
	case err == nil && existing == checksum:
		m.log.Info().Str("file", filename).Msg("[SKIP]")
		return nil
	case err == nil:
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", filename, existing, checksum)
	case !errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("failed to query schema_migrations for %s: %w", filename, err)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", filename, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", filename, err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)", version, filename, checksum); err != nil {
		return fmt.Errorf("failed to insert migration record for %s: %w", filename, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction for %s: %w", filename, err)
	}

	m.log.Info().Str("file", filename).Msg("[APPLY]")
	return nil
}

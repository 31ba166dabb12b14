package db

import (
	"context"
	"errors"
	"fmt"

	"manufacturing-ledger/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const maxAttempts = 3

// Store is the PostgreSQL core.Store. A unit of work that loses a deadlock or serialization race
// is retried from the start, up to maxAttempts times.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

var _ core.Store = (*Store)(nil)

// NewStore returns a Store running its units of work on pool.
func NewStore(pool *pgxpool.Pool, log zerolog.Logger) *Store {
	return &Store{pool: pool, log: log}
}

func (s *Store) InTx(ctx context.Context, fn func(tx core.Tx) error) error {
	return s.withRetry(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

func (s *Store) InReadTx(ctx context.Context, fn func(tx core.Tx) error) error {
	return s.withRetry(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (s *Store) withRetry(ctx context.Context, opts pgx.TxOptions, fn func(tx core.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.once(ctx, opts, fn)
		if !retryable(err) {
			return err
		}
		s.log.Warn().Err(err).Int("attempt", attempt).Msg("unit of work lost a lock race, retrying")
	}
	return err
}

func (s *Store) once(ctx context.Context, opts pgx.TxOptions, fn func(tx core.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// retryable reports deadlock_detected and serialization_failure.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" || pgErr.Code == "40001"
	}
	return false
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPostgresTimeout = 5 * time.Second

// PostgresStore keeps values in a kv table through a pgx pool.
type PostgresStore struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

// OpenPostgres connects to dsn and ensures the kv table
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := NewPostgresStore(pool, defaultPostgresTimeout)

	const schema = `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := pool.Exec(timeoutCtx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return s, nil
}

// NewPostgresStore wraps an existing pool
func NewPostgresStore(db *pgxpool.Pool, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout}
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const query = `SELECT value FROM kv WHERE key = $1`
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var value []byte
	err := s.db.QueryRow(timeoutCtx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	const query = `
	INSERT INTO kv (key, value, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.db.Exec(timeoutCtx, query, key, value)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM kv WHERE key = $1`
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.db.Exec(timeoutCtx, query, key)
	return err
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

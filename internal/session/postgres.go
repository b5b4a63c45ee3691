package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS pk_session_values (
    session_id TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY(session_id, key)
);
CREATE INDEX IF NOT EXISTS idx_pk_session_values_updated ON pk_session_values(updated_at);
`

// PostgresStore keeps session values in Postgres so several pkweb
// instances can share logins.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and ensures the table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating session table: %w", err)
	}

	return &PostgresStore{Pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() { s.Pool.Close() }

func (s *PostgresStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	var value string
	err := s.Pool.QueryRow(ctx,
		`SELECT value FROM pk_session_values WHERE session_id = $1 AND key = $2`, sessionID, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting session value: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, sessionID, key, value string) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO pk_session_values (session_id, key, value, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		sessionID, key, value,
	)
	if err != nil {
		return fmt.Errorf("setting session value: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.Pool.Exec(ctx, `DELETE FROM pk_session_values WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Touch(ctx context.Context, sessionID string) error {
	if _, err := s.Pool.Exec(ctx, `UPDATE pk_session_values SET updated_at = now() WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM pk_session_values WHERE updated_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS order_records (
    key        TEXT PRIMARY KEY,
    value      JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PgxPool is the subset of *pgxpool.Pool the backend uses.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBackend stores records in a shared Postgres table, for kiosk fleets
// that keep their state off-device.
type PostgresBackend struct {
	db PgxPool
}

// OpenPostgres connects to databaseURL and ensures the table exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresBackend, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}
	b, err := NewPostgresBackend(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return b, pool, nil
}

// NewPostgresBackend wraps an existing pool and applies the schema.
func NewPostgresBackend(ctx context.Context, db PgxPool) (*PostgresBackend, error) {
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("postgres: apply schema: %w", err)
	}
	return &PostgresBackend{db: db}, nil
}

func (p *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.db.QueryRow(ctx, `SELECT value FROM order_records WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get %q: %w", key, err)
	}
	return value, nil
}

func (p *PostgresBackend) Put(ctx context.Context, key string, value []byte) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO order_records (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			value = $2,
			updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("postgres: put %q: %w", key, err)
	}
	return nil
}

func (p *PostgresBackend) Delete(ctx context.Context, key string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM order_records WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("postgres: delete %q: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

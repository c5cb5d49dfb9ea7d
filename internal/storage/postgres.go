package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createKVTableSQL = `CREATE TABLE IF NOT EXISTS %s (
        key        TEXT PRIMARY KEY,
        value      TEXT NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );`

	selectKVSQL = `SELECT value FROM %s WHERE key = $1;`

	upsertKVSQL = `INSERT INTO %s (key, value, updated_at)
    VALUES ($1, $2, now())
    ON CONFLICT (key) DO UPDATE
    SET value      = EXCLUDED.value,
        updated_at = EXCLUDED.updated_at;`
)

// PostgresKV stores keys in a single postgres table.
type PostgresKV struct {
	pool      *pgxpool.Pool
	selectSQL string
	upsertSQL string
}

// NewPostgresKV ensures the table exists and wraps the pool.
func NewPostgresKV(ctx context.Context, pool *pgxpool.Pool, table string) (*PostgresKV, error) {
	if pool == nil {
		return nil, ErrNotConfigured
	}
	if table == "" {
		table = "kv_store"
	}
	ident := pgx.Identifier{table}.Sanitize()

	if _, err := pool.Exec(ctx, fmt.Sprintf(createKVTableSQL, ident)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &PostgresKV{
		pool:      pool,
		selectSQL: fmt.Sprintf(selectKVSQL, ident),
		upsertSQL: fmt.Sprintf(upsertKVSQL, ident),
	}, nil
}

// Get reads the value stored under key.
func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := p.pool.QueryRow(ctx, p.selectSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return []byte(value), nil
}

// Put upserts the value.
func (p *PostgresKV) Put(ctx context.Context, key string, value []byte) error {
	if _, err := p.pool.Exec(ctx, p.upsertSQL, key, string(value)); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (p *PostgresKV) Close() error {
	if p == nil || p.pool == nil {
		return nil
	}
	p.pool.Close()
	return nil
}

var _ KV = (*PostgresKV)(nil)

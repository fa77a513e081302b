// Package postgres implements kvstore.Store on a single kv_entries table,
// for running the demo against a shared database instead of a local file.
//
// The backend keeps the substrate's semantics: one value per key, blind
// last-write-wins Set, no transactions spanning a read-modify-write. It only
// relocates the lost-update window from a file to a table.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akulikov-dev/localchat/internal/errs"
	"github.com/akulikov-dev/localchat/internal/kvstore"
)

// PgxPool is a minimal abstraction over a Postgres connection pool.
// It is implemented by *pgxpool.Pool and pgxmock.PgxPoolIface.
type PgxPool interface {
	// Exec executes a SQL command and returns the command tag.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	// QueryRow executes a query expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	// Close shuts down the pool and frees resources.
	Close()
}

// Store is the kv_entries-backed implementation.
type Store struct{ pool PgxPool }

// New creates a connection pool for the given DSN.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// NewWithPool wraps an existing pool (used by tests).
func NewWithPool(pool PgxPool) *Store { return &Store{pool: pool} }

// Close closes the underlying pool.
func (s *Store) Close() { s.pool.Close() }

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM kv_entries WHERE key=$1`
	var v string
	if err := s.pool.QueryRow(ctx, q, key).Scan(&v); err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", errs.ErrNotFound
	}
	return v, nil
}

// Set writes value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO kv_entries (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	_, err := s.pool.Exec(ctx, q, key, value)
	return err
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM kv_entries WHERE key=$1`
	_, err := s.pool.Exec(ctx, q, key)
	return err
}

var _ kvstore.Store = (*Store)(nil)

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBInstance is the subset of *pgxpool.Pool the postgres store needs.
type DBInstance interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type Postgres struct {
	pool DBInstance
}

func NewPostgres(pool DBInstance) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the cache table when missing.
func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS cache_entries (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create cache table: %w", err)
	}

	return nil
}

func (s *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := s.pool.QueryRow(ctx, `SELECT value FROM cache_entries WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, ErrStoreOperation("get", key, err)
	}

	return value, true, nil
}

func (s *Postgres) Set(ctx context.Context, key string, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cache_entries (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return ErrStoreOperation("set", key, err)
	}

	return nil
}

func (s *Postgres) RemoveMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := s.pool.Exec(ctx, `DELETE FROM cache_entries WHERE key = ANY($1)`, keys)
	if err != nil {
		return ErrStoreOperation("remove", fmt.Sprint(keys), err)
	}

	return nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

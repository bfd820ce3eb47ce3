package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLite keeps cache entries in a single table of a local SQLite file.
type SQLite struct {
	sqlDB *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create cache table: %w", err)
	}

	return &SQLite{sqlDB: sqlDB}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}

	return s.sqlDB.Close()
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.sqlDB == nil {
		return "", false, ErrNotConfigured
	}

	var value string

	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM cache_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, ErrStoreOperation("get", key, err)
	}

	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value string) error {
	if s == nil || s.sqlDB == nil {
		return ErrNotConfigured
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return ErrStoreOperation("set", key, err)
	}

	return nil
}

func (s *SQLite) RemoveMany(ctx context.Context, keys ...string) error {
	if s == nil || s.sqlDB == nil {
		return ErrNotConfigured
	}

	if len(keys) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
			_ = tx.Rollback()
			return ErrStoreOperation("remove", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

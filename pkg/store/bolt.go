package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const boltBucket = "cache"

// Bolt keeps cache entries in a single bbolt bucket.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) the bbolt file at path.
func OpenBolt(path string) (*Bolt, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

func (s *Bolt) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Bolt) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	if s == nil || s.db == nil {
		return "", false, ErrNotConfigured
	}

	var (
		value string
		found bool
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(boltBucket)).Get([]byte(key))
		if data == nil {
			return nil
		}

		// data is only valid inside the transaction
		value, found = string(data), true

		return nil
	})
	if err != nil {
		return "", false, ErrStoreOperation("get", key, err)
	}

	return value, found, nil
}

func (s *Bolt) Set(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s == nil || s.db == nil {
		return ErrNotConfigured
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return ErrStoreOperation("set", key, err)
	}

	return nil
}

func (s *Bolt) RemoveMany(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s == nil || s.db == nil {
		return ErrNotConfigured
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(boltBucket))
		for _, key := range keys {
			if err := bucket.Delete([]byte(key)); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return ErrStoreOperation("remove", strings.Join(keys, ","), err)
	}

	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by a store whose underlying handle is missing.
var ErrNotConfigured = errors.New("store is not configured")

// Store is the persistent, string-keyed storage the cache mirror is built on.
// Implementations must survive process restarts, except Memory.
// No atomicity is promised across keys.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	RemoveMany(ctx context.Context, keys ...string) error
}

// Closable is a Store holding an external resource.
type Closable interface {
	Store
	Close() error
}

func ErrStoreOperation(op string, key string, err error) error {
	return fmt.Errorf("store %s %q: %w", op, key, err)
}

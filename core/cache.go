package core

import (
	"context"

	"volunteer-sync/pkg/store"
)

const (
	KeyAllEvents   = "events:all"
	KeyEventsQuery = "events:query"
)

func EventKey(id string) string {
	return "event:" + id
}

// Cache is the typed view of the persistent store: every value goes through
// the versioned envelope.
type Cache struct {
	store store.Store
}

func NewCache(s store.Store) *Cache {
	return &Cache{store: s}
}

func (c *Cache) Put(ctx context.Context, key string, value any) error {
	raw, err := Encode(value)
	if err != nil {
		return err
	}

	return c.store.Set(ctx, key, raw)
}

func (c *Cache) Remove(ctx context.Context, keys ...string) error {
	return c.store.RemoveMany(ctx, keys...)
}

// Lookup reads key into T. found is false when nothing is stored; a stored
// value that cannot be decoded is a *DeserializationError.
func Lookup[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var zero T

	raw, found, err := c.store.Get(ctx, key)
	if err != nil || !found {
		return zero, false, err
	}

	value, err := Decode[T](raw)
	if err != nil {
		return zero, true, &DeserializationError{Key: key, Err: err}
	}

	return value, true, nil
}

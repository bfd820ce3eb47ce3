package core

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunteer-sync/pkg/store"
)

func succeed[T any](v T, calls *int) Request[T] {
	return func(context.Context) (T, error) {
		*calls++
		return v, nil
	}
}

func fail[T any](err error, calls *int) Request[T] {
	return func(context.Context) (T, error) {
		*calls++

		var zero T

		return zero, err
	}
}

func TestResolve_NetworkThenCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	r := NewResolver(NewCache(mem), NewSyncMetrics())

	var calls int

	event := &Event{Id: "e1", Name: "Cleanup", VolunteersNeeded: 2, VolunteersIds: []string{"u1"}}

	got, source, err := ResolveSource(ctx, r, EventKey("e1"), succeed(event, &calls))
	require.NoError(t, err)
	assert.Equal(t, SourceNetwork, source)
	assert.Equal(t, event, got)

	got, source, err = ResolveSource(ctx, r, EventKey("e1"), fail[*Event](offline("fetch_event"), &calls))
	require.NoError(t, err)
	assert.Equal(t, SourceCache, source)
	assert.Equal(t, event, got)
	assert.Equal(t, 2, calls)
}

func TestResolve_MissWrapsNetworkError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewResolver(NewCache(store.NewMemory()), NewSyncMetrics())
	netErr := offline("fetch_event")

	var calls int

	_, err := Resolve(ctx, r, EventKey("nope"), fail[*Event](netErr, &calls))
	require.Error(t, err)

	var missErr *CacheMissError
	require.ErrorAs(t, err, &missErr)
	assert.Equal(t, EventKey("nope"), missErr.Key)
	require.ErrorIs(t, err, netErr)
	assert.Equal(t, 1, calls)
}

func TestResolve_OverwritesOnRepeat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	r := NewResolver(NewCache(mem), NewSyncMetrics())

	var calls int

	events := []Event{{Id: "e1"}, {Id: "e2"}}

	first, err := Resolve(ctx, r, KeyAllEvents, succeed(events, &calls))
	require.NoError(t, err)

	rawFirst, _, err := mem.Get(ctx, KeyAllEvents)
	require.NoError(t, err)

	second, err := Resolve(ctx, r, KeyAllEvents, succeed(events, &calls))
	require.NoError(t, err)

	rawSecond, _, err := mem.Get(ctx, KeyAllEvents)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, rawFirst, rawSecond)
	assert.Equal(t, 1, mem.Len())

	cached, err := Resolve(ctx, r, KeyAllEvents, fail[[]Event](offline("fetch_events"), &calls))
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestResolve_CorruptCacheIsSurfaced(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Set(ctx, EventKey("e1"), `{"schemaVersion":1,"payload":{"volunteersIds":"u1"}}`))

	r := NewResolver(NewCache(mem), NewSyncMetrics())

	var calls int

	_, err := Resolve(ctx, r, EventKey("e1"), fail[*Event](offline("fetch_event"), &calls))
	require.Error(t, err)

	var decodeErr *DeserializationError
	require.ErrorAs(t, err, &decodeErr)

	var missErr *CacheMissError
	assert.False(t, errors.As(err, &missErr))
}

func TestResolve_NullCacheEntryIsSurfaced(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "legacy blob", raw: `null`},
		{name: "enveloped", raw: `{"schemaVersion":1,"payload":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			mem := store.NewMemory()
			require.NoError(t, mem.Set(ctx, EventKey("e1"), tt.raw))

			r := NewResolver(NewCache(mem), NewSyncMetrics())

			var calls int

			got, err := Resolve(ctx, r, EventKey("e1"), fail[*Event](offline("fetch_event"), &calls))
			require.Error(t, err)
			assert.Nil(t, got)

			var decodeErr *DeserializationError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, EventKey("e1"), decodeErr.Key)
			assert.Equal(t, http.StatusInternalServerError, StatusFor(err))
		})
	}
}

func TestResolve_StoreFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewResolver(NewCache(brokenStore{}), NewSyncMetrics())

	var calls int

	t.Run("write failure keeps fresh value", func(t *testing.T) {
		t.Parallel()

		got, err := Resolve(ctx, r, EventKey("e1"), succeed(&Event{Id: "e1"}, &calls))
		require.NoError(t, err)
		assert.Equal(t, "e1", got.Id)
	})

	t.Run("read failure is not a miss", func(t *testing.T) {
		t.Parallel()

		var failCalls int

		_, err := Resolve(ctx, r, EventKey("e1"), fail[*Event](offline("fetch_event"), &failCalls))
		require.Error(t, err)
		require.ErrorIs(t, err, errStoreDown)

		var missErr *CacheMissError
		assert.False(t, errors.As(err, &missErr))
	})
}

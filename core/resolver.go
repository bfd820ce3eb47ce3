package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Request is a pending network call. It is invoked exactly once per resolve.
type Request[T any] func(ctx context.Context) (T, error)

// Resolver serves reads network-first, falling back to the cache.
type Resolver struct {
	tracer  trace.Tracer
	metrics *SyncMetrics
	cache   *Cache
}

func NewResolver(cache *Cache, metrics *SyncMetrics) *Resolver {
	return &Resolver{
		tracer:  otel.GetTracerProvider().Tracer("volunteer-sync/core"),
		metrics: metrics,
		cache:   cache,
	}
}

// Resolve returns the fresh network value, or the last one cached under key
// when the request fails.
func Resolve[T any](ctx context.Context, r *Resolver, key string, request Request[T]) (T, error) {
	value, _, err := ResolveSource(ctx, r, key, request)
	return value, err
}

// ResolveSource is Resolve that also reports where the value came from.
func ResolveSource[T any](ctx context.Context, r *Resolver, key string, request Request[T]) (T, Source, error) {
	ctx, span := r.tracer.Start(ctx, "resolver.Resolve", trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	value, netErr := request(ctx)
	if netErr == nil {
		span.SetAttributes(attribute.String("sync.source", string(SourceNetwork)))
		r.metrics.Resolved(ctx, key, OutcomeNetwork)

		err := r.cache.Put(ctx, key, value)
		if err != nil {
			// the fresh value is still authoritative; the mirror just stays behind
			log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to refresh cache")
		}

		return value, SourceNetwork, nil
	}

	log.Ctx(ctx).Debug().Err(netErr).Str("key", key).Msg("network request failed, reading cache")

	cached, found, err := Lookup[T](ctx, r.cache, key)

	var decodeErr *DeserializationError

	switch {
	case errors.As(err, &decodeErr):
		r.metrics.Resolved(ctx, key, OutcomeCorrupt)
		span.SetStatus(codes.Error, "corrupt cache entry")
		log.Ctx(ctx).Error().Err(err).Str("key", key).Msg("cached value is unreadable")

		return cached, "", err
	case err != nil:
		r.metrics.Resolved(ctx, key, OutcomeError)
		span.SetStatus(codes.Error, "cache read failed")

		return cached, "", fmt.Errorf("failed to read cache for %q: %w", key, errors.Join(netErr, err))
	case !found:
		r.metrics.Resolved(ctx, key, OutcomeMiss)
		span.SetStatus(codes.Error, "cache miss")

		return cached, "", &CacheMissError{Key: key, Err: netErr}
	}

	span.SetAttributes(attribute.String("sync.source", string(SourceCache)))
	r.metrics.Resolved(ctx, key, OutcomeCache)

	return cached, SourceCache, nil
}

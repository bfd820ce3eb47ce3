package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Repository interface {
	LoadEvents(ctx context.Context) ([]Event, QueryInfo, error)
	LoadEvent(ctx context.Context, id string) (*Event, error)
	LoadUser(ctx context.Context, id string) (*User, error)
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
	VolunteerForEvent(ctx context.Context, candidate *Event) (*Event, error)
	Authenticate(ctx context.Context, email string, password string) (*Session, error)
}

type repository struct {
	tracer         trace.Tracer
	metrics        *SyncMetrics
	remote         Remote
	resolver       *Resolver
	cache          *Cache
	now            func() time.Time
	createAttempts uint
	retryDelay     time.Duration
}

type RepositoryOption func(r *repository)

// WithCreateAttempts bounds how many times a create is sent. Creates carry a
// client-generated id, so repeating one is safe.
func WithCreateAttempts(attempts uint, delay time.Duration) RepositoryOption {
	return func(r *repository) {
		if attempts > 0 {
			r.createAttempts = attempts
		}

		r.retryDelay = delay
	}
}

func WithClock(now func() time.Time) RepositoryOption {
	return func(r *repository) {
		r.now = now
	}
}

func NewRepository(remote Remote, cache *Cache, metrics *SyncMetrics, opts ...RepositoryOption) Repository {
	r := &repository{
		tracer:         otel.GetTracerProvider().Tracer("volunteer-sync/core"),
		metrics:        metrics,
		remote:         remote,
		resolver:       NewResolver(cache, metrics),
		cache:          cache,
		now:            time.Now,
		createAttempts: 1,
		retryDelay:     200 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *repository) LoadEvents(ctx context.Context) ([]Event, QueryInfo, error) {
	ctx, span := r.tracer.Start(ctx, "repository.LoadEvents")
	defer span.End()

	events, source, err := ResolveSource(ctx, r.resolver, KeyAllEvents, r.remote.FetchEvents)
	if err != nil {
		return nil, QueryInfo{}, fmt.Errorf("failed to load events: %w", err)
	}

	if source == SourceNetwork {
		info := QueryInfo{LastFetched: r.now().UTC(), Total: len(events), Source: SourceNetwork}

		err = r.cache.Put(ctx, KeyEventsQuery, info)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("failed to record query info")
		}

		return events, info, nil
	}

	info, _, err := Lookup[QueryInfo](ctx, r.cache, KeyEventsQuery)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to read query info")
	}

	info.Source = SourceCache
	info.Total = len(events)

	return events, info, nil
}

func (r *repository) LoadEvent(ctx context.Context, id string) (*Event, error) {
	ctx, span := r.tracer.Start(ctx, "repository.LoadEvent")
	defer span.End()

	event, err := Resolve(ctx, r.resolver, EventKey(id), func(ctx context.Context) (*Event, error) {
		return r.remote.FetchEvent(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load event %s: %w", id, err)
	}

	return event, nil
}

// LoadUser is never cached.
func (r *repository) LoadUser(ctx context.Context, id string) (*User, error) {
	ctx, span := r.tracer.Start(ctx, "repository.LoadUser")
	defer span.End()

	user, err := r.remote.FetchUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}

	return user, nil
}

func (r *repository) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	start := time.Now()

	var err error

	defer func() { r.metrics.Observe(ctx, "create_event", start, err) }()

	ctx, span := r.tracer.Start(ctx, "repository.CreateEvent")
	defer span.End()

	created, err := retry.DoWithData(
		func() (*Event, error) {
			return r.remote.CreateEvent(ctx, event)
		},
		retry.Context(ctx),
		retry.Attempts(r.createAttempts),
		retry.Delay(r.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Err(err).Uint("attempt", n+1).Str("event_id", event.Id).Msg("retrying create event")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event %s: %w", event.Id, err)
	}

	// the server accepted it, so the mirror may hold it
	cacheErr := r.cache.Put(ctx, EventKey(created.Id), created)
	if cacheErr != nil {
		log.Ctx(ctx).Warn().Err(cacheErr).Str("event_id", created.Id).Msg("failed to cache created event")
	}

	return created, nil
}

func (r *repository) VolunteerForEvent(ctx context.Context, candidate *Event) (*Event, error) {
	start := time.Now()

	var err error

	defer func() { r.metrics.Observe(ctx, "update_event", start, err) }()

	ctx, span := r.tracer.Start(ctx, "repository.VolunteerForEvent")
	defer span.End()

	updated, err := r.remote.UpdateEvent(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", candidate.Id, err)
	}

	return updated, nil
}

func (r *repository) Authenticate(ctx context.Context, email string, password string) (*Session, error) {
	ctx, span := r.tracer.Start(ctx, "repository.Authenticate")
	defer span.End()

	session, err := r.remote.Authenticate(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	return session, nil
}

func isRetryable(err error) bool {
	var networkErr *NetworkError
	if !errors.As(err, &networkErr) {
		return false
	}

	return networkErr.Retryable()
}

package core

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	OutcomeNetwork = "network"
	OutcomeCache   = "cache"
	OutcomeMiss    = "miss"
	OutcomeCorrupt = "corrupt"
	OutcomeError   = "error"
)

type SyncMetrics struct {
	resolves metric.Int64Counter
	writes   metric.Int64Counter
	errors   metric.Int64Counter
	latency  metric.Float64Histogram
}

func NewSyncMetrics() *SyncMetrics {
	meter := otel.Meter("volunteer-sync/core")

	resolves, _ := meter.Int64Counter("sync.resolve.total",
		metric.WithDescription("Network-first reads by outcome"))
	writes, _ := meter.Int64Counter("sync.remote.write.total")
	errs, _ := meter.Int64Counter("sync.remote.errors.total")
	latency, _ := meter.Float64Histogram("sync.remote.duration.ms")

	return &SyncMetrics{resolves: resolves, writes: writes, errors: errs, latency: latency}
}

func (m *SyncMetrics) Resolved(ctx context.Context, key string, outcome string) {
	m.resolves.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.key_kind", keyKind(key)),
		attribute.String("sync.outcome", outcome),
	))
}

func (m *SyncMetrics) Observe(ctx context.Context, op string, start time.Time, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("remote.operation", op), // ej: "create_event", "update_event"
	}

	m.writes.Add(ctx, 1, metric.WithAttributes(attrs...))

	ms := float64(time.Since(start).Milliseconds())
	m.latency.Record(ctx, ms, metric.WithAttributes(attrs...))

	if err != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func keyKind(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}

	return key
}

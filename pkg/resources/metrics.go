package resources

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type HTTPMetrics struct {
	reqs     metric.Int64Counter
	inflight metric.Int64UpDownCounter
	latency  metric.Float64Histogram
}

func NewHTTPMetrics(name string) *HTTPMetrics {
	meter := otel.Meter(name)

	reqs, _ := meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("HTTP requests"),
	)
	inflight, _ := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("HTTP requests being served"),
	)
	latency, _ := meter.Float64Histogram(
		"http.server.duration.ms",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)

	return &HTTPMetrics{reqs: reqs, inflight: inflight, latency: latency}
}

func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()

		m.inflight.Add(ctx, 1)
		defer m.inflight.Add(ctx, -1)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		status := c.Writer.Status()

		attrs := []attribute.KeyValue{
			attribute.String("http.route", route),
			attribute.String("http.method", c.Request.Method),
			attribute.Int("http.status_code", status),
			attribute.String("http.status_class", strconv.Itoa(status/100)+"xx"),
			attribute.String("sync.source", c.Writer.Header().Get("X-Data-Source")),
		}

		m.reqs.Add(ctx, 1, metric.WithAttributes(attrs...))
		m.latency.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))
	}
}

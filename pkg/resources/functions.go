package resources

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"volunteer-sync/pkg/store"
)

const (
	DriverMemory   = "memory"
	DriverBolt     = "bbolt"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type StopFn func(ctx context.Context, timeout time.Duration)

func noopStop(context.Context, time.Duration) {}

// CreateTelemetry installs OTLP trace, metric and log providers.
func CreateTelemetry(ctx context.Context, endpoint string) (StopFn, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	traceExp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return noopStop, fmt.Errorf("failed to create the OTLP trace exporter: %w", err)
	}

	metricExp, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return noopStop, fmt.Errorf("failed to create the OTLP metric exporter: %w", err)
	}

	logExp, err := otlploggrpc.New(ctx,
		otlploggrpc.WithEndpoint(endpoint),
		otlploggrpc.WithInsecure(),
	)
	if err != nil {
		return noopStop, fmt.Errorf("failed to create the OTLP log exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)))
	lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	global.SetLoggerProvider(lp)

	return func(ctx context.Context, timeout time.Duration) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx), lp.Shutdown(ctx))
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("stage", "shut down").Str("component", "telemetry").Msg("failed to flush telemetry")
		}
	}, nil
}

func CreateDatabaseConnectionPool(ctx context.Context) (*pgxpool.Pool, error) {
	//nolint:nosprintfhostport
	cfg, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		viper.GetString("DB_USER"), viper.GetString("DB_PASSWORD"),
		viper.GetString("DB_HOST"), viper.GetString("DB_PORT"), viper.GetString("DB_NAME")))
	if err != nil {
		log.Error().Err(err).Msg("unable to parse database connection string")
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}

	cfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("unable to connect to database")
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		log.Error().Err(err).Msg("unable to ping database")

		return nil, fmt.Errorf("failed to ping to database: %w", err)
	}

	return pool, nil
}

// CreateStore opens the persistent store backing the cache mirror.
func CreateStore(ctx context.Context, driver string, path string) (store.Closable, error) {
	switch driver {
	case DriverMemory:
		return store.NewMemory(), nil
	case DriverBolt, DriverSQLite:
		err := os.MkdirAll(filepath.Dir(path), 0o700)
		if err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}

		if driver == DriverBolt {
			return store.OpenBolt(path)
		}

		return store.OpenSQLite(path)
	case DriverPostgres:
		pool, err := CreateDatabaseConnectionPool(ctx)
		if err != nil {
			return nil, err
		}

		pg := store.NewPostgres(pool)

		err = pg.Migrate(ctx)
		if err != nil {
			_ = pg.Close()
			return nil, err
		}

		return pg, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}

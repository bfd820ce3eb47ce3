package main

import (
	"context"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qmdx00/lifecycle"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"volunteer-sync/core"
	"volunteer-sync/pkg/resources"
	"volunteer-sync/pkg/servers"
)

func main() {
	name, version := "volunteer-sync", "1.0"

	// 1. Logger
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", name).Logger()
	zerolog.DefaultContextLogger = &log.Logger

	ctx := log.Logger.WithContext(context.Background())
	startupLogger := log.Ctx(ctx).With().Str("stage", "startup").Str("component", "main").Logger()
	shutdownLogger := log.Ctx(ctx).With().Str("stage", "shut down").Str("component", "main").Logger()

	startupLogger.Info().Msg("application starting up")
	defer shutdownLogger.Info().Msg("application stopped")

	// 2. Config
	cfg, err := resources.LoadConfig()
	if err != nil {
		startupLogger.Fatal().Err(err).Msg("unable to load configuration")
	}

	zerolog.SetGlobalLevel(cfg.LogLevel)

	// 3. Telemetry (traces/metrics/logs), zerolog bridged to OTel logs
	if cfg.OtelEnabled {
		stopFn, err := resources.CreateTelemetry(ctx, cfg.OtelEndpoint)
		if err != nil {
			startupLogger.Fatal().Err(err).Msg("unable to setup otel telemetry")
		}
		defer stopFn(ctx, 15*time.Second)

		log.Logger = log.Logger.Hook(resources.NewZerologHook(name, version))
		ctx = log.Logger.WithContext(ctx)
	}

	// 4. Cache store
	cacheStore, err := resources.CreateStore(ctx, cfg.StoreDriver, cfg.StorePath)
	if err != nil {
		startupLogger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("unable to open cache store")
	}

	// 5. Wiring
	metrics := core.NewSyncMetrics()
	cache := core.NewCache(cacheStore)
	remote := core.NewAPIClient(cfg.APIBaseURL, cfg.APITimeout)
	repo := core.NewRepository(remote, cache, metrics, core.WithCreateAttempts(cfg.APICreateAttempts, 250*time.Millisecond))
	coordinator := core.NewCoordinator(repo, cache)
	handlers := core.NewHandlers(repo, coordinator, cache)

	// 6. Servers
	gin.SetMode(gin.ReleaseMode)

	restHandler := gin.New()
	restHandler.Use(gin.Recovery())
	restHandler.Use(otelgin.Middleware(name))
	restHandler.Use(resources.NewHTTPMetrics(name).Middleware())

	restHandler.GET("/events", handlers.GetEvents)
	restHandler.GET("/events/:id", handlers.GetEvent)
	restHandler.POST("/events", handlers.PostEvents)
	restHandler.POST("/events/:id/volunteers", handlers.PostVolunteers)
	restHandler.GET("/users/:id", handlers.GetUser)
	restHandler.POST("/login", handlers.PostLogin)
	restHandler.DELETE("/cache", handlers.DeleteCache)

	debugHandler := http.NewServeMux()
	debugHandler.HandleFunc("/debug/pprof/", pprof.Index)
	debugHandler.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	debugHandler.HandleFunc("/debug/pprof/profile", pprof.Profile)
	debugHandler.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	debugHandler.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// 7. Lifecycle
	app := lifecycle.NewApp(
		lifecycle.WithName(name),
		lifecycle.WithVersion(version),
	)

	app.Attach(servers.BuildBaseServer())
	app.Attach(servers.BuildHttpServer("debug-server", servers.NewServer("localhost", cfg.DebugPort, debugHandler)))
	app.Attach(servers.BuildHttpServer("rest-server", servers.NewServer(cfg.HTTPHost, cfg.HTTPPort, restHandler)))

	startupLogger.Info().Str("api", cfg.APIBaseURL).Str("store", cfg.StoreDriver).Msg("application running")

	// 8. Blocks until SIGINT/SIGTERM or a server fails
	err = servers.RunThenClose(ctx, app.Run, cacheStore)
	if err != nil {
		shutdownLogger.Error().Err(err).Msg("runtime error")
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/justinas/alice"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lukastechs/twitch-ban/internal/bancheck"
	"github.com/lukastechs/twitch-ban/internal/cache"
	"github.com/lukastechs/twitch-ban/internal/config"
	"github.com/lukastechs/twitch-ban/internal/observe"
	"github.com/lukastechs/twitch-ban/internal/ratelimit"
	"github.com/lukastechs/twitch-ban/internal/server"
	"github.com/lukastechs/twitch-ban/internal/twitch"
)

func configureServerRoutes(ctx context.Context, cfg config.Config, hooks *server.ShutdownHooks) (http.Handler, error) {
	// wrap a mux such that HTTP telemetry is configured by default
	muxWithoutTelemetry := http.NewServeMux()
	mux := observe.NewMux(muxWithoutTelemetry)

	// The request body size is fairly limited to prevent accidental or
	// deliberate abuse. Given the current API shape, this is not configurable.
	requestLimitBytes := int64(20 << 10) // 20 KB
	requestLimiter := maxRequestSize(requestLimitBytes)

	// the API is for browsers on any origin; the response carries no
	// credentials or per-client state
	corsRelaxed := cors.Default().Handler

	apiRouteMiddleware := alice.New(requestID, requestLogger, requestLimiter, corsRelaxed)
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window())
		apiRouteMiddleware = apiRouteMiddleware.Append(limiter.Middleware())
	}
	standardRouteMiddleware := alice.New(requestLimiter)

	// setup the ban status finder and its dependencies
	tw, err := twitch.New(cfg.Twitch, http.DefaultTransport)
	if err != nil {
		return nil, fmt.Errorf("twitch configuration failed: %w", err)
	}

	tokens := twitch.NewTokenSource(tw, cfg.Twitch.TokenExpiryBuffer())

	memory, err := cache.NewMemory[bancheck.Status](cfg.Cache.ResultTTL(), cfg.Cache.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("result cache configuration failed: %w", err)
	}
	store := cache.NewInstrumented[bancheck.Status](memory, "memory")
	hooks.Add("result-cache", store.Close)

	findStatus := bancheck.Cached(store)(bancheck.NewFinder(tokens, tw))

	mux.Handle("GET /api/twitch/{username}", apiRouteMiddleware.Then(handleGetBanStatus(findStatus)))

	// liveness and health are not included in telemetry or rate limiting
	muxWithoutTelemetry.Handle("GET /{$}", standardRouteMiddleware.Then(handleRoot()))
	muxWithoutTelemetry.Handle("GET /health", standardRouteMiddleware.Then(handleHealthCheck(store, time.Now())))

	return mux, nil
}

func main() {
	configureLogging()

	logBuildInfo()

	err := launchServer()
	if err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}

func launchServer() error {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("configuration load failed: %w", err)
	}

	hooks := server.ShutdownHooks{}

	// configure telemetry, including wrapping default HTTP client
	shutdownTelemetry, err := observe.Configure(ctx, cfg.Observe)
	if err != nil {
		return fmt.Errorf("telemetry bootstrap failed: %w", err)
	}

	http.DefaultTransport = observe.HTTPTransport(
		configureHTTPTransport(cfg.Server),
		cfg.Observe,
	)
	http.DefaultClient = &http.Client{
		Transport: http.DefaultTransport,
	}

	// setup routing and dependencies
	handler, err := configureServerRoutes(ctx, cfg, &hooks)
	if err != nil {
		return fmt.Errorf("server routing configuration failed: %w", err)
	}

	// telemetry flushes last, after the shutdown of anything that reports it
	hooks.AddContext("telemetry", shutdownTelemetry)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		MaxHeaderBytes:    20 << 10,         // 20 KB
		ReadHeaderTimeout: 20 * time.Second, // Prevent Slowloris attacks
	}

	err = server.Serve(ctx, cfg.Server, httpServer, &hooks)
	if err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func configureLogging() {
	// Set global level to the minimum: allows the Open Telemetry logging to be
	// configured separately. However, it means that any logger that sets its
	// level will log as this effectively disables the global level.
	zerolog.SetGlobalLevel(zerolog.Level(-128))

	// default level is Info
	log.Logger = log.Level(zerolog.InfoLevel)

	if os.Getenv("ENV") == "development" {
		log.Logger = log.
			Output(zerolog.ConsoleWriter{Out: os.Stdout}).
			Level(zerolog.DebugLevel)
	}

	zerolog.DefaultContextLogger = &log.Logger
}

func logBuildInfo() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	ev := log.Info()
	for _, v := range buildInfo.Settings {
		if strings.HasPrefix(v.Key, "vcs.") ||
			strings.HasPrefix(v.Key, "GO") ||
			v.Key == "CGO_ENABLED" {
			ev = ev.Str(v.Key, v.Value)
		}
	}

	ev.Msg("build information")
}

func configureHTTPTransport(cfg config.ServerConfig) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	transport.MaxIdleConns = cfg.OutgoingHTTPMaxIdleConns
	transport.MaxConnsPerHost = cfg.OutgoingHTTPMaxConnsPerHost

	return transport
}

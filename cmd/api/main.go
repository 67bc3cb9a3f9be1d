// Package main is the entrypoint for the docstream data-layer server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/docstream/docstream/internal/changefeed"
	"github.com/docstream/docstream/internal/config"
	"github.com/docstream/docstream/internal/handler"
	"github.com/docstream/docstream/internal/method"
	"github.com/docstream/docstream/internal/metrics"
	"github.com/docstream/docstream/internal/middleware"
	"github.com/docstream/docstream/internal/query"
	"github.com/docstream/docstream/internal/seed"
	"github.com/docstream/docstream/internal/server"
	"github.com/docstream/docstream/internal/store"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize document store
	docs, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer docs.Close()
	logger.Info("connected to document store")

	if err := docs.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	// Initialize change feed
	metricsRecorder := metrics.NewNoop()
	feed, err := changefeed.New(ctx, cfg.RedisURL, logger, metricsRecorder)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer feed.Close()
	logger.Info("connected to change feed")

	// Seed bootstrap data. Missing seed rows are a product bug, so a
	// failure here is fatal for startup.
	if cfg.SeedOnStart {
		if err := seed.Run(ctx, docs, logger); err != nil {
			logger.Error("seeding failed", "error", err)
			os.Exit(1)
		}
	}

	// Build the registration tables once; they are immutable afterwards.
	users := method.NewUsers(docs, feed, metricsRecorder, logger)
	methodRegistry, err := method.NewRegistry(users.Methods()...)
	if err != nil {
		logger.Error("failed to build method registry", "error", err)
		os.Exit(1)
	}

	queryRegistry, err := query.NewRegistry(append(
		query.NewUsers(docs).Definitions(),
		query.NewLinks(docs).Definitions()...,
	)...)
	if err != nil {
		logger.Error("failed to build query registry", "error", err)
		os.Exit(1)
	}

	logger.Info("registries built",
		"methods", methodRegistry.Names(),
		"subscriptions", queryRegistry.Names(),
	)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(docs, feed)
	rpcHandler := handler.NewRPCHandler(methodRegistry, logger)
	subscriptionHandler := handler.NewSubscriptionHandler(queryRegistry, logger)

	// Setup router
	r := setupRouter(h, healthHandler, rpcHandler, subscriptionHandler, cfg, logger)

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	rpcHandler *handler.RPCHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Root info endpoint
	r.Get("/", h.Hello)

	apiKeyCfg := middleware.APIKeyConfig{
		Logger:  logger,
		KeyHash: cfg.APIKeyHash,
	}

	// Method and subscription surface
	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKey(apiKeyCfg))

		r.Post("/rpc/{method}", rpcHandler.Call)
		r.Get("/subscriptions/{name}", subscriptionHandler.Snapshot)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}

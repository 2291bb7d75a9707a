// Package main is the entrypoint for the memopad API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/memopad/memopad/internal/auth"
	"github.com/memopad/memopad/internal/cache"
	"github.com/memopad/memopad/internal/config"
	"github.com/memopad/memopad/internal/handler"
	"github.com/memopad/memopad/internal/metrics"
	"github.com/memopad/memopad/internal/middleware"
	"github.com/memopad/memopad/internal/repository"
	"github.com/memopad/memopad/internal/server"
	"github.com/memopad/memopad/internal/service"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Apply schema migrations
	if cfg.MigrateOnStart {
		if err := repository.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			logger.Error(
				"failed to apply migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("migrations_path", cfg.MigrationsPath),
			)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize cache
	cacheOpts := cache.DefaultOptions()
	cacheOpts.KeyPrefix = cfg.RedisKeyPrefix
	cacheClient, err := cache.New(ctx, cfg.RedisURL, cacheOpts)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// Sessions
	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionIssuer, cfg.SessionTTL)
	resolver := auth.NewResolver(sessions, cacheClient, repo, cfg.SessionCookieName, logger)

	// Initialize services
	recorder := metrics.NewPrometheus("memopad")
	memoService := service.NewMemoService(repo, recorder)
	accountService := service.NewAccountService(repo, recorder)

	r := setupRouter(routerDeps{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
		sessions: sessions,
		limiter:  cacheClient,
		metrics:  recorder,
		memos:    memoService,
		accounts: accountService,
		db:       repo,
		cache:    cacheClient,
	})

	// Create and run server
	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"version", version,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
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

// routerDeps carries everything the router wires together.
type routerDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	resolver *auth.Resolver
	sessions *auth.SessionManager
	limiter  middleware.SignInLimiter
	metrics  *metrics.PrometheusRecorder
	memos    *service.MemoService
	accounts *service.AccountService
	db       handler.HealthChecker
	cache    handler.HealthChecker
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	cfg := d.cfg
	r := chi.NewRouter()

	h := handler.New(version)
	healthHandler := handler.NewHealthHandler(d.db, d.cache, d.logger)
	memoHandler := handler.NewMemoHandler(d.memos, d.resolver, d.logger)
	authHandler := handler.NewAuthHandler(d.accounts, d.sessions, d.resolver, handler.AuthConfig{
		CookieSecure: cfg.SessionCookieSecure,
		SignInPath:   cfg.SignInPath,
	}, d.logger)
	debugHandler := handler.NewDebugHandler(cfg)

	metricsHandler := handler.NewMetricsHandler(d.metrics.Handler())

	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.HSTS = cfg.IsProduction()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	// Validated by config.Load.
	trustedProxies, _ := cfg.GetTrustedProxies()

	// Global middleware
	r.Use(middleware.TrustedRealIP(trustedProxies))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger, cfg.IsDevelopment()))
	r.Use(middleware.Security(securityCfg))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	r.Use(middleware.Guard(middleware.GuardConfig{
		Resolver:   d.resolver,
		SignInPath: cfg.SignInPath,
		Logger:     d.logger,
		Metrics:    d.metrics,
	}))

	// Health and metrics endpoints
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	// Landing page (guarded)
	r.Get("/", h.Home)

	// Sign-in page (public)
	r.Get("/auth/signin", authHandler.SignInPage)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  d.logger,
		Limiter: d.limiter,
		Metrics: d.metrics,
		Enabled: cfg.RateLimitSignInEnabled,
		PerMin:  cfg.RateLimitSignInPerMin,
		Burst:   cfg.RateLimitSignInBurst,
	}

	// Identity endpoints (public)
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.SignUp)
		r.With(middleware.RateLimitSignIn(rateLimitCfg)).Post("/signin", authHandler.SignIn)
		r.Post("/signout", authHandler.SignOut)
		r.Get("/session", authHandler.Session)
	})

	// Memo CRUD (guarded)
	r.Route("/api/memos", func(r chi.Router) {
		r.Get("/", memoHandler.List)
		r.Post("/", memoHandler.Create)
		r.Put("/{id}", memoHandler.Update)
		r.Delete("/{id}", memoHandler.Delete)
	})

	// Diagnostics, hidden in production
	r.Get("/api/debug/env", debugHandler.Env)

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

// Package main is the entrypoint for the Taskmanager API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/taskmanager/taskmanager/internal/auth"
	"github.com/taskmanager/taskmanager/internal/cache"
	"github.com/taskmanager/taskmanager/internal/config"
	"github.com/taskmanager/taskmanager/internal/events"
	"github.com/taskmanager/taskmanager/internal/handler"
	"github.com/taskmanager/taskmanager/internal/metrics"
	"github.com/taskmanager/taskmanager/internal/middleware"
	"github.com/taskmanager/taskmanager/internal/migrate"
	"github.com/taskmanager/taskmanager/internal/repository"
	"github.com/taskmanager/taskmanager/internal/server"
	"github.com/taskmanager/taskmanager/internal/service"
	"github.com/taskmanager/taskmanager/migrations"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	if cfg.MigrateOnStart {
		if err := runMigrations(ctx, cfg.DatabaseURL, logger); err != nil {
			logger.Error("failed to apply migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
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

	recorder := metrics.NewPrometheus()
	hasher := auth.NewHasher(auth.DefaultParams)
	deps := []handler.Dependency{{Name: "postgres", Checker: repo}}

	var (
		taskOpts    []service.TaskServiceOption
		taskCache   service.TaskCache
		limiter     middleware.IPLimiter
		cacheClient *cache.Cache
		publisher   *events.Publisher
	)

	// Redis is optional; without it the cache, rate limiter and event stream stay off.
	if cfg.RedisEnabled() {
		cacheClient, err = cache.New(ctx, cfg.RedisURL, cfg.TaskCacheTTL)
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

		publisher = events.NewPublisher(cacheClient.Client(), logger, recorder)
		taskCache = cacheClient
		limiter = cacheClient
		taskOpts = append(taskOpts,
			service.WithTaskCache(cacheClient),
			service.WithEventPublisher(publisher),
		)
		deps = append(deps, handler.Dependency{Name: "redis", Checker: cacheClient})
	} else {
		logger.Warn("REDIS_URL not set; task cache, rate limiting and events disabled")
	}

	// Initialize services
	taskService := service.NewTaskService(repo, recorder, logger, taskOpts...)
	userService := service.NewUserService(repo, hasher, taskCache, recorder, logger)

	// Setup router
	r := handler.NewRouter(handler.RouterConfig{
		Logger:         logger,
		Tasks:          taskService,
		Users:          userService,
		Health:         handler.NewHealthHandler(deps...),
		Metrics:        recorder,
		MetricsHandler: recorder.Handler(),
		IsDevelopment:  cfg.IsDevelopment(),
		MaxBodySize:    cfg.MaxRequestBodySize,
		AllowedOrigins: cfg.GetCORSAllowedOrigins(),
		RateLimit: middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: limiter,
			Enabled: cfg.RateLimitEnabled,
			RPS:     cfg.RateLimitRPS,
			Burst:   cfg.RateLimitBurst,
		},
	})

	// Create and run server
	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Hooks run last-registered first: events drain, then Redis, then Postgres.
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
		srv.OnShutdown("events", publisher.Close)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"redis", cfg.RedisEnabled(),
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
		Level: cfg.SlogLevel(),
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

// runMigrations applies pending migrations over a short-lived database/sql connection.
func runMigrations(ctx context.Context, databaseURL string, logger *slog.Logger) error {
	db, err := migrate.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := migrate.New(db, migrations.FS, logger)
	if err != nil {
		return err
	}
	applied, err := m.Up(ctx)
	if err != nil {
		return err
	}
	logger.Info("migrations applied", "count", applied)
	return nil
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

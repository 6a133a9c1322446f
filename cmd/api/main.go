// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Inkwell HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire the story and chapter engines.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/inkwell/internal/api"
	"github.com/taibuivan/inkwell/internal/core/chapter"
	"github.com/taibuivan/inkwell/internal/core/entitlement"
	"github.com/taibuivan/inkwell/internal/core/story"
	"github.com/taibuivan/inkwell/internal/platform/config"
	"github.com/taibuivan/inkwell/internal/platform/constants"
	"github.com/taibuivan/inkwell/internal/platform/migration"
	pgstore "github.com/taibuivan/inkwell/internal/platform/postgres"
	redisstore "github.com/taibuivan/inkwell/internal/platform/redis"
	"github.com/taibuivan/inkwell/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := newLogger(slog.LevelInfo)
	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("moderation_policy", cfg.ModerationPolicy),
	)

	policy, err := chapter.ParseModerationPolicy(cfg.ModerationPolicy)
	must(log, err, "parse moderation policy")

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, redisstore.Options{
		URL:              cfg.RedisURL,
		PoolSize:         cfg.RedisPoolSize,
		OperationTimeout: cfg.RedisTimeout,
	}, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token verification ─────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Health handlers ────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(context context.Context) error {
			return pgstore.Ping(context, pool)
		},
		CheckCache: func(context context.Context) error {
			return redisstore.Ping(context, rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	ledger := entitlement.NewCachedLedger(
		entitlement.NewPostgresLedger(pool),
		entitlement.NewRedisCache(rdb),
		cfg.EntitlementCacheTTL,
		log,
	)

	storyRepository := story.NewPostgresRepository(pool)
	storyService := story.NewService(storyRepository, log)

	chapterRepository := chapter.NewPostgresRepository(pool)
	chapterService := chapter.NewService(chapterRepository, storyRepository, chapter.NewResolver(ledger, policy), log)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	server := api.NewServer(rootCtx, cfg, log, tokens, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Story:     story.NewHandler(storyService),
		Chapter:   chapter.NewHandler(chapterService),
	})

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	log.Info("server_shutting_down", slog.Duration("timeout", constants.ShutdownTimeout))

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped")
}

// newLogger builds the JSON logger tagged with the application name and sets it as default.
func newLogger(level slog.Level) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", "inkwell"))
	slog.SetDefault(log)
	return log
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, errors are returned and handled.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

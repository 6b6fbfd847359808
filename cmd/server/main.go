// Package main is the entrypoint for the SparkMetrics API server and its
// background processing worker.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kiranshivaraju/sparkmetrics/internal/analytics"
	"github.com/kiranshivaraju/sparkmetrics/internal/api"
	"github.com/kiranshivaraju/sparkmetrics/internal/api/handler"
	mw "github.com/kiranshivaraju/sparkmetrics/internal/api/middleware"
	"github.com/kiranshivaraju/sparkmetrics/internal/api/response"
	"github.com/kiranshivaraju/sparkmetrics/internal/cache"
	"github.com/kiranshivaraju/sparkmetrics/internal/config"
	"github.com/kiranshivaraju/sparkmetrics/internal/ingest"
	"github.com/kiranshivaraju/sparkmetrics/internal/metrics"
	"github.com/kiranshivaraju/sparkmetrics/internal/store"
	"github.com/kiranshivaraju/sparkmetrics/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env,
		"sweep_interval", cfg.Worker.SweepInterval.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Register metrics
	metrics.Register()

	// 6. Build services
	pgStore := store.NewPostgresStore(pool)
	analyticsSvc := analytics.NewService(pgStore, redisCache, cfg.Cache.TTL)
	processor := worker.NewProcessor(pgStore, analyticsSvc)
	runner := worker.NewRunner(processor, cfg.Worker)
	ingestSvc := ingest.NewService(pgStore, runner)

	// 7. Build router with dependencies
	deps := api.Dependencies{
		RateLimit: mw.NewRateLimit(redisCache, cfg.Ingest.RateLimitPerMin),

		HealthHandler:       healthHandler(pgStore, redisCache),
		IngestHandler:       handler.NewIngestHandler(ingestSvc),
		JobAnalyticsHandler: handler.NewJobAnalyticsHandler(analyticsSvc),
		DailySummaryHandler: handler.NewDailySummaryHandler(analyticsSvc),
		ProcessHandler:      handler.NewProcessHandler(processor, cfg.Worker.BatchSize),
	}

	router := api.NewRouter(deps)

	// 8. Run HTTP server and worker side by side
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := runner.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("worker error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, draining connections...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}

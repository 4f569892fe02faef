// Package main is the entrypoint for the segmentlens page server.
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

	"github.com/kiranshivaraju/segmentlens/internal/api"
	"github.com/kiranshivaraju/segmentlens/internal/api/handler"
	mw "github.com/kiranshivaraju/segmentlens/internal/api/middleware"
	"github.com/kiranshivaraju/segmentlens/internal/api/response"
	"github.com/kiranshivaraju/segmentlens/internal/cache"
	"github.com/kiranshivaraju/segmentlens/internal/config"
	"github.com/kiranshivaraju/segmentlens/internal/gateway"
	"github.com/kiranshivaraju/segmentlens/internal/store"
	"github.com/kiranshivaraju/segmentlens/internal/tab"
	"github.com/kiranshivaraju/segmentlens/internal/theme"
	"github.com/kiranshivaraju/segmentlens/pkg/models"
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
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "backend", cfg.Backend.BaseURL, "env", cfg.Server.Env)

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

	// 4. Session cache: Redis when configured, in-process otherwise
	sessionCache, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	// 5. Backend client and page state
	backend := gateway.NewHTTPClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	prefs := store.NewPostgresStore(pool)
	themes := theme.NewService(prefs, cfg.Theme.Default, slog.Default())
	tabs := tab.NewRegistry(tab.Deps{
		Caller:     backend,
		Cache:      sessionCache,
		Themes:     themes,
		SessionTTL: cfg.Session.TTL,
		MaxPages:   cfg.Session.MaxPages,
		Logger:     slog.Default(),
	})
	go sweepTabs(ctx, tabs, cfg.Session.PurgeInterval, cfg.Session.TTL)

	// 6. Build router with dependencies
	app := handler.NewApp(tabs, themes, slog.Default())
	deps := api.Dependencies{
		Identify:   mw.NewIdentify(cfg.Server.Env == "production"),
		RateLimit:  mw.NewRateLimit(sessionCache, cfg.RateLimit.PerMinute),
		TrustProxy: cfg.Server.TrustProxy,

		HealthHandler: healthHandler(prefs, sessionCache, backend),

		OpenHandler:        app.Open,
		StateHandler:       app.State,
		UploadHandler:      app.Upload,
		SampleHandler:      app.Sample,
		OptimalHandler:     app.Optimal,
		SelectKHandler:     app.SelectK,
		ClusterHandler:     app.Cluster,
		ViewResultsHandler: app.ViewResults,
		ExportHandler:      app.Export,
		ResetHandler:       app.Reset,
		SaveHandler:        app.Save,
		RestoreHandler:     app.Restore,
		HistoryHandler:     app.History,
		ResultsHandler:     app.Results,
		ChartsHandler:      app.Charts,
		SetThemeHandler:    app.SetTheme,
		ThemesHandler:      app.Themes,
	}

	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Backend.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

func openCache(ctx context.Context, cfg *config.Config) (cache.Cache, func(), error) {
	if cfg.Redis.URL == "" {
		slog.Info("using in-memory session cache")
		return cache.NewMemoryCache(cfg.Session.TTL, cfg.Session.PurgeInterval), func() {}, nil
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("create redis cache: %w", err)
	}
	if err := redisCache.Ping(ctx); err != nil {
		redisCache.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")
	return redisCache, func() { redisCache.Close() }, nil
}

// sweepTabs drops pages of tabs that went quiet until ctx is done.
func sweepTabs(ctx context.Context, tabs *tab.Registry, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := tabs.Sweep(idle); n > 0 {
				slog.Info("idle tabs swept", "count", n, "open", tabs.Len())
			}
		}
	}
}

// healthHandler checks database, cache and backend connectivity.
func healthHandler(s store.PreferenceStore, c cache.Cache, backend gateway.Caller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
			"backend":  "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}
		status := gateway.Call[models.BackendStatus](r.Context(), backend, gateway.Request{Endpoint: gateway.Status, Bare: true})
		if !status.OK() {
			checks["backend"] = "degraded"
		}

		for _, v := range checks {
			if v != "ok" {
				response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
					"One or more services degraded", checks)
				return
			}
		}

		response.JSON(w, map[string]any{
			"status":         "ok",
			"services":       checks,
			"backend_status": status.Value,
		})
	}
}

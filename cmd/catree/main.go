// Package main is the entry point for the catree category server.
// It loads configuration, connects to services, loads the category tree,
// sets up routing, and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catree/internal/cache"
	"catree/internal/config"
	"catree/internal/database"
	"catree/internal/handlers"
	"catree/internal/middleware"
	"catree/internal/router"
	"catree/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"cache", cfg.CacheEnabled(),
	)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed a sample tree in development (no-op if categories exist).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	categoryStore := store.NewCategoryStore(db)
	pageStore := store.NewPageStore(db)
	changeLog := store.NewChangeLogStore(db)

	if cfg.TombstoneDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -cfg.TombstoneDays)
		n, err := categoryStore.Purge(cutoff)
		if err != nil {
			slog.Error("failed to purge tombstones", "error", err)
			os.Exit(1)
		}
		slog.Info("tombstones purged", "count", n, "older_than", cutoff.Format(time.DateOnly))
	}

	t, err := categoryStore.LoadTree()
	if err != nil {
		slog.Error("failed to load category tree", "error", err)
		os.Exit(1)
	}
	slog.Info("category tree loaded", "categories", t.Len())

	// The path cache is optional; without Valkey every lookup walks the tree.
	var paths handlers.PathCache
	if cfg.CacheEnabled() {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()

		pathCache := cache.NewPathCache(valkeyClient, cache.DefaultPathTTL, cfg.PathSeparator)
		// Paths cached by a previous run may point at a different tree.
		pathCache.InvalidateAll(context.Background())
		paths = pathCache
	} else {
		slog.Warn("valkey not configured, path cache disabled")
	}

	var limiter *middleware.WriteLimiter
	if cfg.WriteLimit > 0 {
		limiter = middleware.NewWriteLimiter(cfg.WriteLimit, time.Minute)
		defer limiter.Stop()
	}

	api := handlers.NewAPI(t, categoryStore, pageStore, paths, changeLog, cfg.PathSeparator)
	r := router.New(api, limiter)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

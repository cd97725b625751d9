package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"sniper/internal/api"
	"sniper/internal/config"
	"sniper/internal/crawler"
	"sniper/internal/identity"
	"sniper/internal/monitoring"
	"sniper/internal/storage"
)

// Runs one full batch pass over all tracking targets, then exits.
// Scheduling recurring passes belongs to an external scheduler (cron).
func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	ctx := context.Background()

	// Initialize Storage Layer. The registry being unreachable is fatal:
	// there is nothing useful to do without it.
	pgStore, err := storage.NewPostgresStore(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to registry", zap.Error(err))
	}
	defer pgStore.Close()

	var redisStore *storage.RedisStore
	var cache crawler.CheckCache
	if cfg.RedisAddr != "" {
		redisStore = storage.NewRedisStore(cfg.RedisAddr)
		cache = redisStore
	}

	metrics := monitoring.NewMetrics()

	// Shared browser process for the whole batch; per-target tab contexts
	// are opened and torn down inside the run.
	browser := crawler.NewBrowser(cfg, logger)
	defer browser.Close()

	// Ops surface (health + metrics) for the duration of the run.
	server := api.NewServer(cfg, pgStore, redisStore, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("ops server stopped", zap.Error(err))
		}
	}()
	logger.Info("ops server started", zap.String("port", cfg.ServerPort))

	sniper := crawler.NewSniper(cfg, pgStore, cache, browser, identity.NewPicker(), metrics, logger)
	runErr := sniper.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server forced to shutdown", zap.Error(err))
	}

	if runErr != nil {
		logger.Fatal("batch run failed", zap.Error(runErr))
	}
	logger.Info("exiting")
}

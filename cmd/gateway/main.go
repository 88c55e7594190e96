package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"insight_gateway/internal/cache"
	"insight_gateway/internal/config"
	"insight_gateway/internal/httpapi"
	"insight_gateway/internal/llm"
	"insight_gateway/internal/monitoring"
	"insight_gateway/internal/providers"
	"insight_gateway/internal/queue"
	"insight_gateway/internal/ratelimit"
	"insight_gateway/internal/services"
	"insight_gateway/internal/settings"
	"insight_gateway/internal/storage"
	"insight_gateway/internal/utils"
)

func main() {
	// .env is optional; real deployments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger("GATEWAY")
	ctx := context.Background()

	// Document store. When not configured, settings fall back to the file
	// repository and cache / rate limiting / monitoring run in memory.
	var db *storage.Mongo
	db, err = storage.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		if !errors.Is(err, storage.ErrNotConfigured) {
			log.Fatalf("Failed to connect to document store: %v", err)
		}
		logger.Warn("document store not configured, using in-process storage")
		db = nil
	}

	// Repositories are selected once here, not per request
	var settingsRepo settings.Repository
	var cacheStore cache.Store
	var limitStore ratelimit.Store
	var monitorStore monitoring.Store
	if db != nil {
		settingsRepo = settings.NewMongoRepository(db)
		cacheStore = cache.NewMongoStore(db)
		limitStore = ratelimit.NewMongoStore(db)
		monitorStore = monitoring.NewMongoStore(db)
	} else {
		settingsRepo = settings.NewFileRepository(cfg.Settings.DataDir)
		cacheStore = cache.NewMemoryStore()
		limitStore = ratelimit.NewMemoryStore()
		monitorStore = monitoring.NewMemoryStore()
	}

	settingsSvc := settings.NewService(settingsRepo, nil)
	flags := settings.NewFlagService(settingsSvc, nil)
	cacheSvc := cache.NewService(cacheStore, nil)
	limiter := ratelimit.NewLimiter(limitStore, nil)

	// Monitoring entries go through a queue so logging never adds storage
	// latency to a request. Redis keeps the buffer across restarts.
	queueCfg := queue.DefaultConfig("monitoring")
	var logQueue queue.Queue
	if cfg.Redis.Address != "" {
		queueCfg.RedisAddr = cfg.Redis.Address
		queueCfg.RedisPassword = cfg.Redis.Password
		queueCfg.RedisDB = cfg.Redis.DB
		queueCfg.RedisDialTimeout = cfg.Redis.DialTimeout
		queueCfg.RedisReadTimeout = cfg.Redis.ReadTimeout
		queueCfg.RedisWriteTimeout = cfg.Redis.WriteTimeout
		logQueue, err = queue.NewRedisQueue(queueCfg)
		if err != nil {
			log.Fatalf("Failed to create monitoring queue: %v", err)
		}
	} else {
		logQueue = queue.NewMemoryQueue(queueCfg)
	}

	monitorSvc := monitoring.NewService(logQueue, monitorStore, nil)
	worker := monitoring.NewWorker(logQueue, monitorStore, queueCfg, nil)
	worker.Start(ctx)

	registry := make(map[settings.ProviderKind]providers.AIProvider)
	if cfg.Provider.GeminiAPIKey != "" {
		registry[settings.ProviderGemini] = providers.NewGemini(cfg.Provider.GeminiAPIKey, cfg.Provider.RequestTimeout, nil)
	}
	if cfg.Provider.GroqAPIKey != "" {
		registry[settings.ProviderGroq] = providers.NewGroq(cfg.Provider.GroqAPIKey, cfg.Provider.RequestTimeout, nil)
	}

	orchestrator := llm.NewOrchestrator(
		registry,
		settingsSvc,
		monitorSvc,
		llm.RetryPolicy{
			MaxAttempts: cfg.Provider.MaxAttempts,
			Backoff:     cfg.Provider.RetryBackoff,
			Sleep:       time.Sleep,
		},
		cfg.Provider.RequestTimeout,
		nil,
	)

	deps := &httpapi.Dependencies{
		AI:          services.NewService(orchestrator, flags, cacheSvc, nil),
		Settings:    settingsSvc,
		Flags:       flags,
		Monitoring:  monitorSvc,
		RateLimiter: limiter,
		Logger:      logger,
	}

	// Background maintenance: cache expiry sweep and monitoring retention
	sweepCtx, stopSweepers := context.WithCancel(ctx)
	go runPeriodic(sweepCtx, cfg.Maintenance.CacheSweepInterval, func() {
		cacheSvc.Cleanup(sweepCtx)
	})
	go runPeriodic(sweepCtx, cfg.Maintenance.LogSweepInterval, func() {
		monitorSvc.Cleanup(sweepCtx, cfg.Maintenance.LogRetentionDays)
	})

	mux := httpapi.NewRouter(cfg, deps)
	addr := ":" + cfg.HTTPPort
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}

	stopSweepers()
	worker.Stop()
	_ = logQueue.Close()
	if db != nil {
		_ = db.Close(shutdownCtx)
	}

	logger.Info("server exited")
}

func runPeriodic(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

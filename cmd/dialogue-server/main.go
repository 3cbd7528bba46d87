// cmd/dialogue-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pizzatalk/internal/common/config"
	"pizzatalk/internal/common/logger"
	"pizzatalk/internal/dialogue"
	"pizzatalk/internal/gateway"
	"pizzatalk/internal/nlu"
	"pizzatalk/internal/response"
	"pizzatalk/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting dialogue server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init Redis cache (optional) with retry ---
	var cache *gateway.Cache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		err = retryWithBackoff(func() error {
			return rdb.Ping(ctx).Err()
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		zapLog.Info("Redis connected successfully")

		cache = gateway.NewCache(rdb, config.GetDuration(cfg.Redis.CacheTTL), log)
	}

	// --- Init backend and model clients ---
	backend := gateway.NewClient(
		cfg.Backend.BaseURL,
		cfg.Backend.StoreID,
		config.GetDuration(cfg.Backend.Timeout),
		cache,
		log,
	)

	models := nlu.NewRemoteModels(cfg.NLU.BaseURL, config.GetDuration(cfg.NLU.Timeout), log)

	store, err := response.NewStore(cfg.Templates.Path, cfg.Templates.Seed, log)
	if err != nil {
		zapLog.Fatal("template store load failed", zap.Error(err))
	}

	manager := dialogue.NewManager(models, models, models, backend, store, log)
	chat := server.New(manager, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      chat.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("Chat server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("chat server failed", zap.Error(err))
		}
	}()

	// --- Metrics Server ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := http.ListenAndServe(cfg.Server.MetricsAddress, nil); err != nil {
			zapLog.Error("Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down chat server", zap.Error(err))
	}

	zapLog.Info("Dialogue server stopped gracefully")
}

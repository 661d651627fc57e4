// cmd/recommendation-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"venue-recommender/internal/api"
	"venue-recommender/internal/common/camunda"
	"venue-recommender/internal/common/config"
	"venue-recommender/internal/common/database"
	"venue-recommender/internal/common/genai"
	"venue-recommender/internal/common/logger"
	"venue-recommender/internal/common/metrics"
	"venue-recommender/internal/common/observability"
	venuestore "venue-recommender/internal/workers/data-access/venue-store"
	gr "venue-recommender/internal/workers/recommendation/get-recommendations"
	"venue-recommender/pkg/registry"
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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuilt with the configured level and sink.
	zapLog = logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting recommendation service...",
		zap.String("environment", cfg.App.Environment),
		zap.String("store", cfg.Recommendation.Store),
		zap.String("genaiProvider", cfg.APIs.GenAI.Provider),
	)

	ctx := context.Background()

	// --- Observability ---
	obs := observability.New(cfg.App.Name, nil, log)
	if cfg.Tracing.Enabled {
		tracing, err := observability.NewTracing(cfg.App.Name, cfg.Tracing.JaegerEndpoint, cfg.Tracing.SampleRatio)
		if err != nil {
			zapLog.Warn("tracing disabled", zap.Error(err))
		} else {
			obs.WithTracing(tracing, cfg.App.Name)
		}
	}

	// --- Venue store ---
	var backends venuestore.Backends
	var probes []database.Pinger

	switch cfg.Recommendation.Store {
	case config.StorePostgres:
		err = retryWithBackoff(func() error {
			var err error
			backends.Postgres, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return backends.Postgres.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer backends.Postgres.Close()
		probes = append(probes, backends.Postgres)
		zapLog.Info("PostgreSQL connected successfully")

	case config.StoreElasticsearch:
		err = retryWithBackoff(func() error {
			var err error
			backends.Elasticsearch, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return backends.Elasticsearch.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		probes = append(probes, backends.Elasticsearch)
		zapLog.Info("Elasticsearch connected successfully")
	}

	store, err := venuestore.New(cfg.Recommendation, backends)
	if err != nil {
		zapLog.Fatal("venue store init failed", zap.Error(err))
	}

	// --- Completion cache (optional) ---
	var rdb *redis.Client
	if cfg.Database.Redis.Address != "" {
		redisClient := database.NewRedis(cfg.Database.Redis)
		if err := redisClient.Ping(ctx); err != nil {
			zapLog.Warn("redis unreachable, completion cache disabled", zap.Error(err))
			_ = redisClient.Close()
		} else {
			defer redisClient.Close()
			rdb = redisClient.Client
			probes = append(probes, redisClient)
			zapLog.Info("Redis connected successfully")
		}
	}

	completer, err := genai.New(ctx, cfg.APIs.GenAI, rdb, metrics.ObserveBreaker, log)
	if err != nil {
		zapLog.Fatal("completion client init failed", zap.Error(err))
	}

	// --- Pipeline ---
	activities, err := registry.LoadRegistry(cfg.App.RegistryPath)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err), zap.String("path", cfg.App.RegistryPath))
	}
	activity, ok := activities.Find(gr.TaskType)
	if !ok {
		zapLog.Warn("no registry entry for task type, job input schema disabled", zap.String("taskType", gr.TaskType))
	}

	handlerConfig := gr.ConfigFrom(cfg)
	if err := handlerConfig.Validate(); err != nil {
		zapLog.Fatal("invalid recommendation config", zap.Error(err))
	}
	handler, err := gr.NewHandler(gr.HandlerOptions{
		Config:        handlerConfig,
		Store:         store,
		Completer:     completer,
		Observability: obs,
		Activity:      activity,
		Logger:        log,
	})
	if err != nil {
		zapLog.Fatal("recommendation handler init failed", zap.Error(err))
	}

	// --- Job worker (optional) ---
	var jobWorker *camunda.CamundaWorker
	var zeebeClient *camunda.Client
	if cfg.Camunda.BrokerAddress != "" && handlerConfig.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebeClient, err = camunda.NewClient(camunda.ConfigFrom(cfg.Camunda))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		probes = append(probes, zeebeClient)

		wcfg := config.GetWorkerConfig(cfg, gr.TaskType)
		jobWorker = camunda.NewWorker(zeebeClient.GetClient(), gr.TaskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, handler, log)
		jobWorker.Start()
	} else {
		zapLog.Info("job worker disabled", zap.String("taskType", gr.TaskType))
	}

	// --- HTTP server ---
	router := api.NewRouter(api.Options{
		Recommender:    handler,
		Backends:       probes,
		RequestTimeout: handlerConfig.Timeout,
		Logger:         log,
	})
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router.Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	if jobWorker != nil {
		jobWorker.Stop(shutdownCtx)
	}
	if zeebeClient != nil {
		if err := zeebeClient.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	obs.Shutdown(shutdownCtx)

	zapLog.Info("Recommendation service stopped gracefully")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RishiKendai/shingle/internal/api"
	"github.com/RishiKendai/shingle/internal/cache"
	"github.com/RishiKendai/shingle/internal/config"
	"github.com/RishiKendai/shingle/internal/configs/env"
	"github.com/RishiKendai/shingle/internal/infra/mongo"
	redisInfra "github.com/RishiKendai/shingle/internal/infra/redis"
	"github.com/RishiKendai/shingle/internal/logger"
	"github.com/RishiKendai/shingle/internal/metrics"
	"github.com/RishiKendai/shingle/internal/plagiarism"
	"github.com/RishiKendai/shingle/internal/repository"
	"github.com/RishiKendai/shingle/internal/service"
	"github.com/RishiKendai/shingle/internal/stream"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = env.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	logger.Init(cfg.LogLevel)
	log.Info().Msg("Starting shingle comparison server")

	rec := metrics.InitPrometheus()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.MetricsPort).Msg("Metrics server started")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Metrics server failed to start")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reports are only persisted when MongoDB is configured
	var store service.ReportStore
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create MongoDB client")
		}
		defer mongoClient.Close(context.Background())

		reportsRepo := repository.NewReportsRepository(repository.NewMongoRepository(mongoClient))
		if err := reportsRepo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to ensure report indexes")
		}
		store = reportsRepo
	} else {
		log.Warn().Msg("MONGO_URI not set, reports will not be persisted")
	}

	redisClient, err := redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis client")
	}
	defer redisClient.Close()

	resultCache := cache.NewTiered(rec).
		Add("lru", cache.NewLRUCache(cfg.CacheSize, cfg.CacheTTL)).
		Add("redis", cache.NewRedisCache(redisClient, cfg.CacheTTL))

	workerPool := plagiarism.NewWorkerPool(ctx, cfg.MaxConcurrentCompute)
	defer workerPool.Close()

	engine := plagiarism.NewEngine(plagiarism.Options{
		MaxShingle: cfg.ShingleSize,
		OffsetMode: cfg.OffsetMode,
	})

	svc := service.NewService(engine, resultCache, store, workerPool, rec, service.Options{
		MaxTextBytes:  cfg.MaxTextBytes,
		MaxBatchPairs: cfg.MaxBatchPairs,
	})

	var queue api.Enqueuer
	if cfg.AsyncEnabled() {
		queue = stream.NewProducer(redisClient, cfg.RedisStreamKey)
		startConsumer(ctx, cfg, redisClient.Client, svc)
	} else if cfg.StreamEnabled {
		log.Warn().Msg("STREAM_ENABLED requires MONGO_URI, async comparisons are disabled")
	}

	router := api.SetupRoutes(cfg, svc, redisClient, queue, rec)
	srv := api.StartServer(router, cfg.ServerPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down gracefully...")

	if err := api.ShutdownServer(srv, 30*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down HTTP server")
	}

	cancel()

	metricsCtx, metricsCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer metricsCancel()
	if err := metricsServer.Shutdown(metricsCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down metrics server")
	}

	log.Info().Msg("Shutdown complete")
}

func startConsumer(ctx context.Context, cfg *config.Config, rdb *goredis.Client, svc *service.Service) {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	consumerName := fmt.Sprintf("consumer-%s-%d-%s", hostname, os.Getpid(), uuid.New().String()[:8])

	consumer := stream.NewConsumer(
		rdb,
		cfg.RedisStreamKey,
		cfg.RedisConsumerGroup,
		consumerName,
		svc,
		stream.NewRetryHandler(rdb, cfg.RedisDeadLetterKey),
		cfg.StreamRetentionDuration,
	)

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Stream consumer error")
		}
	}()

	log.Info().Str("consumer_name", consumerName).Msg("Stream consumer started")
}

// Package main is the entry point for the feed-engine-service API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"feed-engine-service/internal/app/service"
	"feed-engine-service/internal/config"
	"feed-engine-service/internal/domain"
	"feed-engine-service/internal/infra/postgres"
	"feed-engine-service/internal/infra/postgres/migrations"
	rediscache "feed-engine-service/internal/infra/redis"
	"feed-engine-service/internal/infra/safety"
	"feed-engine-service/internal/job"
	"feed-engine-service/internal/logger"
	"feed-engine-service/internal/transport/httpserver"
	"feed-engine-service/internal/validator"
	"feed-engine-service/pkg/locker"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Level:  cfg.Logger.Level,
			Format: cfg.Logger.Format,
			Output: cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting feed-engine-service",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	// Validate composition invariants before accepting traffic: a
	// percentage table that doesn't sum to 1.0 or a broken weight
	// ordering is a deploy error, not a per-request error.
	allocator, err := domain.NewAllocator(
		toStrategyMap(cfg.Feed.Percentages),
		domain.Strategy(cfg.Feed.RemainderStrategy),
	)
	if err != nil {
		log.Fatal("invalid strategy percentages", zap.Error(err))
	}

	weights := toWeights(cfg.CF.Weights())
	if err := weights.Validate(); err != nil {
		log.Fatal("invalid interaction weights", zap.Error(err))
	}

	// Connect to database
	db, err := postgres.NewConnection(
		postgres.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			Name:         cfg.Database.Name,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxLifetime:  cfg.Database.MaxLifetime,
		},
		log.Logger,
	)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = postgres.Close(db) }()

	// Run migrations
	if err := migrations.Run(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	// Create repository
	repo := postgres.NewRepository(db)

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Ping Redis to verify connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to Redis",
		zap.String("host", cfg.Redis.Host),
		zap.Int("port", cfg.Redis.Port),
	)

	// Create batch cache
	cache := rediscache.NewCache(redisClient, log.Logger, cfg.Feed.CacheKeyPrefix)

	// Create Trust & Safety client
	safetyClient := safety.New(
		safety.ClientConfig{
			BaseURL: cfg.Safety.BaseURL,
			Timeout: cfg.Safety.Timeout,
			Retry: safety.RetryConfig{
				MaxAttempts: cfg.Safety.Retry.MaxAttempts,
				WaitTime:    cfg.Safety.Retry.WaitTime,
				MaxWaitTime: cfg.Safety.Retry.MaxWaitTime,
			},
			CB: safety.CBConfig{
				MaxRequests:  cfg.Safety.CB.MaxRequests,
				Interval:     cfg.Safety.CB.Interval,
				Timeout:      cfg.Safety.CB.Timeout,
				FailureRatio: cfg.Safety.CB.FailureRatio,
			},
		},
		log.Logger,
	)

	// Create content sources, one per strategy
	cfEngine := service.NewCFEngine(repo, repo, service.CFParams{
		SeedLimit:         cfg.CF.SeedLimit,
		NeighborLimit:     cfg.CF.NeighborLimit,
		CandidateLimit:    cfg.CF.CandidateLimit,
		Weights:           weights,
		LanguageBoost:     cfg.CF.LanguageBoost,
		ViewRecencyWindow: cfg.CF.ViewRecencyWindow,
	}, log.Logger)

	sources := []service.Source{
		cfEngine,
		service.NewPopularSource(repo),
		service.NewNewContentSource(repo),
		service.NewRandomSource(repo),
	}

	// Create composer and services
	composer := service.NewComposer(
		allocator,
		sources,
		repo,
		safetyClient,
		service.ComposerConfig{
			BlendWeights:      toStrategyMap(cfg.Feed.BlendWeights),
			SourceTimeout:     cfg.Feed.SourceTimeout,
			ViewRecencyWindow: cfg.CF.ViewRecencyWindow,
		},
		log.Logger,
	)

	feedSvc := service.NewFeedService(composer, cache, service.FeedConfig{
		BatchSize: cfg.Feed.BatchSize,
		CacheTTL:  cfg.Feed.CacheTTL,
	}, log.Logger)
	statsSvc := service.NewStatsService(repo, repo, log.Logger)

	// Create distributed locker
	distLocker := locker.NewRedisLocker(redisClient, log.Logger)

	// Create validator
	v := validator.New()

	// Create HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:            cfg.App.Port,
			BodyLimit:       1024 * 1024, // 1MB
			DefaultPageSize: cfg.Feed.DefaultPageSize,
			Debug:           cfg.App.Debug,
		},
		feedSvc,
		statsSvc,
		db,
		v,
		log.Logger,
	)

	// Start popularity refresher with distributed locking
	refresher := job.NewPopularityRefresher(
		repo,
		cache,
		job.RefresherConfig{
			Interval:  cfg.Popularity.Interval,
			Window:    cfg.Popularity.Window,
			Timeout:   cfg.Popularity.Timeout,
			OnStartup: cfg.Popularity.OnStartup,
		},
		weights,
		log.Logger,
		distLocker,
	)
	refresher.Start(cfg.Popularity.OnStartup)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		// Stop refresher
		refresher.Stop()

		// Shutdown server with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.App.ShutdownWithContext(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

// toStrategyMap converts a string-keyed config map to strategy keys.
func toStrategyMap(m map[string]float64) map[domain.Strategy]float64 {
	out := make(map[domain.Strategy]float64, len(m))
	for k, v := range m {
		out[domain.Strategy(k)] = v
	}

	return out
}

// toWeights converts a string-keyed config map to an interaction weight
// table.
func toWeights(m map[string]float64) domain.InteractionWeights {
	out := make(domain.InteractionWeights, len(m))
	for k, v := range m {
		out[domain.InteractionKind(k)] = v
	}

	return out
}

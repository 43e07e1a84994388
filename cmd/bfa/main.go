package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/trading-dashboard-bfa/internal/config"
	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
	"github.com/boddenberg/trading-dashboard-bfa/internal/handler"
	"github.com/boddenberg/trading-dashboard-bfa/internal/infra/cache"
	"github.com/boddenberg/trading-dashboard-bfa/internal/infra/graphql"
	"github.com/boddenberg/trading-dashboard-bfa/internal/infra/observability"
	"github.com/boddenberg/trading-dashboard-bfa/internal/infra/resilience"
	"github.com/boddenberg/trading-dashboard-bfa/internal/port"
	"github.com/boddenberg/trading-dashboard-bfa/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Config (.env is loaded first for local development) ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	loc, _ := cfg.Location() // validated by config.Load

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("graphql_url", cfg.GraphQLURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("timezone", loc.String()),
		zap.Duration("stream_interval", cfg.StreamInterval),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "trading-dashboard-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	var profileCache port.Cache[*domain.TraderProfile]
	switch cfg.CacheBackend {
	case "redis":
		redisCfg := cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
			TTL:      cfg.CacheTTL,
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := cache.NewRedisClient(pingCtx, redisCfg)
		cancel()
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer rdb.Close()
		profileCache = cache.NewRedis[*domain.TraderProfile](rdb, redisCfg, logger)
		logger.Info("profile cache backed by redis", zap.String("addr", cfg.RedisAddr))
	default:
		mem := cache.New[*domain.TraderProfile](cfg.CacheTTL)
		defer mem.Close()
		profileCache = mem
	}

	// --- Upstream ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	backend := graphql.NewClient(httpClient, graphql.Config{
		Endpoint:     cfg.GraphQLURL,
		ServiceToken: cfg.GraphQLToken,
		Resilience: resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		},
	}, logger)

	// --- Services ---
	dashboardSvc := service.NewDashboardService(
		backend,
		backend,
		profileCache,
		metrics,
		logger,
		service.WithLocation(loc),
		service.WithDefaultPageSize(cfg.DefaultPageSize),
	)

	// --- Router ---
	router := handler.NewRouter(dashboardSvc, backend, metrics, logger, handler.Options{
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     config.MaxPageSize,
		StreamInterval:  cfg.StreamInterval,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

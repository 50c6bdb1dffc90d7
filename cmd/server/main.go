package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sentiscope/sentiscope/internal/adapter/httpserver"
	"github.com/sentiscope/sentiscope/internal/adapter/metrics"
	"github.com/sentiscope/sentiscope/internal/app"
	"github.com/sentiscope/sentiscope/internal/domain"
	"github.com/sentiscope/sentiscope/internal/platform/config"
	"github.com/sentiscope/sentiscope/internal/platform/logging"
	"github.com/sentiscope/sentiscope/internal/security"
	"github.com/sentiscope/sentiscope/internal/sentiment"
	"github.com/sentiscope/sentiscope/internal/session"
)

const evictionInterval = 5 * time.Minute

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := session.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	limits := security.Limits{
		Cooldown:  cfg.RateCooldown,
		PerMinute: cfg.RateLimitPerMinute,
		PerHour:   cfg.RateLimitPerHour,
	}

	registry := metrics.NewRegistry()
	analysisMetrics := metrics.NewAnalysisMetrics(registry)

	var (
		store        domain.SessionStore
		healthChecks []httpserver.HealthCheck
	)
	if cfg.RedisURL != "" {
		redisClient := setupRedis(context.Background(), cfg)
		defer func() { _ = redisClient.Close() }()

		store = session.NewRedisStore(redisClient, clock, cfg.SessionTimeout, limits)
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
		slog.Info("Using Redis session store")
	} else {
		memStore := session.NewInMemoryStore(clock, cfg.SessionTimeout, limits)
		stopEviction := memStore.StartEvictionTimer(evictionInterval)
		defer stopEviction()

		store = memStore
		slog.Info("Using in-memory session store")
	}

	scorer := sentiment.NewScorer(sentiment.NewVADERProvider(), clock)
	appSvc := app.NewService(store, scorer, analysisMetrics, cfg.MaxBatchSize)

	srv := httpserver.NewServer(cfg, appSvc, registry, healthChecks)

	done := runGracefulShutdown(srv)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

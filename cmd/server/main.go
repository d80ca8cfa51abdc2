package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mrkrexx/404AI/internal/api"
	"github.com/mrkrexx/404AI/internal/auth"
	"github.com/mrkrexx/404AI/internal/autoreply"
	"github.com/mrkrexx/404AI/internal/bridge"
	"github.com/mrkrexx/404AI/internal/config"
	"github.com/mrkrexx/404AI/internal/handlers"
	"github.com/mrkrexx/404AI/internal/relay"
	"github.com/mrkrexx/404AI/internal/storage"
)

func main() {
	cfg := config.Load()

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	backend, redisClient := openBackend(ctx, cfg, logger)
	defer backend.Close()

	adapter := storage.NewAdapter(backend, cfg.StorePrefix, logger)

	// The bridge instance shared by everything in this process.
	b := bridge.New(adapter, logger, bridge.Options{
		PollInterval: cfg.PollInterval,
		ReemitDelay:  cfg.ReemitDelay,
		Retention:    cfg.Retention,
	})
	b.Start()
	defer b.Dispose()

	responder := autoreply.NewResponder(b, logger)
	responder.Attach()
	defer responder.Detach()

	authSvc, err := auth.NewService(auth.DefaultCredentials(), adapter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("auth setup failed")
	}

	queue := relay.NewQueue()
	h := handlers.NewHandler(queue, b, authSvc, backend, logger)
	router := api.NewRouter(logger, h, redisClient, cfg.RateLimitWhitelist)

	// Periodic retention cleanup.
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				b.Cleanup(cleanupCtx)
			}
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting relay server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

// openBackend selects the shared store: Postgres, then Redis, then
// SQLite, falling back to memory. The Redis client is returned
// separately for the rate limiter when Redis is in play.
func openBackend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.Backend, *redis.Client) {
	if cfg.DatabaseURL != "" {
		backend, err := storage.NewPostgresBackend(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		logger.Info().Msg("using PostgreSQL store")
		return backend, nil
	}

	if cfg.RedisURL != "" {
		backend, err := storage.NewRedisBackend(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		logger.Info().Msg("using Redis store")
		return backend, backend.Client()
	}

	if cfg.SQLitePath != "" {
		backend, err := storage.NewSQLiteBackend(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite store")
		return backend, nil
	}

	logger.Warn().Msg("no store configured, using in-memory store")
	return storage.NewMemoryBackend(), nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/partner-gateway-service/internal/app"
	"github.com/partner-gateway-service/internal/config"
	"github.com/partner-gateway-service/internal/idempotency"
	"github.com/partner-gateway-service/internal/metrics"
	"github.com/partner-gateway-service/internal/middleware"
	"github.com/partner-gateway-service/internal/service"
	"github.com/partner-gateway-service/internal/store"
	"github.com/partner-gateway-service/internal/token"
	"github.com/partner-gateway-service/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("gateway failed to start")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	pg := store.NewPostgres(pool)

	codec, err := token.NewCodec(cfg.AccessTokenSecret, cfg.RefreshTokenSecret)
	if err != nil {
		return err
	}

	// Idempotency records live in Redis when configured, in process
	// otherwise.
	var idemStore idempotency.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		defer client.Close()
		idemStore = idempotency.NewRedisStore(client)
	} else {
		memStore := idempotency.NewMemoryStore()
		memStore.StartSweeper(ctx, cfg.IdempotencyTTL)
		idemStore = memStore
	}
	guard := idempotency.NewGuard(idemStore, cfg.IdempotencyTTL)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	dispatcher := webhook.NewDispatcher(
		webhook.NewSafeClient(cfg.WebhookTimeout),
		cfg.WebhookMaxRetries,
		cfg.WebhookBackoffBase,
		collector,
	)
	dispatcher.Start(ctx, cfg.WebhookWorkers)

	router := app.NewRouter(app.Dependencies{
		Config:        cfg,
		Store:         pg,
		Authenticator: middleware.NewAuthenticator(codec, pg),
		AuthLimiter:   middleware.NewAuthAttemptLimiter(5, 5*time.Minute, 15*time.Minute),
		Guard:         guard,
		AuthService:   service.NewAuthService(pg, codec, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		NotifyService: service.NewNotifyService(pg, pg, dispatcher),
		Collector:     collector,
		Registry:      registry,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("gateway listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// Let in-flight webhook deliveries finish their attempt sequences.
	dispatcher.Wait()

	return nil
}

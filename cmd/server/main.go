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

	"github.com/rs/zerolog"

	"github.com/pricescan/backend/config"
	httpDelivery "github.com/pricescan/backend/internal/delivery/http"
	"github.com/pricescan/backend/internal/domain"
	"github.com/pricescan/backend/internal/infrastructure/cache"
	"github.com/pricescan/backend/internal/infrastructure/postgres"
	"github.com/pricescan/backend/internal/infrastructure/serpapi"
	"github.com/pricescan/backend/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	zerolog.DefaultContextLogger = &logger

	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Strs("providers", cfg.Providers.Enabled).
		Msg("Starting PriceScan Backend v1.0.0")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure dependencies
	client := serpapi.NewClient(cfg.Search.APIKey, cfg.Search.BaseURL, cfg.Search.RatePerSecond, cfg.Search.Burst)
	if cfg.Server.Environment == "development" {
		client.SetDebug(true)
		logger.Debug().Msg("Search client debug mode enabled")
	}
	if client.HasCredential() {
		logger.Info().Str("base_url", cfg.Search.BaseURL).Msg("Search API configured")
	} else {
		logger.Warn().Str("base_url", cfg.Search.BaseURL).Msg("Search API key NOT CONFIGURED - /search will fail")
	}

	var searchCache domain.CacheRepository
	if cfg.Cache.Enabled {
		memoryCache := cache.NewMemoryCache(0)
		defer memoryCache.Close()
		searchCache = memoryCache
		logger.Info().Dur("ttl", cfg.Cache.TTL).Msg("Search cache enabled")
	}

	users, closeUsers := openUsers(ctx, cfg.Database, logger)
	defer closeUsers()

	// Initialize usecase layer
	providers, err := usecase.EnabledProviders(cfg.Providers.Enabled)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid provider configuration")
	}

	searchService := usecase.NewSearchService(client, searchCache, providers, usecase.SearchServiceConfig{
		Timeout:  cfg.Search.Timeout,
		CacheTTL: cfg.Cache.TTL,
	})
	authService := usecase.NewAuthService(users)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(searchService, authService)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// newLogger builds the root logger from the log configuration
func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", "pricescan-backend").Logger()
}

// openUsers connects the users database and returns the repository with a
// closer for its pool. Connection problems are logged and the server keeps
// running without login.
func openUsers(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (domain.UserRepository, func()) {
	noop := func() {}
	if cfg.URL == "" {
		logger.Warn().Msg("Database URL not configured - /api/login disabled")
		return nil, noop
	}

	pool, err := postgres.Open(ctx, cfg.URL, cfg.MaxConns, cfg.IdleTimeout)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open database pool - /api/login disabled")
		return nil, noop
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := postgres.Ping(pingCtx, pool); err != nil {
		logger.Error().Err(err).Msg("Database connection test failed")
	} else {
		logger.Info().Msg("Database connection test passed")
	}

	return postgres.NewUserRepository(pool), pool.Close
}

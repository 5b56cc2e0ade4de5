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

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/adapters/cache"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/adapters/source"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/api/handlers"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/api/routes"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/application/services"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/providers"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/infrastructure/observability"
	"github.com/zatekoja/ClinicalAnalytics/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Load the encounter dataset; any parse error is fatal
	src, closer, err := source.FromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open encounter source")
	}
	dataset, err := services.LoadDataset(ctx, src)
	closer.Close()
	if err != nil {
		log.Fatal().Err(err).Str("source", src.Name()).Msg("Failed to load encounter dataset")
	}

	// Redis result cache is optional; the dashboard works without it
	var cacheProvider providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, running without result cache")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient, "clinical:")
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis result cache enabled")
		}
	}

	dashboardService := services.NewDashboardService(dataset, cacheProvider, cfg.Cache.TTLSeconds, metrics)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	router := routes.NewRouter(dashboardHandler, cfg.Server.AllowedOrigins, metrics)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nearamenities/backend/internal/adapters/cache"
	"github.com/nearamenities/backend/internal/adapters/database"
	"github.com/nearamenities/backend/internal/adapters/memory"
	"github.com/nearamenities/backend/internal/adapters/providers/geocoding"
	"github.com/nearamenities/backend/internal/api/handlers"
	"github.com/nearamenities/backend/internal/api/middleware"
	"github.com/nearamenities/backend/internal/api/routes"
	"github.com/nearamenities/backend/internal/application/services"
	domainproviders "github.com/nearamenities/backend/internal/domain/providers"
	"github.com/nearamenities/backend/internal/domain/repositories"
	"github.com/nearamenities/backend/internal/infrastructure/clients/overpass"
	"github.com/nearamenities/backend/internal/infrastructure/clients/postgres"
	redisclient "github.com/nearamenities/backend/internal/infrastructure/clients/redis"
	"github.com/nearamenities/backend/internal/infrastructure/observability"
	"github.com/nearamenities/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("amenity-api", cfg.Env)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry export is optional; metric instruments still work against
	// the no-op provider when disabled.
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Store selection happens once at startup. With no DB_HOST the whole
	// stack runs on the in-memory store.
	var (
		amenityRepo repositories.AmenityRepository
		reviewRepo  repositories.ReviewRepository
		actionRepo  repositories.AdminActionRepository
		messageRepo repositories.MessageRepository
	)
	if cfg.UseDatabase() {
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()
		logger.Info().Msg("PostgreSQL client initialized")

		amenityRepo = database.NewAmenityAdapter(pgClient)
		reviewRepo = database.NewReviewAdapter(pgClient)
		actionRepo = database.NewAdminActionAdapter(pgClient)
		messageRepo = database.NewMessageAdapter(pgClient)
	} else {
		logger.Info().Msg("no database configured, using in-memory store")
		amenityRepo = memory.NewAmenityStore()
		reviewRepo = memory.NewReviewStore()
		actionRepo = memory.NewAdminActionStore()
		messageRepo = memory.NewMessageStore()
	}

	var cacheProvider domainproviders.CacheProvider
	redisClient, err := redisclient.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize Redis client, continuing without cache")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		logger.Info().Msg("Redis client initialized")
	}

	overpassClient, err := overpass.NewClient(cfg.Overpass.Endpoints, cfg.Overpass.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize geodata client")
	}

	var geocoder domainproviders.GeocodingProvider
	if cfg.Geocode.Provider == "nominatim" {
		geocoder = geocoding.NewNominatimProviderWithOptions(cacheProvider, cfg.Geocode.Contact, cfg.Geocode.BaseURL, nil)
	} else {
		geocoder = geocoding.NewMockGeocodingProvider()
	}

	notificationService := services.NewNotificationService(messageRepo, nil, logger)
	reviewService := services.NewReviewService(reviewRepo, amenityRepo, actionRepo, notificationService, services.DefaultFlagThreshold, logger)
	amenityService := services.NewAmenityService(amenityRepo)
	ingestionService := services.NewIngestionService(overpassClient, amenityRepo, metrics)

	amenityHandler := handlers.NewAmenityHandler(amenityService, reviewService)
	reviewHandler := handlers.NewReviewHandler(reviewService, cacheProvider)
	moderationHandler := handlers.NewModerationHandler(reviewService)
	geocodingHandler := handlers.NewGeocodingHandler(geocoder)
	ingestionHandler := handlers.NewIngestionHandler(ingestionService)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics)
		logger.Info().Msg("response cache middleware initialized")
	}

	router := routes.NewRouter(
		amenityHandler,
		reviewHandler,
		moderationHandler,
		geocodingHandler,
		ingestionHandler,
		cacheMiddleware,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
}

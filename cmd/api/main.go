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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/myturn/backend/internal/adapters/cache"
	"github.com/myturn/backend/internal/adapters/database"
	"github.com/myturn/backend/internal/adapters/events"
	"github.com/myturn/backend/internal/adapters/providers/checkin"
	"github.com/myturn/backend/internal/adapters/providers/geolocation"
	"github.com/myturn/backend/internal/adapters/search"
	"github.com/myturn/backend/internal/api/handlers"
	"github.com/myturn/backend/internal/api/middleware"
	"github.com/myturn/backend/internal/api/routes"
	"github.com/myturn/backend/internal/application/services"
	"github.com/myturn/backend/internal/domain/providers"
	"github.com/myturn/backend/internal/domain/repositories"
	"github.com/myturn/backend/internal/infrastructure/clients/kafka"
	"github.com/myturn/backend/internal/infrastructure/clients/postgres"
	"github.com/myturn/backend/internal/infrastructure/clients/redis"
	"github.com/myturn/backend/internal/infrastructure/clients/typesense"
	"github.com/myturn/backend/internal/infrastructure/observability"
	"github.com/myturn/backend/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log)

	if cfg.Auth.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Redis backs caching, the queue counter, locations and events. Without it
	// the API still serves, with positions drawn from storage alone.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable; running without cache, counter or event bus")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
		counter       providers.QueueCounter
		locations     providers.LocationProvider
	)
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient.Client())
		eventBus = events.NewRedisEventBus(redisClient.Client())
		counter = cache.NewRedisQueueCounter(redisClient.Client(), cfg.Booking.CounterTTL)
		locations = geolocation.NewCacheLocationProvider(cacheProvider, cfg.Geolocation.CacheWindow, cfg.Geolocation.LookupTimeout)
	} else {
		locations = geolocation.NewMemoryLocationProvider(0, cfg.Geolocation.CacheWindow)
	}

	var eventStream providers.EventStream
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewSyncProducer(&cfg.Kafka)
		if err != nil {
			log.Warn().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("Kafka unavailable; booking event stream disabled")
		} else {
			eventStream = events.NewKafkaEventStream(producer, cfg.Kafka.Topic, metrics)
		}
	}

	var searchRepo repositories.InstitutionSearchRepository
	if cfg.Typesense.URL != "" {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable; text search falls back to listing")
		} else {
			if err := tsClient.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to init Typesense schema")
			}
			searchRepo = search.NewTypesenseAdapter(tsClient)
		}
	}

	var institutionRepo repositories.InstitutionRepository = database.NewInstitutionAdapter(pgClient)
	if cacheProvider != nil {
		institutionRepo = database.NewCachedInstitutionAdapter(institutionRepo, cacheProvider)
	}
	serviceRepo := database.NewServiceAdapter(pgClient)
	bookingRepo := database.NewBookingAdapter(pgClient)
	staffRepo := database.NewStaffAdapter(pgClient)
	predictionRepo := database.NewDemandPredictionAdapter(pgClient)

	publisher := services.NewEventPublisher(eventBus, eventStream)
	bookingService := services.NewBookingService(bookingRepo, serviceRepo, counter, publisher, checkin.NewQRCodeEncoder(), cfg.Booking, metrics)
	institutionService := services.NewInstitutionService(institutionRepo, searchRepo, locations, cfg.Geolocation)
	dashboardService := services.NewDashboardService(institutionRepo, serviceRepo, bookingRepo, predictionRepo, publisher)
	staffService := services.NewStaffService(staffRepo, serviceRepo, publisher)

	var invalidation *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		invalidation = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := invalidation.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation service")
			invalidation = nil
		}
	}
	if cacheProvider != nil && cfg.Redis.WarmInterval > 0 {
		go services.NewCacheWarmingService(institutionRepo).StartPeriodicWarming(ctx, cfg.Redis.WarmInterval)
	}

	router := routes.NewRouter(
		handlers.NewInstitutionHandler(institutionService),
		handlers.NewBookingHandler(bookingService),
		handlers.NewDashboardHandler(dashboardService, staffService),
		middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.StaffRoles),
		metrics,
	)
	router.WithReadiness("postgres", pgClient.Ping)
	if redisClient != nil {
		router.WithReadiness("redis", redisClient.Ping)
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("API server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("API server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	cancel()
	if invalidation != nil {
		invalidation.Stop()
	}
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}
	if eventStream != nil {
		if err := eventStream.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event stream")
		}
	}

	log.Info().Msg("API server stopped")
}

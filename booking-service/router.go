package main

import (
	"context"
	"fmt"

	"github.com/arunvm123/concertbooking/booking-service/booking"
	"github.com/arunvm123/concertbooking/booking-service/cache"
	rediscache "github.com/arunvm123/concertbooking/booking-service/cache/redis"
	"github.com/arunvm123/concertbooking/booking-service/config"
	inventoryredis "github.com/arunvm123/concertbooking/booking-service/inventory/redis"
	"github.com/arunvm123/concertbooking/booking-service/repository/postgres"
	httpservice "github.com/arunvm123/concertbooking/booking-service/service/http"
	kafkasink "github.com/arunvm123/concertbooking/booking-service/service/kafka"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies holds the wired components behind the API
type Dependencies struct {
	Orchestrator *booking.Orchestrator
	Checks       map[string]Pinger
	Registry     *prometheus.Registry
	Close        func()
}

// BuildDependencies connects to postgres, redis and kafka and assembles the orchestrator
func BuildDependencies(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Dependencies, error) {
	repo, err := postgres.NewBookingRepository(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	redisClient, err := inventoryredis.NewClient(ctx, cfg.Redis.GetRedisURL(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	counters := inventoryredis.NewCounterStore(redisClient, log)
	catalogCache := rediscache.NewRedisCacheRepository(redisClient)

	catalog := cache.NewCachedCatalogClient(
		httpservice.NewHTTPCatalogClientWithConfig(&cfg.CatalogService, cfg.ServiceAuthSecret),
		catalogCache,
		cfg.CatalogService.CacheTTL,
		log,
	)

	kafkaWriter := kafkasink.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic)
	notifier := kafkasink.NewNotificationSink(kafkaWriter)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	orchestrator := booking.NewOrchestrator(
		catalog,
		repo,
		counters,
		notifier,
		cfg.Saga,
		booking.NewMetrics(registry),
		log,
	)

	return &Dependencies{
		Orchestrator: orchestrator,
		Checks: map[string]Pinger{
			"database": repo,
			"redis":    counters,
		},
		Registry: registry,
		Close: func() {
			if err := kafkaWriter.Close(); err != nil {
				log.Warn("Failed to close kafka writer", zap.Error(err))
			}
			if err := redisClient.Close(); err != nil {
				log.Warn("Failed to close redis client", zap.Error(err))
			}
		},
	}, nil
}

// SetupRouter registers the public, authenticated and internal routes
func SetupRouter(cfg *config.Config, deps *Dependencies, log *zap.Logger) *gin.Engine {
	jwtService := NewJWTService(cfg.JWTSecret)
	bookingHandler := NewBookingHandler(deps.Orchestrator, deps.Checks, log)

	return newRouter(bookingHandler, jwtService, cfg.ServiceAuthSecret, deps.Registry, log)
}

func newRouter(h *BookingHandler, jwtService *JWTService, serviceSecret string, gatherer prometheus.Gatherer, log *zap.Logger) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(CORSMiddleware())
	r.Use(LoggingMiddleware(log))

	// Health check and metrics (no auth required)
	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")

	protected := api.Group("")
	protected.Use(AuthMiddleware(jwtService))

	protected.POST("/bookings", h.CreateBooking)
	protected.GET("/bookings/mine", h.ListUserBookings)
	protected.GET("/bookings/:bookingId", h.GetBooking)
	protected.DELETE("/bookings/:bookingId", h.CancelBooking)
	protected.GET("/inventory/events/:eventId/seat-classes/:seatClassId", h.RemainingTickets)

	internal := api.Group("/internal")
	internal.Use(ServiceAuthMiddleware(serviceSecret))

	internal.POST("/inventory/initialize", h.InitializeInventory)
	internal.POST("/inventory/events/:eventId/disable", h.DisableEventInventory)

	return r
}

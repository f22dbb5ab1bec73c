package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/arunvm123/concertbooking/booking-service/cache"
	rediscache "github.com/arunvm123/concertbooking/booking-service/cache/redis"
	"github.com/arunvm123/concertbooking/booking-service/config"
	inventoryredis "github.com/arunvm123/concertbooking/booking-service/inventory/redis"
	httpservice "github.com/arunvm123/concertbooking/booking-service/service/http"
	"github.com/arunvm123/concertbooking/booking-service/worker"
	"github.com/arunvm123/concertbooking/pkg/logger"
	"github.com/arunvm123/concertbooking/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	// Load configuration (fallback to env variables if config file not found)
	cfg, err := config.Initialise("config.yaml", false)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	zl, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zl.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := telemetry.InitTracer(ctx, "booking-worker", cfg.Tracing)
		if err != nil {
			zl.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
	}

	redisClient, err := inventoryredis.NewClient(ctx, cfg.Redis.GetRedisURL(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		zl.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	counters := inventoryredis.NewCounterStore(redisClient, zl)

	// DisableBooking through the cached client also evicts the cached event
	catalog := cache.NewCachedCatalogClient(
		httpservice.NewHTTPCatalogClientWithConfig(&cfg.CatalogService, cfg.ServiceAuthSecret),
		rediscache.NewRedisCacheRepository(redisClient),
		cfg.CatalogService.CacheTTL,
		zl,
	)

	registry := prometheus.NewRegistry()
	sweeper := worker.NewInventorySweeper(
		catalog,
		worker.InventoryDisablerFunc(counters.ClearAll),
		cfg.Sweeper,
		registry,
		zl,
	)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/health", func(c *gin.Context) {
		if err := counters.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "service": "booking-worker"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "booking-worker", "timestamp": time.Now()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("Worker status server stopped", zap.Error(err))
		}
	}()

	zl.Info("Inventory sweeper worker started")
	if err := sweeper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zl.Error("Worker error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	zl.Info("Worker stopped gracefully")
}

package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/arunvm123/concertbooking/notification-service/config"
	"github.com/arunvm123/concertbooking/notification-service/model"
	"github.com/arunvm123/concertbooking/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// brokerCheck reports whether at least one broker accepts connections
type brokerCheck func(ctx context.Context) error

func kafkaBrokerCheck(brokers []string) brokerCheck {
	return func(ctx context.Context) error {
		var lastErr error
		for _, b := range brokers {
			conn, err := kafka.DialContext(ctx, "tcp", b)
			if err == nil {
				return conn.Close()
			}
			lastErr = err
		}
		return lastErr
	}
}

func setupRouter(check brokerCheck, zl *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Health check endpoint only
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := check(ctx); err != nil {
			logger.Warn(ctx, zl, "Kafka health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
				Error:   "service_unavailable",
				Message: "kafka is unreachable",
			})
			return
		}

		c.JSON(http.StatusOK, model.HealthResponse{
			Status:    "healthy",
			Service:   "notification-service",
			Timestamp: time.Now(),
		})
	})

	return r
}

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Initialise("config.yaml", false)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	zl, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zl.Sync() //nolint:errcheck

	r := setupRouter(kafkaBrokerCheck(cfg.Kafka.Brokers), zl)

	zl.Info("Starting Notification Service API", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		zl.Fatal("Failed to start server", zap.Error(err))
	}
}

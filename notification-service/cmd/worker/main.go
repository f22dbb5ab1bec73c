package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/arunvm123/concertbooking/notification-service/config"
	"github.com/arunvm123/concertbooking/notification-service/email"
	"github.com/arunvm123/concertbooking/notification-service/worker"
	"github.com/arunvm123/concertbooking/pkg/logger"
	"github.com/arunvm123/concertbooking/pkg/telemetry"
	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := telemetry.InitTracer(ctx, "notification-worker", cfg.Tracing)
		if err != nil {
			zl.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
	}

	// Setup Kafka consumer
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.NotificationTopic,
		GroupID: cfg.Kafka.ConsumerGroup,
	})
	defer consumer.Close()

	if !cfg.Email.SMTPConfigured() {
		zl.Warn("SMTP is not configured, emails will be logged only")
	}

	processor := worker.NewNotificationProcessor(consumer, email.NewSender(cfg.Email, zl), cfg.Worker.MaxWorkers, zl)

	zl.Info("Notification processor worker started")
	if err := processor.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zl.Error("Worker error", zap.Error(err))
	}

	zl.Info("Worker stopped gracefully",
		zap.Int64("processed", processor.Processed()),
		zap.Int64("skipped", processor.Skipped()),
	)
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/arunvm123/concertbooking/booking-service/config"
	"github.com/arunvm123/concertbooking/pkg/logger"
	"github.com/arunvm123/concertbooking/pkg/telemetry"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	// Local development keeps secrets in .env; containers pass real env vars
	_ = godotenv.Load()

	// Try to load from config.yaml first, fallback to environment variables
	cfg, err := config.Initialise("config.yaml", false)
	if err != nil {
		log.Printf("Config file not found or invalid, using environment variables: %v", err)
		cfg, err = config.Initialise("", true)
		if err != nil {
			log.Fatal("Failed to load configuration:", err)
		}
	}

	zl, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zl.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := telemetry.InitTracer(ctx, "booking-service", cfg.Tracing)
		if err != nil {
			zl.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
	}

	deps, err := BuildDependencies(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to initialize dependencies", zap.Error(err))
	}
	defer deps.Close()

	router := SetupRouter(cfg, deps, zl)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, "booking-service"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("Starting Booking Service API", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("Shutting down Booking Service API")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Graceful shutdown failed", zap.Error(err))
	}
}

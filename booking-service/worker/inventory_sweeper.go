package worker

import (
	"context"
	"sync"
	"time"

	"github.com/arunvm123/concertbooking/booking-service/config"
	"github.com/arunvm123/concertbooking/booking-service/service"
	"github.com/arunvm123/concertbooking/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InventoryDisabler removes the ticket counters of an event.
type InventoryDisabler interface {
	DisableEventInventory(ctx context.Context, eventID string) error
}

// InventoryDisablerFunc adapts a plain function, such as a counter store's
// ClearAll, to InventoryDisabler.
type InventoryDisablerFunc func(ctx context.Context, eventID string) error

func (f InventoryDisablerFunc) DisableEventInventory(ctx context.Context, eventID string) error {
	return f(ctx, eventID)
}

// InventorySweeper closes booking for events that have started and drops
// their counters, so no seat can be reserved after the doors open.
type InventorySweeper struct {
	catalog   service.CatalogClient
	inventory InventoryDisabler
	cfg       config.Sweeper
	logger    *zap.Logger
	tracer    trace.Tracer

	runs     *prometheus.CounterVec
	disabled prometheus.Counter
	failures *prometheus.CounterVec
}

func NewInventorySweeper(
	catalog service.CatalogClient,
	inventory InventoryDisabler,
	cfg config.Sweeper,
	reg prometheus.Registerer,
	logger *zap.Logger,
) *InventorySweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 10 * time.Second
	}

	s := &InventorySweeper{
		catalog:   catalog,
		inventory: inventory,
		cfg:       cfg,
		logger:    logger,
		tracer:    otel.Tracer("booking-service/worker"),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_sweeper_runs_total",
			Help: "Sweeper passes by result.",
		}, []string{"result"}),
		disabled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_sweeper_events_disabled_total",
			Help: "Events whose booking was closed and counters removed.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_sweeper_failures_total",
			Help: "Sweeper steps that failed and will be retried on the next pass.",
		}, []string{"step"}),
	}

	reg.MustRegister(s.runs, s.disabled, s.failures)
	return s
}

// Start runs a pass immediately and then on every interval until ctx is done.
func (s *InventorySweeper) Start(ctx context.Context) error {
	logger.Info(ctx, s.logger, "Starting inventory sweeper",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("max_workers", s.cfg.MaxWorkers),
	)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.RunOnce(ctx)

		select {
		case <-ctx.Done():
			logger.Info(ctx, s.logger, "Inventory sweeper shutting down")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single pass and returns how many events were disabled.
func (s *InventorySweeper) RunOnce(ctx context.Context) int {
	ctx, span := s.tracer.Start(ctx, "InventorySweeper.RunOnce")
	defer span.End()

	lctx, cancel := context.WithTimeout(ctx, s.cfg.StepTimeout)
	eventIDs, err := s.catalog.ListEventsToDisable(lctx)
	cancel()
	if err != nil {
		s.runs.WithLabelValues("error").Inc()
		s.failures.WithLabelValues("list_events").Inc()
		logger.Error(ctx, s.logger, "Failed to list events to disable", zap.Error(err))
		return 0
	}

	span.SetAttributes(attribute.Int("sweeper.events", len(eventIDs)))

	if len(eventIDs) == 0 {
		s.runs.WithLabelValues("idle").Inc()
		return 0
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		count int
	)
	jobs := make(chan string)

	workers := min(s.cfg.MaxWorkers, len(eventIDs))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for eventID := range jobs {
				if s.disableEvent(ctx, eventID) {
					mu.Lock()
					count++
					mu.Unlock()
				}
			}
		}()
	}

dispatch:
	for _, id := range eventIDs {
		select {
		case jobs <- id:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	result := "ok"
	if count < len(eventIDs) {
		result = "partial"
	}
	s.runs.WithLabelValues(result).Inc()

	logger.Info(ctx, s.logger, "Inventory sweep finished",
		zap.Int("events", len(eventIDs)),
		zap.Int("disabled", count),
	)

	return count
}

// disableEvent closes booking in the catalog before removing the counters;
// if the catalog call fails the counters stay and the event is retried.
func (s *InventorySweeper) disableEvent(ctx context.Context, eventID string) bool {
	dctx, cancel := context.WithTimeout(ctx, s.cfg.StepTimeout)
	err := s.catalog.DisableBooking(dctx, eventID)
	cancel()
	if err != nil {
		s.failures.WithLabelValues("disable_booking").Inc()
		logger.Warn(ctx, s.logger, "Failed to disable booking in catalog",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return false
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.StepTimeout)
	err = s.inventory.DisableEventInventory(cctx, eventID)
	cancel()
	if err != nil {
		s.failures.WithLabelValues("clear_inventory").Inc()
		logger.Error(ctx, s.logger, "Failed to clear inventory for disabled event",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return false
	}

	s.disabled.Inc()
	logger.Info(ctx, s.logger, "Event disabled", zap.String("event_id", eventID))
	return true
}

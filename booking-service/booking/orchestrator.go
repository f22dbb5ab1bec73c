package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/arunvm123/concertbooking/booking-service/config"
	"github.com/arunvm123/concertbooking/booking-service/inventory"
	"github.com/arunvm123/concertbooking/booking-service/model"
	"github.com/arunvm123/concertbooking/booking-service/repository"
	"github.com/arunvm123/concertbooking/booking-service/service"
	"github.com/arunvm123/concertbooking/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CreateBookingRequest carries the caller identity and the seat being booked.
type CreateBookingRequest struct {
	UserID      string
	UserEmail   string
	EventID     string
	SeatClassID string
}

// Orchestrator coordinates the catalog, the ledger and the inventory counters.
// Counters and ledger are not transactionally joined, so every forward step
// after a successful reservation has a compensating step.
type Orchestrator struct {
	catalog   service.CatalogClient
	ledger    repository.BookingRepository
	inventory inventory.CounterStore
	notifier  service.NotificationSink
	timeouts  config.Saga
	metrics   *Metrics
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewOrchestrator(
	catalog service.CatalogClient,
	ledger repository.BookingRepository,
	counters inventory.CounterStore,
	notifier service.NotificationSink,
	timeouts config.Saga,
	metrics *Metrics,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		catalog:   catalog,
		ledger:    ledger,
		inventory: counters,
		notifier:  notifier,
		timeouts:  timeouts,
		metrics:   metrics,
		logger:    logger,
		tracer:    otel.Tracer("booking-service/booking"),
		now:       time.Now,
	}
}

func (o *Orchestrator) CreateBooking(ctx context.Context, req CreateBookingRequest) (*model.Booking, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.CreateBooking")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", req.UserID),
		attribute.String("event.id", req.EventID),
		attribute.String("seat_class.id", req.SeatClassID),
	)

	booking, err := o.createBooking(ctx, req)
	o.finish(span, "create", err)
	if err != nil {
		return nil, err
	}

	return booking, nil
}

func (o *Orchestrator) createBooking(ctx context.Context, req CreateBookingRequest) (*model.Booking, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.EventID) == "" || strings.TrimSpace(req.SeatClassID) == "" {
		return nil, newError(BadRequest, "user, event and seat class are required", nil)
	}

	detail, err := o.fetchEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	seat, ok := detail.SeatClass(req.SeatClassID)
	if !ok {
		return nil, newError(SeatTypeNotFound, "seat class not found for this event", nil)
	}

	if !detail.IsBookingEnabled {
		return nil, newError(ConcertNotBookable, "booking is not open for this event", nil)
	}

	if detail.HasStarted(o.now()) {
		return nil, newError(ConcertAlreadyStarted, "the event has already started", nil)
	}

	exists, err := o.hasConfirmedBooking(ctx, req.UserID, req.EventID)
	if err != nil {
		return nil, newError(ServiceError, "could not check existing bookings", err)
	}
	if exists {
		return nil, newError(AlreadyBookedByUser, "you already have a booking for this event", nil)
	}

	key := inventory.Key{EventID: req.EventID, SeatClassID: req.SeatClassID}

	switch res := o.tryDecrement(ctx, key); res {
	case inventory.DecrementSuccess:
	case inventory.DecrementSoldOut:
		return nil, newError(TicketsSoldOut, "tickets for this seat class are sold out", nil)
	case inventory.DecrementKeyNotFound:
		return nil, newError(InventoryKeyNotFound, "tickets for this seat class are not on sale", nil)
	default:
		return nil, newError(InventoryUpdateFailed, "could not reserve a ticket", nil)
	}

	// The reservation is held from here on; finish or compensate even if the
	// caller goes away.
	sagaCtx := context.WithoutCancel(ctx)

	booking := &model.Booking{
		UserID:        req.UserID,
		UserEmail:     req.UserEmail,
		EventID:       req.EventID,
		EventName:     detail.Name,
		SeatClassID:   seat.ID,
		SeatClassName: seat.Name,
		Price:         seat.Price,
		Status:        model.BookingStatusConfirmed,
		BookingTime:   o.now().UTC(),
	}

	created, err := o.createLedgerEntry(sagaCtx, booking)
	if err != nil {
		o.releaseReservation(sagaCtx, key, req, err)

		if errors.Is(err, repository.ErrAlreadyBooked) {
			return nil, newError(AlreadyBookedByUser, "you already have a booking for this event", err)
		}
		return nil, newError(ServiceError, "could not save the booking", err)
	}

	logger.Info(sagaCtx, o.logger, "Booking confirmed",
		zap.String("booking_id", created.ID),
		zap.String("user_id", created.UserID),
		zap.String("inventory_key", key.String()),
	)

	o.notify(sagaCtx, confirmationNotification(created, req.UserEmail))

	return created, nil
}

// releaseReservation undoes a successful decrement after the booking could
// not be stored. It is never retried here; a failure needs an operator.
func (o *Orchestrator) releaseReservation(ctx context.Context, key inventory.Key, req CreateBookingRequest, cause error) {
	res := o.tryIncrement(ctx, key)
	if res == inventory.IncrementSuccess {
		logger.Warn(ctx, o.logger, "Reservation released after booking save failed",
			zap.String("inventory_key", key.String()),
			zap.String("user_id", req.UserID),
			zap.NamedError("cause", cause),
		)
		return
	}

	o.metrics.compensationFailures.WithLabelValues("release_reservation").Inc()
	logger.Error(ctx, o.logger, "Compensation failed, manual reconciliation required",
		zap.String("step", "release_reservation"),
		zap.String("inventory_key", key.String()),
		zap.String("user_id", req.UserID),
		zap.String("event_id", req.EventID),
		zap.String("increment_result", res.String()),
		zap.NamedError("cause", cause),
	)
}

// CancelBooking cancels a confirmed booking owned by userID and returns its
// seat to the inventory. userEmail overrides the stored address for the
// cancellation email when set.
func (o *Orchestrator) CancelBooking(ctx context.Context, bookingID, userID, userEmail string) error {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.CancelBooking")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking.id", bookingID),
		attribute.String("user.id", userID),
	)

	err := o.cancelBooking(ctx, bookingID, userID, userEmail)
	o.finish(span, "cancel", err)
	return err
}

func (o *Orchestrator) cancelBooking(ctx context.Context, bookingID, userID, userEmail string) error {
	booking, err := o.findBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return newError(BookingNotFound, "booking not found", nil)
		}
		return newError(ServiceError, "could not load the booking", err)
	}

	if booking.UserID != userID {
		return newError(ForbiddenAccess, "you can only cancel your own bookings", nil)
	}

	if booking.Status != model.BookingStatusConfirmed {
		return newError(BookingNotCancellable, "only confirmed bookings can be cancelled", nil)
	}

	detail, err := o.getEventDetail(ctx, booking.EventID)
	if err != nil {
		logger.Warn(ctx, o.logger, "Event start check skipped, catalog lookup failed",
			zap.String("booking_id", booking.ID),
			zap.String("event_id", booking.EventID),
			zap.Error(err),
		)
	} else if detail.HasStarted(o.now()) {
		return newError(ConcertAlreadyStarted, "the event has already started", nil)
	}

	sagaCtx := context.WithoutCancel(ctx)
	key := inventory.Key{EventID: booking.EventID, SeatClassID: booking.SeatClassID}

	released := false
	switch res := o.tryIncrement(sagaCtx, key); res {
	case inventory.IncrementSuccess:
		released = true
	case inventory.IncrementKeyNotFound:
		o.metrics.inventoryAnomalies.WithLabelValues("release_missing_key").Inc()
		logger.Error(sagaCtx, o.logger, "Inventory key missing while releasing a cancelled booking, cancelling anyway",
			zap.String("booking_id", booking.ID),
			zap.String("inventory_key", key.String()),
		)
	default:
		return newError(InventoryUpdateFailed, "could not release the ticket", nil)
	}

	updated, err := o.updateStatus(sagaCtx, booking.ID, model.BookingStatusConfirmed, model.BookingStatusCancelled)
	if errors.Is(err, repository.ErrStatusChanged) {
		// Another cancel won the status transition and released the seat
		if released {
			o.undoRelease(sagaCtx, booking.ID, key)
		}
		return newError(BookingNotCancellable, "only confirmed bookings can be cancelled", nil)
	}
	if err != nil {
		o.metrics.compensationFailures.WithLabelValues("mark_cancelled").Inc()
		logger.Error(sagaCtx, o.logger, "Booking not marked cancelled after ticket release, manual reconciliation required",
			zap.String("step", "mark_cancelled"),
			zap.String("booking_id", booking.ID),
			zap.String("inventory_key", key.String()),
			zap.Error(err),
		)
		return newError(ServiceError, "could not cancel the booking", err)
	}

	logger.Info(sagaCtx, o.logger, "Booking cancelled",
		zap.String("booking_id", updated.ID),
		zap.String("inventory_key", key.String()),
	)

	to := userEmail
	if to == "" {
		to = updated.UserEmail
	}
	o.notify(sagaCtx, cancellationNotification(updated, to))

	return nil
}

// GetBooking returns the booking only to its owner; anyone else sees BookingNotFound.
func (o *Orchestrator) GetBooking(ctx context.Context, bookingID, userID string) (*model.Booking, error) {
	booking, err := o.findBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, newError(BookingNotFound, "booking not found", nil)
		}
		return nil, newError(ServiceError, "could not load the booking", err)
	}

	if booking.UserID != userID {
		return nil, newError(BookingNotFound, "booking not found", nil)
	}

	return booking, nil
}

func (o *Orchestrator) ListUserBookings(ctx context.Context, userID string) ([]model.Booking, error) {
	ctx, cancel := withTimeout(ctx, o.timeouts.LedgerTimeout)
	defer cancel()

	bookings, err := o.ledger.FindByUser(ctx, userID)
	if err != nil {
		return nil, newError(ServiceError, "could not load bookings", err)
	}

	return bookings, nil
}

// RemainingTickets is a display read; it never decides a reservation.
func (o *Orchestrator) RemainingTickets(ctx context.Context, eventID, seatClassID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, o.timeouts.InventoryTimeout)
	defer cancel()

	count, err := o.inventory.Get(ctx, inventory.Key{EventID: eventID, SeatClassID: seatClassID})
	if err != nil {
		if errors.Is(err, inventory.ErrKeyNotFound) {
			return 0, newError(InventoryKeyNotFound, "no inventory for this seat class", nil)
		}
		return 0, newError(ServiceError, "could not read inventory", err)
	}

	return count, nil
}

// InitializeInventory publishes ticket counts for the seat classes of an
// event, overwriting existing counters.
func (o *Orchestrator) InitializeInventory(ctx context.Context, eventID string, allocations []model.SeatClassAllocation) error {
	if strings.TrimSpace(eventID) == "" || len(allocations) == 0 {
		return newError(BadRequest, "event and at least one seat class are required", nil)
	}
	for _, a := range allocations {
		if strings.TrimSpace(a.SeatClassID) == "" || a.Count < 0 {
			return newError(BadRequest, "seat class id is required and count must not be negative", nil)
		}
		if err := (inventory.Key{EventID: eventID, SeatClassID: a.SeatClassID}).Validate(); err != nil {
			return newError(BadRequest, err.Error(), nil)
		}
	}

	for _, a := range allocations {
		ictx, cancel := withTimeout(ctx, o.timeouts.InventoryTimeout)
		err := o.inventory.Initialize(ictx, inventory.Key{EventID: eventID, SeatClassID: a.SeatClassID}, a.Count)
		cancel()
		if err != nil {
			return newError(InventoryUpdateFailed, "could not initialize inventory", err)
		}
	}

	return nil
}

// DisableEventInventory removes every counter of a retired event.
func (o *Orchestrator) DisableEventInventory(ctx context.Context, eventID string) error {
	if strings.TrimSpace(eventID) == "" {
		return newError(BadRequest, "event id is required", nil)
	}

	ctx, cancel := withTimeout(ctx, o.timeouts.InventoryTimeout)
	defer cancel()

	if err := o.inventory.ClearAll(ctx, eventID); err != nil {
		return newError(InventoryUpdateFailed, "could not clear inventory", err)
	}

	return nil
}

func (o *Orchestrator) fetchEvent(ctx context.Context, eventID string) (*service.EventDetail, error) {
	detail, err := o.getEventDetail(ctx, eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return nil, newError(ConcertNotFound, "event not found", nil)
		}
		return nil, newError(ConcertServiceCommunicationError, "could not reach the catalog service", err)
	}

	return detail, nil
}

func (o *Orchestrator) getEventDetail(ctx context.Context, eventID string) (*service.EventDetail, error) {
	ctx, cancel := withTimeout(ctx, o.timeouts.CatalogTimeout)
	defer cancel()

	return o.catalog.GetEventDetail(ctx, eventID)
}

func (o *Orchestrator) hasConfirmedBooking(ctx context.Context, userID, eventID string) (bool, error) {
	ctx, cancel := withTimeout(ctx, o.timeouts.LedgerTimeout)
	defer cancel()

	return o.ledger.HasConfirmedBooking(ctx, userID, eventID)
}

func (o *Orchestrator) findBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, o.timeouts.LedgerTimeout)
	defer cancel()

	return o.ledger.FindByID(ctx, bookingID)
}

func (o *Orchestrator) createLedgerEntry(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, o.timeouts.LedgerTimeout)
	defer cancel()

	return o.ledger.Create(ctx, booking)
}

func (o *Orchestrator) updateStatus(ctx context.Context, bookingID string, from, to model.BookingStatus) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, o.timeouts.LedgerTimeout)
	defer cancel()

	return o.ledger.UpdateStatus(ctx, bookingID, from, to)
}

// undoRelease takes back a seat released by a cancel that then lost the
// status transition.
func (o *Orchestrator) undoRelease(ctx context.Context, bookingID string, key inventory.Key) {
	if res := o.tryDecrement(ctx, key); res != inventory.DecrementSuccess {
		o.metrics.compensationFailures.WithLabelValues("undo_release").Inc()
		logger.Error(ctx, o.logger, "Duplicate ticket release not undone, manual reconciliation required",
			zap.String("step", "undo_release"),
			zap.String("booking_id", bookingID),
			zap.String("inventory_key", key.String()),
			zap.String("result", res.String()),
		)
		return
	}

	logger.Warn(ctx, o.logger, "Concurrent cancel detected, duplicate ticket release undone",
		zap.String("booking_id", bookingID),
		zap.String("inventory_key", key.String()),
	)
}

func (o *Orchestrator) tryDecrement(ctx context.Context, key inventory.Key) inventory.DecrementResult {
	ctx, cancel := withTimeout(ctx, o.timeouts.InventoryTimeout)
	defer cancel()

	return o.inventory.TryDecrement(ctx, key)
}

func (o *Orchestrator) tryIncrement(ctx context.Context, key inventory.Key) inventory.IncrementResult {
	ctx, cancel := withTimeout(ctx, o.timeouts.InventoryTimeout)
	defer cancel()

	return o.inventory.TryIncrement(ctx, key)
}

// notify is best effort: a failed send never fails the booking operation.
func (o *Orchestrator) notify(ctx context.Context, n service.Notification) {
	if n.To == "" {
		logger.Warn(ctx, o.logger, "Notification skipped, no recipient",
			zap.String("booking_id", n.BookingID),
			zap.String("type", string(n.Type)),
		)
		return
	}

	ctx, cancel := withTimeout(ctx, o.timeouts.NotificationTimeout)
	defer cancel()

	if err := o.notifier.Send(ctx, n); err != nil {
		o.metrics.notificationFailures.WithLabelValues(string(n.Type)).Inc()
		logger.Error(ctx, o.logger, "Failed to send notification",
			zap.String("booking_id", n.BookingID),
			zap.String("type", string(n.Type)),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator) finish(span trace.Span, operation string, err error) {
	o.metrics.observe(operation, err)

	if err != nil {
		kind := KindOf(err)
		span.SetAttributes(attribute.String("booking.error_kind", kind.String()))
		if kind.Category() == CategoryServiceError || kind.Category() == CategoryCommunicationError {
			span.RecordError(err)
			span.SetStatus(codes.Error, kind.String())
		}
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

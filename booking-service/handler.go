package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arunvm123/concertbooking/booking-service/booking"
	"github.com/arunvm123/concertbooking/booking-service/model"
	"github.com/arunvm123/concertbooking/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingService is the part of the orchestrator the HTTP layer drives
type BookingService interface {
	CreateBooking(ctx context.Context, req booking.CreateBookingRequest) (*model.Booking, error)
	CancelBooking(ctx context.Context, bookingID, userID, userEmail string) error
	GetBooking(ctx context.Context, bookingID, userID string) (*model.Booking, error)
	ListUserBookings(ctx context.Context, userID string) ([]model.Booking, error)
	RemainingTickets(ctx context.Context, eventID, seatClassID string) (int64, error)
	InitializeInventory(ctx context.Context, eventID string, allocations []model.SeatClassAllocation) error
	DisableEventInventory(ctx context.Context, eventID string) error
}

// Pinger is a dependency checked by the health endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

type BookingHandler struct {
	bookings BookingService
	checks   map[string]Pinger
	logger   *zap.Logger
}

func NewBookingHandler(bookings BookingService, checks map[string]Pinger, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		checks:   checks,
		logger:   logger,
	}
}

// CreateBooking books one seat for the authenticated user
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	b, err := h.bookings.CreateBooking(c.Request.Context(), booking.CreateBookingRequest{
		UserID:      user.UserID,
		UserEmail:   user.Email,
		EventID:     req.EventID,
		SeatClassID: req.SeatClassID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, b.ToBookingResponse())
}

// ListUserBookings returns all bookings for the authenticated user
func (h *BookingHandler) ListUserBookings(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	bookings, err := h.bookings.ListUserBookings(c.Request.Context(), user.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.ToUserBookingsResponse(bookings))
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}

	b, err := h.bookings.GetBooking(c.Request.Context(), bookingID, user.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, b.ToBookingResponse())
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}

	if err := h.bookings.CancelBooking(c.Request.Context(), bookingID, user.UserID, user.Email); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RemainingTickets is for display only and may lag behind reservations
func (h *BookingHandler) RemainingTickets(c *gin.Context) {
	eventID := c.Param("eventId")
	seatClassID := c.Param("seatClassId")

	remaining, err := h.bookings.RemainingTickets(c.Request.Context(), eventID, seatClassID)
	if err != nil {
		// A missing counter on a read means the seat class has no inventory
		if booking.KindOf(err) == booking.InventoryKeyNotFound {
			h.writeErrorStatus(c, http.StatusNotFound, err)
			return
		}
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.RemainingTicketsResponse{
		EventID:     eventID,
		SeatClassID: seatClassID,
		Remaining:   remaining,
	})
}

func (h *BookingHandler) InitializeInventory(c *gin.Context) {
	var req model.InitializeInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
		return
	}

	if err := h.bookings.InitializeInventory(c.Request.Context(), req.EventID, req.SeatClasses); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"eventId": req.EventID, "seatClasses": len(req.SeatClasses)})
}

func (h *BookingHandler) DisableEventInventory(c *gin.Context) {
	eventID := c.Param("eventId")

	if err := h.bookings.DisableEventInventory(c.Request.Context(), eventID); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"eventId": eventID})
}

// HealthCheck pings the ledger and the inventory store
func (h *BookingHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			logger.Warn(ctx, h.logger, "Health check failed",
				zap.String("dependency", name),
				zap.Error(err),
			)
			c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
				Error:   "service_unavailable",
				Message: name + " is unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, model.HealthResponse{
		Status:    "healthy",
		Service:   "booking-service",
		Timestamp: time.Now(),
	})
}

var kindStatus = map[booking.Kind]int{
	booking.BadRequest:                       http.StatusBadRequest,
	booking.ConcertNotFound:                  http.StatusNotFound,
	booking.SeatTypeNotFound:                 http.StatusNotFound,
	booking.BookingNotFound:                  http.StatusNotFound,
	booking.ConcertNotBookable:               http.StatusConflict,
	booking.ConcertAlreadyStarted:            http.StatusConflict,
	booking.AlreadyBookedByUser:              http.StatusConflict,
	booking.TicketsSoldOut:                   http.StatusConflict,
	booking.InventoryKeyNotFound:             http.StatusConflict,
	booking.BookingNotCancellable:            http.StatusConflict,
	booking.ForbiddenAccess:                  http.StatusForbidden,
	booking.ConcertServiceCommunicationError: http.StatusBadGateway,
	booking.InventoryUpdateFailed:            http.StatusInternalServerError,
	booking.ServiceError:                     http.StatusInternalServerError,
}

// writeError renders a booking error. Causes are logged, never returned.
func (h *BookingHandler) writeError(c *gin.Context, err error) {
	status, ok := kindStatus[booking.KindOf(err)]
	if !ok {
		status = http.StatusInternalServerError
	}
	h.writeErrorStatus(c, status, err)
}

func (h *BookingHandler) writeErrorStatus(c *gin.Context, status int, err error) {
	var be *booking.Error
	if !errors.As(err, &be) {
		be = &booking.Error{Kind: booking.ServiceError, Message: "internal error", Err: err}
	}

	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), h.logger, "Request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", be.Kind.String()),
			zap.Error(be),
		)
	}

	c.JSON(status, model.ErrorResponse{
		Error:   be.Kind.String(),
		Message: be.Message,
	})
}

func currentUser(c *gin.Context) (*Claims, bool) {
	v, exists := c.Get(userClaimsKey)
	claims, ok := v.(*Claims)
	if !exists || !ok || claims.UserID == "" {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{
			Error:   "unauthorized",
			Message: "User ID not found in token",
		})
		return nil, false
	}
	return claims, true
}

// bookingIDParam treats malformed ids as unknown bookings
func bookingIDParam(c *gin.Context) (string, bool) {
	raw := c.Param("bookingId")
	if _, err := uuid.Parse(raw); err != nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Error:   booking.BookingNotFound.String(),
			Message: "booking not found",
		})
		return "", false
	}
	return raw, true
}

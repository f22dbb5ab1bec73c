package repository

import (
	"context"

	"github.com/arunvm123/concertbooking/booking-service/model"
)

// BookingRepository is the durable ledger of bookings.
type BookingRepository interface {
	// Create stores the booking, assigning an ID when empty. A second
	// confirmed booking for the same user and event fails with ErrAlreadyBooked.
	Create(ctx context.Context, booking *model.Booking) (*model.Booking, error)
	FindByID(ctx context.Context, bookingID string) (*model.Booking, error)
	FindByUser(ctx context.Context, userID string) ([]model.Booking, error)
	HasConfirmedBooking(ctx context.Context, userID, eventID string) (bool, error)

	// UpdateStatus moves the booking from one status to another in one
	// statement and returns the updated row. It fails with ErrStatusChanged
	// when the stored status is no longer from, so only one of two racing
	// transitions wins.
	UpdateStatus(ctx context.Context, bookingID string, from, to model.BookingStatus) (*model.Booking, error)

	// Health check
	Ping(ctx context.Context) error
}

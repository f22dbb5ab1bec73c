package service

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrCatalogUnavailable = errors.New("catalog service unavailable")
)

// CatalogClient reads event metadata from the catalog service
type CatalogClient interface {
	// GetEventDetail returns ErrEventNotFound for unknown events and wraps
	// ErrCatalogUnavailable for every other failure.
	GetEventDetail(ctx context.Context, eventID string) (*EventDetail, error)

	// ListEventsToDisable returns events whose start time has passed while
	// booking is still enabled.
	ListEventsToDisable(ctx context.Context) ([]string, error)

	// DisableBooking turns booking off for the event in the catalog
	DisableBooking(ctx context.Context, eventID string) error
}

// EventDetail represents event information from the catalog service
type EventDetail struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	StartTime        time.Time   `json:"startTime"`
	IsBookingEnabled bool        `json:"isBookingEnabled"`
	SeatClasses      []SeatClass `json:"seatTypes"`
}

// SeatClass represents a priced seat type of an event
type SeatClass struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	TotalSeats int64   `json:"totalSeats"`
}

// SeatClass finds a seat class by id
func (e *EventDetail) SeatClass(seatClassID string) (SeatClass, bool) {
	for _, sc := range e.SeatClasses {
		if sc.ID == seatClassID {
			return sc, true
		}
	}
	return SeatClass{}, false
}

// HasStarted reports whether the event start time is at or before now
func (e *EventDetail) HasStarted(now time.Time) bool {
	return !e.StartTime.After(now)
}

type NotificationType string

const (
	NotificationBookingConfirmed NotificationType = "booking_confirmed"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
)

// Notification is one email handed to the delivery pipeline
type Notification struct {
	Type      NotificationType
	BookingID string
	To        string
	Subject   string
	HTMLBody  string
	TextBody  string
}

// NotificationSink delivers notifications on a best-effort basis
type NotificationSink interface {
	Send(ctx context.Context, n Notification) error
}

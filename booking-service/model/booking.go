package model

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusFailed    BookingStatus = "failed"
)

// ============================================================================
// DATABASE ENTITIES (Internal - GORM only, no JSON tags)
// ============================================================================

// Booking represents the database model for bookings. Event and seat class
// names and the price are captured when the booking is made and never change.
type Booking struct {
	ID            string        `gorm:"primaryKey;type:uuid"`
	UserID        string        `gorm:"type:varchar(64);not null;index"`
	UserEmail     string        `gorm:"type:varchar(255);not null"`
	EventID       string        `gorm:"type:varchar(64);not null;index"`
	EventName     string        `gorm:"type:varchar(255);not null"`
	SeatClassID   string        `gorm:"type:varchar(64);not null"`
	SeatClassName string        `gorm:"type:varchar(255);not null"`
	Price         float64       `gorm:"type:decimal(10,2);not null"`
	Status        BookingStatus `gorm:"type:varchar(20);not null"`
	BookingTime   time.Time     `gorm:"not null"`
	UpdatedAt     time.Time
}

// TableName sets the table name for GORM
func (Booking) TableName() string {
	return "bookings"
}

// ============================================================================
// API DATA TRANSFER OBJECTS (External - JSON tags for HTTP)
// ============================================================================

// CreateBookingRequest represents the API request to book one seat
type CreateBookingRequest struct {
	EventID     string `json:"eventId" binding:"required"`
	SeatClassID string `json:"seatClassId" binding:"required"`
}

// BookingResponse represents a booking returned to its owner
type BookingResponse struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	EventID       string        `json:"eventId"`
	EventName     string        `json:"eventName"`
	SeatClassID   string        `json:"seatClassId"`
	SeatClassName string        `json:"seatClassName"`
	Price         float64       `json:"price"`
	Status        BookingStatus `json:"status"`
	BookingTime   time.Time     `json:"bookingTime"`
}

// UserBookingsResponse represents the list of user bookings
type UserBookingsResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
}

// SeatClassAllocation is the number of tickets published for one seat class
type SeatClassAllocation struct {
	SeatClassID string `json:"seatClassId" binding:"required"`
	Count       int64  `json:"count" binding:"gte=0"`
}

// InitializeInventoryRequest represents the internal request that publishes
// the ticket counts of an event
type InitializeInventoryRequest struct {
	EventID     string                `json:"eventId" binding:"required"`
	SeatClasses []SeatClassAllocation `json:"seatClasses" binding:"required,min=1,dive"`
}

// RemainingTicketsResponse represents the display-only remaining count
type RemainingTicketsResponse struct {
	EventID     string `json:"eventId"`
	SeatClassID string `json:"seatClassId"`
	Remaining   int64  `json:"remaining"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ============================================================================
// KAFKA MESSAGE STRUCTURES
// ============================================================================

// NotificationRequest represents the message sent to the notification topic
type NotificationRequest struct {
	Type           string    `json:"type"`
	BookingID      string    `json:"booking_id"`
	RecipientEmail string    `json:"recipient_email"`
	Subject        string    `json:"subject"`
	HTMLBody       string    `json:"html_body"`
	TextBody       string    `json:"text_body"`
	Timestamp      time.Time `json:"timestamp"`
}

// ============================================================================
// CONVERSION METHODS
// ============================================================================

// ToBookingResponse converts a Booking entity to its API representation
func (b *Booking) ToBookingResponse() BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		EventID:       b.EventID,
		EventName:     b.EventName,
		SeatClassID:   b.SeatClassID,
		SeatClassName: b.SeatClassName,
		Price:         b.Price,
		Status:        b.Status,
		BookingTime:   b.BookingTime,
	}
}

// ToUserBookingsResponse converts a list of bookings for the listing endpoint
func ToUserBookingsResponse(bookings []Booking) UserBookingsResponse {
	resp := UserBookingsResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
		Total:    len(bookings),
	}

	for i := range bookings {
		resp.Bookings = append(resp.Bookings, bookings[i].ToBookingResponse())
	}

	return resp
}

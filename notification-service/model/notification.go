package model

import (
	"errors"
	"time"
)

const (
	TypeBookingConfirmed = "booking_confirmed"
	TypeBookingCancelled = "booking_cancelled"
)

var (
	ErrUnknownType      = errors.New("unknown notification type")
	ErrMissingRecipient = errors.New("notification has no recipient")
)

// ============================================================================
// KAFKA MESSAGE STRUCTURES (From Booking Service)
// ============================================================================

// NotificationRequest represents the message consumed from the notification topic.
// The booking service renders subject and bodies, so delivery is template free.
type NotificationRequest struct {
	Type           string    `json:"type"`
	BookingID      string    `json:"booking_id"`
	RecipientEmail string    `json:"recipient_email"`
	Subject        string    `json:"subject"`
	HTMLBody       string    `json:"html_body"`
	TextBody       string    `json:"text_body"`
	Timestamp      time.Time `json:"timestamp"`
}

// Validate checks the fields delivery depends on
func (nr *NotificationRequest) Validate() error {
	switch nr.Type {
	case TypeBookingConfirmed, TypeBookingCancelled:
	default:
		return ErrUnknownType
	}

	if nr.RecipientEmail == "" {
		return ErrMissingRecipient
	}

	return nil
}

// ============================================================================
// EMAIL
// ============================================================================

// EmailMessage is a single email ready to be delivered
type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// ToEmail converts a notification into an email
func (nr *NotificationRequest) ToEmail() EmailMessage {
	return EmailMessage{
		To:       nr.RecipientEmail,
		Subject:  nr.Subject,
		HTMLBody: nr.HTMLBody,
		TextBody: nr.TextBody,
	}
}

// ============================================================================
// API DATA TRANSFER OBJECTS (External - JSON tags for HTTP)
// ============================================================================

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

package repository

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrAlreadyBooked   = errors.New("user already has a confirmed booking for this event")
	ErrStatusChanged   = errors.New("booking status changed concurrently")
)

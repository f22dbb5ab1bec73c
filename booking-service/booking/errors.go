package booking

import (
	"errors"
	"fmt"
)

// Kind identifies why a booking operation failed.
type Kind int

const (
	ServiceError Kind = iota
	BadRequest
	ConcertNotFound
	SeatTypeNotFound
	ConcertNotBookable
	ConcertAlreadyStarted
	AlreadyBookedByUser
	TicketsSoldOut
	InventoryKeyNotFound
	InventoryUpdateFailed
	BookingNotFound
	BookingNotCancellable
	ForbiddenAccess
	ConcertServiceCommunicationError
)

var kindNames = map[Kind]string{
	ServiceError:                     "service_error",
	BadRequest:                       "bad_request",
	ConcertNotFound:                  "concert_not_found",
	SeatTypeNotFound:                 "seat_type_not_found",
	ConcertNotBookable:               "concert_not_bookable",
	ConcertAlreadyStarted:            "concert_already_started",
	AlreadyBookedByUser:              "already_booked_by_user",
	TicketsSoldOut:                   "tickets_sold_out",
	InventoryKeyNotFound:             "inventory_key_not_found",
	InventoryUpdateFailed:            "inventory_update_failed",
	BookingNotFound:                  "booking_not_found",
	BookingNotCancellable:            "booking_not_cancellable",
	ForbiddenAccess:                  "forbidden_access",
	ConcertServiceCommunicationError: "concert_service_communication_error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type Category int

const (
	CategoryServiceError Category = iota
	CategoryValidationError
	CategoryNotFound
	CategoryConflict
	CategoryForbidden
	CategoryCommunicationError
)

func (c Category) String() string {
	switch c {
	case CategoryValidationError:
		return "validation_error"
	case CategoryNotFound:
		return "not_found"
	case CategoryConflict:
		return "conflict"
	case CategoryForbidden:
		return "forbidden"
	case CategoryCommunicationError:
		return "communication_error"
	default:
		return "service_error"
	}
}

func (k Kind) Category() Category {
	switch k {
	case BadRequest:
		return CategoryValidationError
	case ConcertNotFound, SeatTypeNotFound, BookingNotFound:
		return CategoryNotFound
	case TicketsSoldOut, AlreadyBookedByUser, ConcertNotBookable, ConcertAlreadyStarted,
		BookingNotCancellable, InventoryKeyNotFound:
		return CategoryConflict
	case ForbiddenAccess:
		return CategoryForbidden
	case ConcertServiceCommunicationError:
		return CategoryCommunicationError
	default:
		return CategoryServiceError
	}
}

// Error is the only error type returned by the orchestrator. Message is safe
// to show to callers; Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the kind carried by err, or ServiceError for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ServiceError
}

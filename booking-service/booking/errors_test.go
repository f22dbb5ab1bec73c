package booking

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindCategories(t *testing.T) {
	cases := map[Kind]Category{
		ServiceError:                     CategoryServiceError,
		InventoryUpdateFailed:            CategoryServiceError,
		BadRequest:                       CategoryValidationError,
		ConcertNotFound:                  CategoryNotFound,
		SeatTypeNotFound:                 CategoryNotFound,
		BookingNotFound:                  CategoryNotFound,
		ConcertNotBookable:               CategoryConflict,
		ConcertAlreadyStarted:            CategoryConflict,
		AlreadyBookedByUser:              CategoryConflict,
		TicketsSoldOut:                   CategoryConflict,
		InventoryKeyNotFound:             CategoryConflict,
		BookingNotCancellable:            CategoryConflict,
		ForbiddenAccess:                  CategoryForbidden,
		ConcertServiceCommunicationError: CategoryCommunicationError,
	}

	for kind, want := range cases {
		t.Run(kind.String(), func(t *testing.T) {
			assert.Equal(t, want, kind.Category())
		})
	}
}

func TestErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("handler: %w", newError(ServiceError, "could not save the booking", cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ServiceError, KindOf(err))

	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "could not save the booking", be.Message)
	assert.Contains(t, be.Error(), "connection reset")
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, ServiceError, KindOf(errors.New("boom")))
	assert.Equal(t, TicketsSoldOut, KindOf(newError(TicketsSoldOut, "sold out", nil)))
	assert.Equal(t, "kind(99)", Kind(99).String())
}

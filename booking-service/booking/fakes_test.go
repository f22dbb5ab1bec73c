package booking

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/arunvm123/concertbooking/booking-service/model"
	"github.com/arunvm123/concertbooking/booking-service/repository"
	"github.com/arunvm123/concertbooking/booking-service/service"
	"github.com/google/uuid"
)

// memoryLedger mimics the postgres ledger, including the unique index on
// confirmed bookings per user and event.
type memoryLedger struct {
	mu       sync.Mutex
	bookings map[string]model.Booking

	createErr    error
	updateErr    error
	beforeWrite  func()
	beforeUpdate func()

	// hideConfirmed makes HasConfirmedBooking miss existing rows, which is
	// what a concurrent request sees before the other insert lands.
	hideConfirmed bool
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{bookings: map[string]model.Booking{}}
}

func (l *memoryLedger) Create(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	if l.beforeWrite != nil {
		l.beforeWrite()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.createErr != nil {
		return nil, l.createErr
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.bookings {
		if existing.UserID == b.UserID && existing.EventID == b.EventID &&
			existing.Status == model.BookingStatusConfirmed && b.Status == model.BookingStatusConfirmed {
			return nil, repository.ErrAlreadyBooked
		}
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	l.bookings[b.ID] = *b

	out := *b
	return &out, nil
}

func (l *memoryLedger) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return &b, nil
}

func (l *memoryLedger) FindByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []model.Booking
	for _, b := range l.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingTime.After(out[j].BookingTime) })
	return out, nil
}

func (l *memoryLedger) HasConfirmedBooking(ctx context.Context, userID, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hideConfirmed {
		return false, nil
	}
	for _, b := range l.bookings {
		if b.UserID == userID && b.EventID == eventID && b.Status == model.BookingStatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (l *memoryLedger) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) (*model.Booking, error) {
	if l.beforeUpdate != nil {
		l.beforeUpdate()
	}
	if l.updateErr != nil {
		return nil, l.updateErr
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	if b.Status != from {
		return nil, repository.ErrStatusChanged
	}
	b.Status = to
	l.bookings[id] = b
	return &b, nil
}

func (l *memoryLedger) Ping(ctx context.Context) error { return nil }

func (l *memoryLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.bookings)
}

type stubCatalog struct {
	mu     sync.Mutex
	events map[string]*service.EventDetail
	err    error
}

func (c *stubCatalog) GetEventDetail(ctx context.Context, eventID string) (*service.EventDetail, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	detail, ok := c.events[eventID]
	if !ok {
		return nil, service.ErrEventNotFound
	}
	copied := *detail
	return &copied, nil
}

func (c *stubCatalog) ListEventsToDisable(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (c *stubCatalog) DisableBooking(ctx context.Context, eventID string) error {
	return nil
}

type recordingSink struct {
	mu   sync.Mutex
	sent []service.Notification
	err  error
}

func (s *recordingSink) Send(ctx context.Context, n service.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

func (s *recordingSink) all() []service.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]service.Notification(nil), s.sent...)
}

var errLedgerDown = errors.New("ledger unavailable")

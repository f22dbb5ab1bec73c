//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arunvm123/concertbooking/booking-service/config"
	"github.com/arunvm123/concertbooking/booking-service/model"
	"github.com/arunvm123/concertbooking/booking-service/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type BookingRepositorySuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	repo        repository.BookingRepository
}

func TestBookingRepositorySuite(t *testing.T) {
	suite.Run(t, new(BookingRepositorySuite))
}

func (s *BookingRepositorySuite) SetupSuite() {
	s.ctx = context.Background()

	var err error
	s.pgContainer, err = postgres.Run(
		s.ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("bookings_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)

	host, err := s.pgContainer.Host(s.ctx)
	s.Require().NoError(err)
	port, err := s.pgContainer.MappedPort(s.ctx, "5432/tcp")
	s.Require().NoError(err)

	cfg := &config.Database{
		User:            "test_user",
		Password:        "test_password",
		DatabaseName:    "bookings_test",
		Host:            host,
		Port:            port.Port(),
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5,
	}

	s.repo, err = NewBookingRepository(cfg, zap.NewNop())
	s.Require().NoError(err)

	// a second run must be a no-op
	s.Require().NoError(RunMigrations(cfg.GetDatabaseURL()))
}

func (s *BookingRepositorySuite) TearDownSuite() {
	if s.pgContainer != nil {
		s.Require().NoError(s.pgContainer.Terminate(s.ctx))
	}
}

func newBooking(userID, eventID string) *model.Booking {
	return &model.Booking{
		UserID:        userID,
		UserEmail:     userID + "@example.com",
		EventID:       eventID,
		EventName:     "Night Show",
		SeatClassID:   "vip",
		SeatClassName: "VIP",
		Price:         120.5,
		Status:        model.BookingStatusConfirmed,
	}
}

func (s *BookingRepositorySuite) TestCreateAndFind() {
	userID := uuid.NewString()
	created, err := s.repo.Create(s.ctx, newBooking(userID, "event-find"))
	s.Require().NoError(err)
	s.NotEmpty(created.ID)
	s.False(created.BookingTime.IsZero())

	found, err := s.repo.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(userID, found.UserID)
	s.Equal("VIP", found.SeatClassName)
	s.InDelta(120.5, found.Price, 0.001)
	s.Equal(model.BookingStatusConfirmed, found.Status)

	list, err := s.repo.FindByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *BookingRepositorySuite) TestFindMissing() {
	_, err := s.repo.FindByID(s.ctx, uuid.NewString())
	s.ErrorIs(err, repository.ErrBookingNotFound)

	_, err = s.repo.FindByID(s.ctx, "not-a-uuid")
	s.ErrorIs(err, repository.ErrBookingNotFound)
}

func (s *BookingRepositorySuite) TestHasConfirmedBooking() {
	userID := uuid.NewString()

	has, err := s.repo.HasConfirmedBooking(s.ctx, userID, "event-dup")
	s.Require().NoError(err)
	s.False(has)

	_, err = s.repo.Create(s.ctx, newBooking(userID, "event-dup"))
	s.Require().NoError(err)

	has, err = s.repo.HasConfirmedBooking(s.ctx, userID, "event-dup")
	s.Require().NoError(err)
	s.True(has)
}

func (s *BookingRepositorySuite) TestConcurrentDuplicateCreatesOnlyOne() {
	userID := uuid.NewString()

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.repo.Create(s.ctx, newBooking(userID, "event-race"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case err == repository.ErrAlreadyBooked:
			dup++
		default:
			s.Fail("unexpected error", err.Error())
		}
	}
	s.Equal(1, ok)
	s.Equal(attempts-1, dup)
}

func (s *BookingRepositorySuite) TestCancelledBookingAllowsRebooking() {
	userID := uuid.NewString()

	first, err := s.repo.Create(s.ctx, newBooking(userID, "event-rebook"))
	s.Require().NoError(err)

	updated, err := s.repo.UpdateStatus(s.ctx, first.ID, model.BookingStatusConfirmed, model.BookingStatusCancelled)
	s.Require().NoError(err)
	s.Equal(model.BookingStatusCancelled, updated.Status)
	s.Equal(first.ID, updated.ID)
	s.Equal(userID, updated.UserID)

	_, err = s.repo.Create(s.ctx, newBooking(userID, "event-rebook"))
	s.Require().NoError(err)
}

func (s *BookingRepositorySuite) TestUpdateStatusMissing() {
	_, err := s.repo.UpdateStatus(s.ctx, uuid.NewString(), model.BookingStatusConfirmed, model.BookingStatusCancelled)
	s.ErrorIs(err, repository.ErrBookingNotFound)
}

func (s *BookingRepositorySuite) TestConcurrentCancelHasOneWinner() {
	b, err := s.repo.Create(s.ctx, newBooking(uuid.NewString(), "event-double-cancel"))
	s.Require().NoError(err)

	const attempts = 5
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.repo.UpdateStatus(s.ctx, b.ID, model.BookingStatusConfirmed, model.BookingStatusCancelled)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, repository.ErrStatusChanged):
			lost++
		default:
			s.Fail("unexpected error", err.Error())
		}
	}
	s.Equal(1, won)
	s.Equal(attempts-1, lost)

	_, err = s.repo.UpdateStatus(s.ctx, b.ID, model.BookingStatusConfirmed, model.BookingStatusCancelled)
	s.ErrorIs(err, repository.ErrStatusChanged)
}

func (s *BookingRepositorySuite) TestPing() {
	s.NoError(s.repo.Ping(s.ctx))
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arunvm123/concertbooking/booking-service/config"
	"github.com/arunvm123/concertbooking/booking-service/model"
	"github.com/arunvm123/concertbooking/booking-service/repository"
	"github.com/arunvm123/concertbooking/pkg/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type bookingRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	tracer trace.Tracer
}

// NewBookingRepository migrates the schema and opens a pooled connection.
func NewBookingRepository(cfg *config.Database, logger *zap.Logger) (repository.BookingRepository, error) {
	databaseURL := cfg.GetDatabaseURL()

	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	return &bookingRepository{
		db:     db,
		logger: logger,
		tracer: otel.Tracer("booking-service/repository/postgres"),
	}, nil
}

// Create inserts a booking. The partial unique index on (user_id, event_id)
// for confirmed bookings turns a lost duplicate race into ErrAlreadyBooked.
func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	ctx, span := r.tracer.Start(ctx, "bookingRepository.Create")
	defer span.End()

	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.BookingTime.IsZero() {
		booking.BookingTime = time.Now().UTC()
	}
	booking.UpdatedAt = booking.BookingTime

	span.SetAttributes(
		attribute.String("booking.id", booking.ID),
		attribute.String("user.id", booking.UserID),
		attribute.String("event.id", booking.EventID),
	)

	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Warn(ctx, r.logger, "Duplicate confirmed booking rejected by ledger",
				zap.String("user_id", booking.UserID),
				zap.String("event_id", booking.EventID),
			)
			return nil, repository.ErrAlreadyBooked
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, bookingID string) (*model.Booking, error) {
	ctx, span := r.tracer.Start(ctx, "bookingRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("booking.id", bookingID))

	if _, err := uuid.Parse(bookingID); err != nil {
		return nil, repository.ErrBookingNotFound
	}

	var booking model.Booking
	err := r.db.WithContext(ctx).Where("id = ?", bookingID).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrBookingNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

func (r *bookingRepository) FindByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	ctx, span := r.tracer.Start(ctx, "bookingRepository.FindByUser")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID))

	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("booking_time DESC").
		Find(&bookings).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) HasConfirmedBooking(ctx context.Context, userID, eventID string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "bookingRepository.HasConfirmedBooking")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("user_id = ? AND event_id = ? AND status = ?", userID, eventID, model.BookingStatusConfirmed).
		Count(&count).Error
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check existing booking: %w", err)
	}

	return count > 0, nil
}

// UpdateStatus runs a single conditional UPDATE ... RETURNING so the caller
// sees the row exactly as written.
func (r *bookingRepository) UpdateStatus(ctx context.Context, bookingID string, from, to model.BookingStatus) (*model.Booking, error) {
	ctx, span := r.tracer.Start(ctx, "bookingRepository.UpdateStatus")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking.id", bookingID),
		attribute.String("booking.status.from", string(from)),
		attribute.String("booking.status", string(to)),
	)

	if _, err := uuid.Parse(bookingID); err != nil {
		return nil, repository.ErrBookingNotFound
	}

	var booking model.Booking
	res := r.db.WithContext(ctx).
		Model(&booking).
		Clauses(clause.Returning{}).
		Where("id = ? AND status = ?", bookingID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		span.RecordError(res.Error)
		return nil, fmt.Errorf("failed to update booking status: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		var count int64
		err := r.db.WithContext(ctx).
			Model(&model.Booking{}).
			Where("id = ?", bookingID).
			Count(&count).Error
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to check booking: %w", err)
		}
		if count == 0 {
			return nil, repository.ErrBookingNotFound
		}
		return nil, repository.ErrStatusChanged
	}

	return &booking, nil
}

func (r *bookingRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

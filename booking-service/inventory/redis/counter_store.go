package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/arunvm123/concertbooking/booking-service/inventory"
	"github.com/arunvm123/concertbooking/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const scanBatchSize = 100

// Returns -1 when the key is missing, 0 when sold out, 1 after a decrement.
var decrementScript = redis.NewScript(`
local value = redis.call('GET', KEYS[1])
if not value then
	return -1
end
if tonumber(value) > 0 then
	redis.call('DECR', KEYS[1])
	return 1
end
return 0
`)

// Returns -1 when the key is missing, 1 after an increment.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('INCR', KEYS[1])
	return 1
end
return -1
`)

type counterStore struct {
	client *redis.Client
	logger *zap.Logger
	tracer trace.Tracer
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func NewCounterStore(client *redis.Client, logger *zap.Logger) inventory.CounterStore {
	return &counterStore{
		client: client,
		logger: logger,
		tracer: otel.Tracer("booking-service/inventory/redis"),
	}
}

func (s *counterStore) Initialize(ctx context.Context, key inventory.Key, count int64) error {
	ctx, span := s.tracer.Start(ctx, "inventory.Initialize")
	defer span.End()

	span.SetAttributes(
		attribute.String("inventory.key", key.String()),
		attribute.Int64("inventory.count", count),
	)

	if err := key.Validate(); err != nil {
		return err
	}
	if count < 0 {
		return inventory.ErrInvalidCount
	}

	if err := s.client.Set(ctx, key.String(), count, 0).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "set failed")
		return fmt.Errorf("failed to initialize inventory %s: %w", key, err)
	}

	logger.Info(ctx, s.logger, "Inventory initialized",
		zap.String("inventory_key", key.String()),
		zap.Int64("count", count),
	)

	return nil
}

func (s *counterStore) TryDecrement(ctx context.Context, key inventory.Key) inventory.DecrementResult {
	ctx, span := s.tracer.Start(ctx, "inventory.TryDecrement")
	defer span.End()

	span.SetAttributes(attribute.String("inventory.key", key.String()))

	res, err := decrementScript.Run(ctx, s.client, []string{key.String()}).Int64()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decrement script failed")
		logger.Error(ctx, s.logger, "Inventory decrement failed",
			zap.String("inventory_key", key.String()),
			zap.Error(err),
		)
		return inventory.DecrementError
	}

	var result inventory.DecrementResult
	switch res {
	case 1:
		result = inventory.DecrementSuccess
	case 0:
		result = inventory.DecrementSoldOut
	case -1:
		result = inventory.DecrementKeyNotFound
	default:
		logger.Error(ctx, s.logger, "Unexpected decrement script result",
			zap.String("inventory_key", key.String()),
			zap.Int64("result", res),
		)
		result = inventory.DecrementError
	}

	span.SetAttributes(attribute.String("inventory.result", result.String()))
	return result
}

func (s *counterStore) TryIncrement(ctx context.Context, key inventory.Key) inventory.IncrementResult {
	ctx, span := s.tracer.Start(ctx, "inventory.TryIncrement")
	defer span.End()

	span.SetAttributes(attribute.String("inventory.key", key.String()))

	res, err := incrementScript.Run(ctx, s.client, []string{key.String()}).Int64()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "increment script failed")
		logger.Error(ctx, s.logger, "Inventory increment failed",
			zap.String("inventory_key", key.String()),
			zap.Error(err),
		)
		return inventory.IncrementError
	}

	var result inventory.IncrementResult
	switch res {
	case 1:
		result = inventory.IncrementSuccess
	case -1:
		result = inventory.IncrementKeyNotFound
	default:
		logger.Error(ctx, s.logger, "Unexpected increment script result",
			zap.String("inventory_key", key.String()),
			zap.Int64("result", res),
		)
		result = inventory.IncrementError
	}

	span.SetAttributes(attribute.String("inventory.result", result.String()))
	return result
}

func (s *counterStore) Get(ctx context.Context, key inventory.Key) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.Get")
	defer span.End()

	count, err := s.client.Get(ctx, key.String()).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, inventory.ErrKeyNotFound
		}
		span.RecordError(err)
		return 0, fmt.Errorf("failed to get inventory %s: %w", key, err)
	}

	return count, nil
}

func (s *counterStore) ClearAll(ctx context.Context, eventID string) error {
	ctx, span := s.tracer.Start(ctx, "inventory.ClearAll")
	defer span.End()

	span.SetAttributes(attribute.String("event.id", eventID))

	pattern := inventory.EventPattern(eventID)
	var (
		cursor  uint64
		removed int64
	)

	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to scan inventory keys for event %s: %w", eventID, err)
		}

		owned := keys[:0]
		for _, k := range keys {
			if inventory.BelongsTo(k, eventID) {
				owned = append(owned, k)
			}
		}

		if len(owned) > 0 {
			n, err := s.client.Del(ctx, owned...).Result()
			if err != nil {
				span.RecordError(err)
				return fmt.Errorf("failed to delete inventory keys for event %s: %w", eventID, err)
			}
			removed += n
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	logger.Info(ctx, s.logger, "Inventory cleared",
		zap.String("event_id", eventID),
		zap.Int64("removed", removed),
	)

	return nil
}

func (s *counterStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

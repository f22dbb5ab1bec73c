package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arunvm123/concertbooking/booking-service/cache"
	"github.com/arunvm123/concertbooking/booking-service/service"
	"github.com/redis/go-redis/v9"
)

type RedisCacheRepository struct {
	client *redis.Client
}

func NewRedisCacheRepository(client *redis.Client) *RedisCacheRepository {
	return &RedisCacheRepository{client: client}
}

var _ cache.CacheRepository = (*RedisCacheRepository)(nil)

// Cache key generator
func (r *RedisCacheRepository) eventDetailKey(eventID string) string {
	return fmt.Sprintf("catalog:event:%s", eventID)
}

// GetEventDetail retrieves event detail from cache
func (r *RedisCacheRepository) GetEventDetail(ctx context.Context, eventID string) (*service.EventDetail, error) {
	data, err := r.client.Get(ctx, r.eventDetailKey(eventID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var detail service.EventDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, err
	}

	return &detail, nil
}

// SetEventDetail stores event detail in cache
func (r *RedisCacheRepository) SetEventDetail(ctx context.Context, eventID string, detail *service.EventDetail, ttl time.Duration) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, r.eventDetailKey(eventID), data, ttl).Err()
}

// InvalidateEventDetail removes event detail from cache
func (r *RedisCacheRepository) InvalidateEventDetail(ctx context.Context, eventID string) error {
	return r.client.Del(ctx, r.eventDetailKey(eventID)).Err()
}

// Ping checks if Redis is healthy
func (r *RedisCacheRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

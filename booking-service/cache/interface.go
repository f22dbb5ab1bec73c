package cache

import (
	"context"
	"time"

	"github.com/arunvm123/concertbooking/booking-service/service"
)

// CacheRepository defines the interface for catalog caching operations
type CacheRepository interface {
	// GetEventDetail returns nil, nil on a cache miss
	GetEventDetail(ctx context.Context, eventID string) (*service.EventDetail, error)
	SetEventDetail(ctx context.Context, eventID string, detail *service.EventDetail, ttl time.Duration) error
	InvalidateEventDetail(ctx context.Context, eventID string) error

	// Health check
	Ping(ctx context.Context) error
}

package cache

import (
	"context"
	"time"

	"github.com/arunvm123/concertbooking/booking-service/service"
	"github.com/arunvm123/concertbooking/pkg/logger"
	"go.uber.org/zap"
)

type cachedCatalogClient struct {
	next   service.CatalogClient
	cache  CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCatalogClient serves GetEventDetail from the cache for ttl.
// Cache failures fall through to the wrapped client.
func NewCachedCatalogClient(next service.CatalogClient, cache CacheRepository, ttl time.Duration, logger *zap.Logger) service.CatalogClient {
	return &cachedCatalogClient{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *cachedCatalogClient) GetEventDetail(ctx context.Context, eventID string) (*service.EventDetail, error) {
	cached, err := c.cache.GetEventDetail(ctx, eventID)
	if err != nil {
		logger.Warn(ctx, c.logger, "Catalog cache read failed",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	}
	if cached != nil {
		return cached, nil
	}

	detail, err := c.next.GetEventDetail(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetEventDetail(ctx, eventID, detail, c.ttl); err != nil {
		logger.Warn(ctx, c.logger, "Catalog cache write failed",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	}

	return detail, nil
}

func (c *cachedCatalogClient) ListEventsToDisable(ctx context.Context) ([]string, error) {
	return c.next.ListEventsToDisable(ctx)
}

func (c *cachedCatalogClient) DisableBooking(ctx context.Context, eventID string) error {
	if err := c.next.DisableBooking(ctx, eventID); err != nil {
		return err
	}

	if err := c.cache.InvalidateEventDetail(ctx, eventID); err != nil {
		logger.Warn(ctx, c.logger, "Catalog cache invalidation failed",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	}

	return nil
}

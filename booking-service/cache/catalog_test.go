package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/arunvm123/concertbooking/booking-service/cache"
	cacheredis "github.com/arunvm123/concertbooking/booking-service/cache/redis"
	"github.com/arunvm123/concertbooking/booking-service/service"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingCatalog struct {
	detail   *service.EventDetail
	err      error
	gets     int
	disabled []string
}

func (c *countingCatalog) GetEventDetail(ctx context.Context, eventID string) (*service.EventDetail, error) {
	c.gets++
	if c.err != nil {
		return nil, c.err
	}
	return c.detail, nil
}

func (c *countingCatalog) ListEventsToDisable(ctx context.Context) ([]string, error) {
	return []string{"c1"}, nil
}

func (c *countingCatalog) DisableBooking(ctx context.Context, eventID string) error {
	c.disabled = append(c.disabled, eventID)
	return nil
}

func setup(t *testing.T) (*miniredis.Miniredis, *countingCatalog, service.CatalogClient) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	upstream := &countingCatalog{detail: &service.EventDetail{
		ID:               "c1",
		Name:             "Night Show",
		StartTime:        time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC),
		IsBookingEnabled: true,
		SeatClasses:      []service.SeatClass{{ID: "vip", Name: "VIP", Price: 50}},
	}}

	return mr, upstream, cache.NewCachedCatalogClient(upstream, cacheredis.NewRedisCacheRepository(client), time.Minute, zap.NewNop())
}

func TestCachedCatalogServesRepeatReadsFromCache(t *testing.T) {
	_, upstream, client := setup(t)
	ctx := context.Background()

	first, err := client.GetEventDetail(ctx, "c1")
	require.NoError(t, err)
	second, err := client.GetEventDetail(ctx, "c1")
	require.NoError(t, err)

	require.Equal(t, 1, upstream.gets)
	require.Equal(t, first.Name, second.Name)
	require.True(t, first.StartTime.Equal(second.StartTime))
	require.Len(t, second.SeatClasses, 1)
}

func TestCachedCatalogExpires(t *testing.T) {
	mr, upstream, client := setup(t)
	ctx := context.Background()

	_, err := client.GetEventDetail(ctx, "c1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = client.GetEventDetail(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 2, upstream.gets)
}

func TestCachedCatalogDoesNotCacheErrors(t *testing.T) {
	_, upstream, client := setup(t)
	upstream.err = service.ErrEventNotFound

	_, err := client.GetEventDetail(context.Background(), "c1")
	require.ErrorIs(t, err, service.ErrEventNotFound)
	_, err = client.GetEventDetail(context.Background(), "c1")
	require.ErrorIs(t, err, service.ErrEventNotFound)
	require.Equal(t, 2, upstream.gets)
}

func TestCachedCatalogFallsThroughWhenRedisIsDown(t *testing.T) {
	mr, upstream, client := setup(t)
	mr.Close()

	detail, err := client.GetEventDetail(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, "Night Show", detail.Name)
	require.Equal(t, 1, upstream.gets)
}

func TestDisableBookingInvalidatesCache(t *testing.T) {
	_, upstream, client := setup(t)
	ctx := context.Background()

	_, err := client.GetEventDetail(ctx, "c1")
	require.NoError(t, err)

	require.NoError(t, client.DisableBooking(ctx, "c1"))
	require.Equal(t, []string{"c1"}, upstream.disabled)

	_, err = client.GetEventDetail(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 2, upstream.gets)
}

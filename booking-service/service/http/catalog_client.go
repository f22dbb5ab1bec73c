package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/arunvm123/concertbooking/booking-service/config"
	"github.com/arunvm123/concertbooking/booking-service/service"
	"github.com/arunvm123/concertbooking/pkg/breaker"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBody = 512

type HTTPCatalogClient struct {
	baseURL     string
	serviceAuth string
	httpClient  *http.Client
	cb          *gobreaker.CircuitBreaker
}

// NewHTTPCatalogClientWithConfig creates a catalog client with connection
// pooling, tracing and a circuit breaker around every call
func NewHTTPCatalogClientWithConfig(cfg *config.CatalogService, serviceAuth string) *HTTPCatalogClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     time.Duration(cfg.IdleConnTimeout) * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPCatalogClient{
		baseURL:     cfg.BaseURL,
		serviceAuth: serviceAuth,
		httpClient: &http.Client{
			Timeout:   time.Duration(cfg.RequestTimeout) * time.Second,
			Transport: otelhttp.NewTransport(transport),
		},
		cb: breaker.New("catalog-service", cfg.Breaker, service.ErrEventNotFound),
	}
}

// GetEventDetail retrieves event and seat class information
func (c *HTTPCatalogClient) GetEventDetail(ctx context.Context, eventID string) (*service.EventDetail, error) {
	endpoint := fmt.Sprintf("%s/api/concerts/%s", c.baseURL, url.PathEscape(eventID))

	detail, err := breaker.Execute(c.cb, func() (*service.EventDetail, error) {
		var detail service.EventDetail
		if err := c.do(ctx, http.MethodGet, endpoint, &detail); err != nil {
			return nil, err
		}
		return &detail, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	return detail, nil
}

type eventIDsResponse struct {
	EventIDs []string `json:"eventIds"`
}

// ListEventsToDisable returns started events that still accept bookings
func (c *HTTPCatalogClient) ListEventsToDisable(ctx context.Context) ([]string, error) {
	endpoint := fmt.Sprintf("%s/api/internal/concerts/to-disable", c.baseURL)

	ids, err := breaker.Execute(c.cb, func() ([]string, error) {
		var resp eventIDsResponse
		if err := c.do(ctx, http.MethodGet, endpoint, &resp); err != nil {
			return nil, err
		}
		return resp.EventIDs, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	return ids, nil
}

// DisableBooking marks the event as no longer bookable
func (c *HTTPCatalogClient) DisableBooking(ctx context.Context, eventID string) error {
	endpoint := fmt.Sprintf("%s/api/internal/concerts/%s/disable-booking", c.baseURL, url.PathEscape(eventID))

	_, err := breaker.Execute(c.cb, func() (struct{}, error) {
		return struct{}{}, c.do(ctx, http.MethodPost, endpoint, nil)
	})
	if err != nil {
		return classify(err)
	}

	return nil
}

func (c *HTTPCatalogClient) do(ctx context.Context, method, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Add internal service authentication header
	req.Header.Set("X-Service-Auth", c.serviceAuth)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return service.ErrEventNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("catalog service error (status %d): %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// classify keeps ErrEventNotFound and folds every other failure, including
// an open breaker, into ErrCatalogUnavailable.
func classify(err error) error {
	if errors.Is(err, service.ErrEventNotFound) {
		return service.ErrEventNotFound
	}
	return fmt.Errorf("%w: %v", service.ErrCatalogUnavailable, err)
}

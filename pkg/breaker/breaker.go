package breaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

type Config struct {
	MaxRequests      uint32        `yaml:"max_requests" env:"BREAKER_MAX_REQUESTS" env-default:"3"`
	Interval         time.Duration `yaml:"interval" env:"BREAKER_INTERVAL" env-default:"60s"`
	Timeout          time.Duration `yaml:"timeout" env:"BREAKER_TIMEOUT" env-default:"30s"`
	ConsecutiveFails uint32        `yaml:"consecutive_failures" env:"BREAKER_CONSECUTIVE_FAILURES" env-default:"5"`
}

// New returns a breaker that opens after ConsecutiveFails failures in a row.
// Errors matching one of expected count as successful calls.
func New(name string, cfg Config, expected ...error) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFails
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			for _, e := range expected {
				if errors.Is(err, e) {
					return true
				}
			}
			return false
		},
	})
}

func Execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})

	if err != nil {
		return *new(T), err
	}

	return res.(T), nil
}

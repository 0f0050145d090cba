// Package resilience guards outbound provider calls with circuit breakers so
// a flapping provider is skipped by the fallback chain instead of adding a
// round-trip of latency to every request.
package resilience

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/asiaspanel/voicegate/internal/errorsx"
)

// RateLimitError represents a provider quota / rate limit response.
type RateLimitError struct {
	Provider string
	Message  string
}

func (e RateLimitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "rate limit"
}

// IsRateLimit returns true when the error is a RateLimitError.
func IsRateLimit(err error) bool {
	var rl RateLimitError
	return errors.As(err, &rl)
}

// Breaker wraps a provider invocation with a circuit breaker. An open
// breaker surfaces as a breaker_open reasoned error, which the orchestrator
// treats like an unavailable provider.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn through the breaker, returning its payload on success.
func (b *Breaker) Execute(fn func() ([]byte, error)) ([]byte, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errorsx.Wrap(err, errorsx.ReasonBreakerOpen)
		}
		return nil, err
	}
	data, _ := out.([]byte)
	return data, nil
}

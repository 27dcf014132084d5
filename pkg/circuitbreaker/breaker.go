// Package circuitbreaker shields callers from a misbehaving backend by
// tripping after repeated consecutive failures. It is a thin generic layer
// over gobreaker so call sites keep their concrete result types.
package circuitbreaker

import (
	"errors"

	"github.com/sony/gobreaker/v2"
)

type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New builds a breaker from cfg. A disabled config yields nil, which
// Execute treats as a plain pass-through, so callers never branch on it.
func New[T any](cfg Config) *CircuitBreaker[T] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: uint32(cfg.MaxRequests),
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.FailureThreshold)
		},
	}

	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

func (c *CircuitBreaker[T]) Name() string {
	return c.cb.Name()
}

// Execute runs fn through the breaker, translating gobreaker's state errors
// into this package's sentinels. ErrCircuitOpen means the breaker is open;
// ErrTooManyRequests means the half-open probe budget is spent.
func Execute[T any](cb *CircuitBreaker[T], fn func() (T, error)) (T, error) {
	if cb == nil {
		return fn()
	}

	result, err := cb.cb.Execute(fn)

	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		var zero T

		return zero, ErrCircuitOpen
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		var zero T

		return zero, ErrTooManyRequests
	}

	return result, err
}

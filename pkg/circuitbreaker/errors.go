package circuitbreaker

import "errors"

var (
	// ErrCircuitOpen is returned while the breaker is rejecting calls to
	// let the backend recover.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrTooManyRequests is returned when the half-open probe allowance
	// is already in use.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

package circuitbreaker

import "time"

// Config mirrors gobreaker's settings with an Enabled switch on top.
type Config struct {
	// Name shows up in logs when the breaker changes state.
	Name string

	// Enabled gates construction; when false New returns nil.
	Enabled bool

	// MaxRequests caps concurrent probes while half-open (0 means 1).
	MaxRequests uint

	// Interval resets the failure counts while closed (0 never resets).
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration

	// FailureThreshold is the consecutive-failure count that trips the
	// breaker open.
	FailureThreshold uint
}

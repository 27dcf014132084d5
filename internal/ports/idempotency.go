package ports

import (
	"context"
	"time"
)

type (
	// CachedResponse is a completed mutation response stored for replay.
	CachedResponse struct {
		StatusCode int               `json:"status_code"`
		Headers    map[string]string `json:"headers"`
		Body       []byte            `json:"body"`
		CreatedAt  time.Time         `json:"created_at"`
	}

	// IdempotencyCache stores responses keyed by idempotency key so
	// retried mutations replay the original outcome instead of running
	// twice.
	IdempotencyCache interface {
		Get(ctx context.Context, key string) (*CachedResponse, error)
		Set(ctx context.Context, key string, response *CachedResponse, ttl time.Duration) error
		SetLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
		ReleaseLock(ctx context.Context, key string) error
	}
)

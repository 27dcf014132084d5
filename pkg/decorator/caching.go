package decorator

import (
	"context"
	"time"
)

type (
	// CacheStatus reports how a query interacted with its cache.
	CacheStatus string

	cacheStatusKey struct{}

	// CacheConfig controls the caching decorator.
	CacheConfig struct {
		Enabled bool
		TTL     time.Duration
	}

	// Cache is the read-through store a caching decorator works against.
	// Get reports whether the entry was present; Set stores the result
	// under the query with the given TTL.
	Cache[Q Query, R Result] interface {
		Get(ctx context.Context, query Q) (R, bool, error)
		Set(ctx context.Context, query Q, result R, ttl time.Duration) error
	}

	queryCachingDecorator[Q Query, R Result] struct {
		base   QueryHandler[Q, R]
		cache  Cache[Q, R]
		config CacheConfig
	}
)

const (
	CacheStatusHit    CacheStatus = "HIT"
	CacheStatusMiss   CacheStatus = "MISS"
	CacheStatusBypass CacheStatus = "BYPASS"
	CacheStatusError  CacheStatus = "ERROR"
)

// WithCacheStatus stamps the cache status onto the context so downstream
// decorators can report it.
func WithCacheStatus(ctx context.Context, status CacheStatus) context.Context {
	return context.WithValue(ctx, cacheStatusKey{}, status)
}

// GetCacheStatus returns the stamped status, defaulting to BYPASS.
func GetCacheStatus(ctx context.Context) CacheStatus {
	if status, ok := ctx.Value(cacheStatusKey{}).(CacheStatus); ok {
		return status
	}

	return CacheStatusBypass
}

// NewQueryCachingDecorator wraps a query handler with a read-through cache.
// Misses are stored in the background so callers never wait on the write.
func NewQueryCachingDecorator[Q Query, R Result](
	base QueryHandler[Q, R],
	cache Cache[Q, R],
	config CacheConfig,
) QueryHandler[Q, R] {
	return queryCachingDecorator[Q, R]{
		base:   base,
		cache:  cache,
		config: config,
	}
}

func (d queryCachingDecorator[Q, R]) Execute(ctx context.Context, query Q) (R, error) {
	if !d.config.Enabled || d.cache == nil {
		return d.base.Execute(WithCacheStatus(ctx, CacheStatusBypass), query)
	}

	if cached, hit, err := d.cache.Get(ctx, query); err == nil && hit {
		return cached, nil
	}

	result, err := d.base.Execute(WithCacheStatus(ctx, CacheStatusMiss), query)
	if err != nil {
		var zero R

		return zero, err
	}

	// Populate off the request path; a failed write only costs a re-fetch.
	go func() {
		_ = d.cache.Set(context.Background(), query, result, d.config.TTL)
	}()

	return result, nil
}

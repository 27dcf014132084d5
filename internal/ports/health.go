package ports

import "context"

// DatabaseHealthChecker verifies database connectivity for readiness probes.
type DatabaseHealthChecker interface {
	Ping(ctx context.Context) error
}

// CacheHealthChecker verifies the session store is reachable.
type CacheHealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

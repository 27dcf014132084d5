package ports

import (
	"context"

	"github.com/medrail/casebook/internal/domain/model"
)

// CacheVersionRepository persists the per-(country, type) version counters
// that drive client staleness detection.
type CacheVersionRepository interface {
	// ListForCountry returns every version row scoped to the country or to
	// the GLOBAL pseudo-country, newest first.
	ListForCountry(ctx context.Context, country string) ([]model.CacheVersion, error)

	// Bump upserts the (country, versionType) row with a fresh monotonic
	// version number and returns the stored row.
	Bump(ctx context.Context, country, versionType, tableName, updatedBy, reason string) (model.CacheVersion, error)
}

package repos

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/pkg/logger"
)

const cacheVersionsTable = "cache_versions"

var cacheVersionColumns = []string{
	"country", "version_type", "version_number", "table_name", "updated_at", "updated_by", "reason",
}

type (
	cacheVersionRow struct {
		Country       string    `db:"country"`
		VersionType   string    `db:"version_type"`
		VersionNumber int64     `db:"version_number"`
		TableName     string    `db:"table_name"`
		UpdatedAt     time.Time `db:"updated_at"`
		UpdatedBy     string    `db:"updated_by"`
		Reason        string    `db:"reason"`
	}

	// CacheVersionsRepository persists the per-(country, type) version
	// counters. Rows are only upserted, never deleted.
	CacheVersionsRepository struct {
		pool    PoolOps
		scanner Scanner
		logger  logger.Logger
		now     func() time.Time
	}
)

// NewCacheVersionsRepository creates a repository over the given pool.
func NewCacheVersionsRepository(pool PoolOps, scanner Scanner, log logger.Logger) *CacheVersionsRepository {
	return &CacheVersionsRepository{
		pool:    pool,
		scanner: scanner,
		logger:  log,
		now:     time.Now,
	}
}

// ListForCountry returns every version row scoped to the country or GLOBAL,
// newest first.
func (r *CacheVersionsRepository) ListForCountry(ctx context.Context, country string) ([]model.CacheVersion, error) {
	query, args, err := psql.Select(cacheVersionColumns...).
		From(cacheVersionsTable).
		Where(sq.Eq{"country": []string{country, model.CountryGlobal}}).
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var versionRows []cacheVersionRow
	if err := r.scanner.ScanAll(&versionRows, rows); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	versions := make([]model.CacheVersion, 0, len(versionRows))
	for _, row := range versionRows {
		versions = append(versions, convertRowToCacheVersion(row))
	}

	return versions, nil
}

// Bump upserts the (country, versionType) row with a fresh version number.
func (r *CacheVersionsRepository) Bump(
	ctx context.Context,
	country, versionType, tableName, updatedBy, reason string,
) (model.CacheVersion, error) {
	now := r.now().UTC()

	version := model.CacheVersion{
		Country:       country,
		VersionType:   versionType,
		VersionNumber: model.NewVersionNumber(now),
		TableName:     tableName,
		UpdatedAt:     now,
		UpdatedBy:     updatedBy,
		Reason:        reason,
	}

	query, args, err := upsertCacheVersionSQL(version)
	if err != nil {
		return model.CacheVersion{}, fmt.Errorf("failed to build upsert query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return model.CacheVersion{}, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	r.logger.Debug().
		Str("country", country).
		Str("version_type", versionType).
		Int64("version_number", version.VersionNumber).
		Str("reason", reason).
		Msg("cache version bumped")

	return version, nil
}

// Ping verifies database connectivity.
func (r *CacheVersionsRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// upsertCacheVersionSQL builds the ON CONFLICT upsert shared by the direct
// bump path and the transactional catalog write path.
func upsertCacheVersionSQL(version model.CacheVersion) (string, []any, error) {
	return psql.Insert(cacheVersionsTable).
		Columns(cacheVersionColumns...).
		Values(
			version.Country,
			version.VersionType,
			version.VersionNumber,
			version.TableName,
			version.UpdatedAt,
			version.UpdatedBy,
			version.Reason,
		).
		Suffix(`ON CONFLICT (country, version_type) DO UPDATE SET
			version_number = EXCLUDED.version_number,
			table_name = EXCLUDED.table_name,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by,
			reason = EXCLUDED.reason`).
		ToSql()
}

func convertRowToCacheVersion(row cacheVersionRow) model.CacheVersion {
	return model.CacheVersion{
		Country:       row.Country,
		VersionType:   row.VersionType,
		VersionNumber: row.VersionNumber,
		TableName:     row.TableName,
		UpdatedAt:     row.UpdatedAt,
		UpdatedBy:     row.UpdatedBy,
		Reason:        row.Reason,
	}
}

package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/internal/ports"
	"github.com/medrail/casebook/pkg/logger"
)

var catalogColumns = []string{"id", "country", "name", "active", "created_at", "updated_at"}

type (
	catalogRow struct {
		ID        string    `db:"id"`
		Country   string    `db:"country"`
		Name      string    `db:"name"`
		Active    bool      `db:"active"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	// CatalogRepository persists the country-scoped master data. Every
	// write bumps the matching cache version row in the same transaction,
	// so a committed change is always observable by the reconciler.
	CatalogRepository struct {
		pool    PoolOps
		scanner Scanner
		logger  logger.Logger
		now     func() time.Time
	}
)

func NewCatalogRepository(pool PoolOps, scanner Scanner, log logger.Logger) *CatalogRepository {
	return &CatalogRepository{
		pool:    pool,
		scanner: scanner,
		logger:  log,
		now:     time.Now,
	}
}

func (r *CatalogRepository) List(ctx context.Context, kind model.CatalogKind, country string) ([]model.CatalogItem, error) {
	query, args, err := psql.Select(catalogColumns...).
		From(kind.Table).
		Where(sq.Eq{"country": country}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var catalogRows []catalogRow
	if err := r.scanner.ScanAll(&catalogRows, rows); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	items := make([]model.CatalogItem, 0, len(catalogRows))
	for _, row := range catalogRows {
		item, err := convertRowToCatalogItem(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
		}

		items = append(items, item)
	}

	return items, nil
}

func (r *CatalogRepository) Create(
	ctx context.Context,
	kind model.CatalogKind,
	item model.CatalogItem,
	mutation ports.CatalogMutation,
) error {
	query, args, err := psql.Insert(kind.Table).
		Columns(catalogColumns...).
		Values(
			item.ID.String(),
			item.Country,
			item.Name,
			item.Active,
			item.CreatedAt,
			item.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	return r.writeAndBump(ctx, kind, item.Country, mutation, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			if isDuplicateKeyError(err) {
				return model.ErrDuplicate
			}

			return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
		}

		return nil
	})
}

func (r *CatalogRepository) Update(
	ctx context.Context,
	kind model.CatalogKind,
	item model.CatalogItem,
	mutation ports.CatalogMutation,
) error {
	query, args, err := psql.Update(kind.Table).
		Set("name", item.Name).
		Set("active", item.Active).
		Set("updated_at", item.UpdatedAt).
		Where(sq.Eq{"id": item.ID.String(), "country": item.Country}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	return r.writeAndBump(ctx, kind, item.Country, mutation, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
		}

		if result.RowsAffected() == 0 {
			return model.ErrNotFound
		}

		return nil
	})
}

func (r *CatalogRepository) Delete(
	ctx context.Context,
	kind model.CatalogKind,
	id model.CatalogID,
	country string,
	mutation ports.CatalogMutation,
) error {
	query, args, err := psql.Delete(kind.Table).
		Where(sq.Eq{"id": id.String(), "country": country}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	return r.writeAndBump(ctx, kind, country, mutation, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
		}

		if result.RowsAffected() == 0 {
			return model.ErrNotFound
		}

		return nil
	})
}

func (r *CatalogRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// writeAndBump runs the mutation and the cache version upsert in one
// transaction.
func (r *CatalogRepository) writeAndBump(
	ctx context.Context,
	kind model.CatalogKind,
	country string,
	mutation ports.CatalogMutation,
	write func(tx pgx.Tx) error,
) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			r.logger.Warn().Err(rollbackErr).Msg("failed to roll back catalog transaction")
		}
	}()

	if err := write(tx); err != nil {
		return err
	}

	now := r.now().UTC()

	version := model.CacheVersion{
		Country:       country,
		VersionType:   kind.VersionType,
		VersionNumber: model.NewVersionNumber(now),
		TableName:     kind.Table,
		UpdatedAt:     now,
		UpdatedBy:     mutation.UpdatedBy,
		Reason:        mutation.Reason,
	}

	query, args, err := upsertCacheVersionSQL(version)
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return nil
}

func convertRowToCatalogItem(row catalogRow) (model.CatalogItem, error) {
	id, err := model.ParseCatalogID(row.ID)
	if err != nil {
		return model.CatalogItem{}, fmt.Errorf("failed to parse catalog ID: %w", err)
	}

	return model.CatalogItem{
		ID:        id,
		Country:   row.Country,
		Name:      row.Name,
		Active:    row.Active,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

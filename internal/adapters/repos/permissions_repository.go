package repos

import (
	"context"
	"fmt"

	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/pkg/logger"
)

const permissionsTable = "permissions"

type (
	permissionRow struct {
		RoleID   string `db:"role_id"`
		ActionID string `db:"action_id"`
		Allowed  bool   `db:"allowed"`
	}

	// PermissionsRepository loads the role/action matrix in bulk.
	PermissionsRepository struct {
		pool    PoolOps
		scanner Scanner
		logger  logger.Logger
	}
)

func NewPermissionsRepository(pool PoolOps, scanner Scanner, log logger.Logger) *PermissionsRepository {
	return &PermissionsRepository{
		pool:    pool,
		scanner: scanner,
		logger:  log,
	}
}

// ListAll fetches every permission row.
func (r *PermissionsRepository) ListAll(ctx context.Context) ([]model.Permission, error) {
	query, args, err := psql.Select("role_id", "action_id", "allowed").
		From(permissionsTable).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var permissionRows []permissionRow
	if err := r.scanner.ScanAll(&permissionRows, rows); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	permissions := make([]model.Permission, 0, len(permissionRows))
	for _, row := range permissionRows {
		permissions = append(permissions, model.Permission{
			RoleID:   row.RoleID,
			ActionID: row.ActionID,
			Allowed:  row.Allowed,
		})
	}

	return permissions, nil
}

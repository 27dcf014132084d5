package ports

import (
	"context"

	"github.com/medrail/casebook/internal/domain/model"
)

// PermissionRepository loads the role/action permission matrix in bulk.
type PermissionRepository interface {
	ListAll(ctx context.Context) ([]model.Permission, error)
}

// PermissionChecker answers synchronous permission lookups from an
// in-memory cache. It gates UI affordances only; real enforcement lives in
// the database policies.
type PermissionChecker interface {
	HasPermission(ctx context.Context, roleID, actionID string) bool
	Initialize(ctx context.Context, forceRefresh bool) error
	ClearCache(userID string)
	ClearAll()
}

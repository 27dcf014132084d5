package queries

import (
	"context"

	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/pkg/decorator"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/medrail/casebook/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	CheckPermissionQuery struct {
		// UserID is optional; when present the decision is memoized
		// per user so it can be dropped on a per-user cache clear.
		UserID   string
		RoleID   string
		ActionID string
	}

	PermissionDecision struct {
		RoleID   string `json:"role_id"`
		ActionID string `json:"action_id"`
		Allowed  bool   `json:"allowed"`
	}

	CheckPermissionQueryHandler = decorator.QueryHandler[CheckPermissionQuery, PermissionDecision]

	// PermissionAnswerer is the slice of the permission service this
	// query uses.
	PermissionAnswerer interface {
		HasPermission(ctx context.Context, roleID, actionID string) bool
		HasPermissionForUser(ctx context.Context, userID, roleID, actionID string) bool
	}

	checkPermissionQueryHandler struct {
		permissions PermissionAnswerer
	}
)

func NewCheckPermissionQueryHandler(
	permissions PermissionAnswerer,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) CheckPermissionQueryHandler {
	return decorator.ApplyQueryDecorators[CheckPermissionQuery, PermissionDecision](
		checkPermissionQueryHandler{permissions: permissions},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h checkPermissionQueryHandler) Execute(ctx context.Context, query CheckPermissionQuery) (PermissionDecision, error) {
	if query.RoleID == "" {
		return PermissionDecision{}, model.ErrInvalidRole
	}

	if query.ActionID == "" {
		return PermissionDecision{}, model.ErrInvalidAction
	}

	var allowed bool
	if query.UserID != "" {
		allowed = h.permissions.HasPermissionForUser(ctx, query.UserID, query.RoleID, query.ActionID)
	} else {
		allowed = h.permissions.HasPermission(ctx, query.RoleID, query.ActionID)
	}

	return PermissionDecision{
		RoleID:   query.RoleID,
		ActionID: query.ActionID,
		Allowed:  allowed,
	}, nil
}

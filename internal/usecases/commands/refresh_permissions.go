package commands

import (
	"context"

	"github.com/medrail/casebook/internal/ports"
	"github.com/medrail/casebook/pkg/decorator"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/medrail/casebook/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	RefreshPermissionsCommand struct {
		Force bool
	}

	RefreshPermissionsCommandHandler = decorator.CommandHandler[RefreshPermissionsCommand, struct{}]

	refreshPermissionsCommandHandler struct {
		permissions ports.PermissionChecker
	}
)

func NewRefreshPermissionsCommandHandler(
	permissions ports.PermissionChecker,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) RefreshPermissionsCommandHandler {
	return decorator.ApplyCommandDecorators[RefreshPermissionsCommand, struct{}](
		refreshPermissionsCommandHandler{permissions: permissions},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h refreshPermissionsCommandHandler) Handle(ctx context.Context, cmd RefreshPermissionsCommand) (struct{}, error) {
	return struct{}{}, h.permissions.Initialize(ctx, cmd.Force)
}

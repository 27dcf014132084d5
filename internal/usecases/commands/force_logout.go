package commands

import (
	"context"

	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/pkg/decorator"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/medrail/casebook/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	ForceLogoutCommand struct {
		SessionID string
	}

	ForceLogoutCommandHandler = decorator.CommandHandler[ForceLogoutCommand, struct{}]

	// SessionTerminator is the slice of the reconciler this command uses.
	SessionTerminator interface {
		ForceLogout(ctx context.Context, sessionID string) error
	}

	forceLogoutCommandHandler struct {
		reconciler SessionTerminator
	}
)

func NewForceLogoutCommandHandler(
	reconciler SessionTerminator,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) ForceLogoutCommandHandler {
	return decorator.ApplyCommandDecorators[ForceLogoutCommand, struct{}](
		forceLogoutCommandHandler{reconciler: reconciler},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h forceLogoutCommandHandler) Handle(ctx context.Context, cmd ForceLogoutCommand) (struct{}, error) {
	if cmd.SessionID == "" {
		return struct{}{}, model.ErrEmptySessionID
	}

	return struct{}{}, h.reconciler.ForceLogout(ctx, cmd.SessionID)
}

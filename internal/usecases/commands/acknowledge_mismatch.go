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
	AcknowledgeMismatchCommand struct {
		SessionID string
		Signature string
	}

	AcknowledgeMismatchCommandHandler = decorator.CommandHandler[AcknowledgeMismatchCommand, struct{}]

	// MismatchAcknowledger is the slice of the reconciler this command uses.
	MismatchAcknowledger interface {
		Acknowledge(ctx context.Context, sessionID, signature string) error
	}

	acknowledgeMismatchCommandHandler struct {
		reconciler MismatchAcknowledger
	}
)

func NewAcknowledgeMismatchCommandHandler(
	reconciler MismatchAcknowledger,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) AcknowledgeMismatchCommandHandler {
	return decorator.ApplyCommandDecorators[AcknowledgeMismatchCommand, struct{}](
		acknowledgeMismatchCommandHandler{reconciler: reconciler},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h acknowledgeMismatchCommandHandler) Handle(ctx context.Context, cmd AcknowledgeMismatchCommand) (struct{}, error) {
	if cmd.SessionID == "" {
		return struct{}{}, model.ErrEmptySessionID
	}

	return struct{}{}, h.reconciler.Acknowledge(ctx, cmd.SessionID, cmd.Signature)
}

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
	CheckCacheVersionsQuery struct {
		SessionID string
		Country   string
	}

	CheckCacheVersionsQueryHandler = decorator.QueryHandler[CheckCacheVersionsQuery, model.MismatchReport]

	// VersionChecker is the slice of the reconciler this query uses.
	VersionChecker interface {
		Check(ctx context.Context, sessionID, country string) (model.MismatchReport, error)
	}

	checkCacheVersionsQueryHandler struct {
		reconciler VersionChecker
	}
)

func NewCheckCacheVersionsQueryHandler(
	reconciler VersionChecker,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) CheckCacheVersionsQueryHandler {
	return decorator.ApplyQueryDecorators[CheckCacheVersionsQuery, model.MismatchReport](
		checkCacheVersionsQueryHandler{reconciler: reconciler},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h checkCacheVersionsQueryHandler) Execute(ctx context.Context, query CheckCacheVersionsQuery) (model.MismatchReport, error) {
	if query.SessionID == "" {
		return model.MismatchReport{}, model.ErrEmptySessionID
	}

	return h.reconciler.Check(ctx, query.SessionID, query.Country)
}

package commands

import (
	"context"

	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/internal/ports"
	"github.com/medrail/casebook/pkg/decorator"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/medrail/casebook/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	DeleteCatalogItemCommand struct {
		Kind      model.CatalogKind
		ID        model.CatalogID
		Country   string
		UpdatedBy string
		Reason    string
	}

	DeleteCatalogItemCommandHandler = decorator.CommandHandler[DeleteCatalogItemCommand, struct{}]

	deleteCatalogItemCommandHandler struct {
		catalogRepo ports.CatalogRepository
	}
)

func NewDeleteCatalogItemCommandHandler(
	catalogRepo ports.CatalogRepository,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) DeleteCatalogItemCommandHandler {
	return decorator.ApplyCommandDecorators[DeleteCatalogItemCommand, struct{}](
		deleteCatalogItemCommandHandler{catalogRepo: catalogRepo},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h deleteCatalogItemCommandHandler) Handle(ctx context.Context, cmd DeleteCatalogItemCommand) (struct{}, error) {
	if cmd.Country == "" {
		return struct{}{}, model.ErrNoCountry
	}

	err := h.catalogRepo.Delete(ctx, cmd.Kind, cmd.ID, cmd.Country, ports.CatalogMutation{
		UpdatedBy: cmd.UpdatedBy,
		Reason:    cmd.Reason,
	})

	return struct{}{}, err
}

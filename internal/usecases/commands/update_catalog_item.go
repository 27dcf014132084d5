package commands

import (
	"context"
	"time"

	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/internal/ports"
	"github.com/medrail/casebook/pkg/decorator"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/medrail/casebook/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	UpdateCatalogItemCommand struct {
		Kind      model.CatalogKind
		ID        model.CatalogID
		Country   string
		Name      string
		Active    bool
		UpdatedBy string
		Reason    string
	}

	UpdateCatalogItemCommandHandler = decorator.CommandHandler[UpdateCatalogItemCommand, *model.CatalogItem]

	updateCatalogItemCommandHandler struct {
		catalogRepo ports.CatalogRepository
	}
)

func NewUpdateCatalogItemCommandHandler(
	catalogRepo ports.CatalogRepository,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) UpdateCatalogItemCommandHandler {
	return decorator.ApplyCommandDecorators[UpdateCatalogItemCommand, *model.CatalogItem](
		updateCatalogItemCommandHandler{catalogRepo: catalogRepo},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h updateCatalogItemCommandHandler) Handle(ctx context.Context, cmd UpdateCatalogItemCommand) (*model.CatalogItem, error) {
	if err := validateCatalogMutation(cmd.Country, cmd.Name); err != nil {
		return nil, err
	}

	item := model.CatalogItem{
		ID:        cmd.ID,
		Country:   cmd.Country,
		Name:      cmd.Name,
		Active:    cmd.Active,
		UpdatedAt: time.Now().UTC(),
	}

	err := h.catalogRepo.Update(ctx, cmd.Kind, item, ports.CatalogMutation{
		UpdatedBy: cmd.UpdatedBy,
		Reason:    cmd.Reason,
	})
	if err != nil {
		return nil, err
	}

	return &item, nil
}

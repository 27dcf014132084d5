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
	CreateCatalogItemCommand struct {
		Kind      model.CatalogKind
		Country   string
		Name      string
		UpdatedBy string
		Reason    string
	}

	CreateCatalogItemCommandHandler = decorator.CommandHandler[CreateCatalogItemCommand, *model.CatalogItem]

	createCatalogItemCommandHandler struct {
		catalogRepo ports.CatalogRepository
	}
)

func NewCreateCatalogItemCommandHandler(
	catalogRepo ports.CatalogRepository,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) CreateCatalogItemCommandHandler {
	return decorator.ApplyCommandDecorators[CreateCatalogItemCommand, *model.CatalogItem](
		createCatalogItemCommandHandler{catalogRepo: catalogRepo},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h createCatalogItemCommandHandler) Handle(ctx context.Context, cmd CreateCatalogItemCommand) (*model.CatalogItem, error) {
	if err := validateCatalogMutation(cmd.Country, cmd.Name); err != nil {
		return nil, err
	}

	item := model.NewCatalogItem(cmd.Country, cmd.Name, time.Now())

	err := h.catalogRepo.Create(ctx, cmd.Kind, item, ports.CatalogMutation{
		UpdatedBy: cmd.UpdatedBy,
		Reason:    cmd.Reason,
	})
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func validateCatalogMutation(country, name string) error {
	validationErrors := model.NewValidationErrors()

	if country == "" {
		validationErrors.Add("country", "country is required", "required")
	}

	if name == "" {
		validationErrors.Add("name", "name is required", "required")
	}

	if validationErrors.HasErrors() {
		return validationErrors
	}

	return nil
}

package queries

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
	ListCatalogQuery struct {
		Kind    model.CatalogKind
		Country string
	}

	ListCatalogQueryHandler = decorator.QueryHandler[ListCatalogQuery, []model.CatalogItem]

	listCatalogQueryHandler struct {
		catalogRepo ports.CatalogRepository
	}
)

// NewListCatalogQueryHandler wires the catalog read path. cache may be nil,
// disabling the read-through cache in front of the repository.
func NewListCatalogQueryHandler(
	catalogRepo ports.CatalogRepository,
	cache decorator.Cache[ListCatalogQuery, []model.CatalogItem],
	cacheConfig decorator.CacheConfig,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) ListCatalogQueryHandler {
	var handler decorator.QueryHandler[ListCatalogQuery, []model.CatalogItem] = listCatalogQueryHandler{
		catalogRepo: catalogRepo,
	}

	handler = decorator.NewQueryCachingDecorator(handler, cache, cacheConfig)

	return decorator.ApplyQueryDecorators[ListCatalogQuery, []model.CatalogItem](
		handler,
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h listCatalogQueryHandler) Execute(ctx context.Context, query ListCatalogQuery) ([]model.CatalogItem, error) {
	if query.Country == "" {
		return nil, model.ErrNoCountry
	}

	return h.catalogRepo.List(ctx, query.Kind, query.Country)
}

package repos

import (
	"context"
	"time"

	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/internal/usecases/queries"
	"github.com/medrail/casebook/pkg/tagcache"
)

// CatalogCacheAdapter adapts the tagged cache for ListCatalogQuery. Entries
// are tagged with the backing table name, so realtime change events and
// explicit tag invalidation evict them.
type CatalogCacheAdapter struct {
	cache *tagcache.Cache
}

func NewCatalogCacheAdapter(cache *tagcache.Cache) *CatalogCacheAdapter {
	return &CatalogCacheAdapter{cache: cache}
}

func (a *CatalogCacheAdapter) Get(_ context.Context, query queries.ListCatalogQuery) ([]model.CatalogItem, bool, error) {
	value, ok := a.cache.Get(catalogCacheKey(query))
	if !ok {
		return nil, false, nil
	}

	items, ok := value.([]model.CatalogItem)
	if !ok {
		return nil, false, nil
	}

	return items, true, nil
}

func (a *CatalogCacheAdapter) Set(_ context.Context, query queries.ListCatalogQuery, result []model.CatalogItem, ttl time.Duration) error {
	return a.cache.Set(
		catalogCacheKey(query),
		result,
		tagcache.WithTTL(ttl),
		tagcache.WithTags(query.Kind.Table),
	)
}

func catalogCacheKey(query queries.ListCatalogQuery) string {
	return "catalog:" + query.Kind.VersionType + ":" + query.Country
}

package ports

import (
	"context"

	"github.com/medrail/casebook/internal/domain/model"
)

type (
	// CatalogMutation carries the audit fields every master-data write
	// records on the bumped cache version row.
	CatalogMutation struct {
		UpdatedBy string
		Reason    string
	}

	// CatalogRepository persists the country-scoped master data. Every
	// write bumps the matching cache version row in the same transaction.
	CatalogRepository interface {
		List(ctx context.Context, kind model.CatalogKind, country string) ([]model.CatalogItem, error)
		Create(ctx context.Context, kind model.CatalogKind, item model.CatalogItem, mutation CatalogMutation) error
		Update(ctx context.Context, kind model.CatalogKind, item model.CatalogItem, mutation CatalogMutation) error
		Delete(ctx context.Context, kind model.CatalogKind, id model.CatalogID, country string, mutation CatalogMutation) error
	}
)

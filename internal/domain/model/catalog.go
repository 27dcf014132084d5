package model

import (
	"time"

	"github.com/google/uuid"
)

// Backing tables for the catalog master data. The table name is also the
// cache invalidation tag carried on realtime change events.
const (
	TableSurgerySets    = "surgery_sets"
	TableImplantBoxes   = "implant_boxes"
	TableDepartments    = "departments"
	TableDoctors        = "doctors"
	TableProcedureTypes = "procedure_types"
	TableCacheVersions  = "cache_versions"
	TablePermissions    = "permissions"
)

type (
	CatalogID = uuid.UUID

	// CatalogItem is the shared shape of the country-scoped master data:
	// surgery sets, implant boxes, departments, doctors, procedure types.
	CatalogItem struct {
		ID        CatalogID `json:"id"`
		Country   string    `json:"country"`
		Name      string    `json:"name"`
		Active    bool      `json:"active"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// CatalogKind identifies one master-data category together with its
	// backing table and cache version type.
	CatalogKind struct {
		Table       string
		VersionType string
	}
)

var (
	KindSurgerySets    = CatalogKind{Table: TableSurgerySets, VersionType: VersionTypeSurgerySets}
	KindImplantBoxes   = CatalogKind{Table: TableImplantBoxes, VersionType: VersionTypeImplantBoxes}
	KindDepartments    = CatalogKind{Table: TableDepartments, VersionType: VersionTypeDepartments}
	KindDoctors        = CatalogKind{Table: TableDoctors, VersionType: VersionTypeDoctors}
	KindProcedureTypes = CatalogKind{Table: TableProcedureTypes, VersionType: VersionTypeProcedureTypes}
)

// CatalogKinds lists every master-data category in a stable order.
func CatalogKinds() []CatalogKind {
	return []CatalogKind{
		KindSurgerySets,
		KindImplantBoxes,
		KindDepartments,
		KindDoctors,
		KindProcedureTypes,
	}
}

// KindForTable resolves a table name to its catalog kind.
func KindForTable(table string) (CatalogKind, bool) {
	for _, kind := range CatalogKinds() {
		if kind.Table == table {
			return kind, true
		}
	}

	return CatalogKind{}, false
}

// ParseCatalogID parses a catalog identifier from its string form.
func ParseCatalogID(raw string) (CatalogID, error) {
	return uuid.Parse(raw)
}

// NewCatalogItem creates a country-scoped item with a fresh identity.
func NewCatalogItem(country, name string, now time.Time) CatalogItem {
	return CatalogItem{
		ID:        uuid.New(),
		Country:   country,
		Name:      name,
		Active:    true,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

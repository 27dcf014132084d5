package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// CountryGlobal is the pseudo-country whose versions apply to every user
// regardless of their selected country.
const CountryGlobal = "GLOBAL"

// Version types, one per master-data category. The version type doubles as
// the invalidation tag of the backing table.
const (
	VersionTypeSurgerySets    = "surgery_sets"
	VersionTypeImplantBoxes   = "implant_boxes"
	VersionTypeDepartments    = "departments"
	VersionTypeDoctors        = "doctors"
	VersionTypeProcedureTypes = "procedure_types"
	VersionTypePermissions    = "permissions"
)

type (
	// CacheVersion is a monotonic counter per (country, version type),
	// bumped whenever the underlying master data changes. Rows are only
	// ever upserted, never deleted.
	CacheVersion struct {
		Country       string    `json:"country"`
		VersionType   string    `json:"version_type"`
		VersionNumber int64     `json:"version_number"`
		TableName     string    `json:"table_name"`
		UpdatedAt     time.Time `json:"updated_at"`
		UpdatedBy     string    `json:"updated_by"`
		Reason        string    `json:"reason"`
	}

	// StoredVersions records the last version number a session has seen,
	// keyed by country then version type.
	StoredVersions map[string]map[string]int64

	// MismatchReport is the entire surface the reconciler exposes to its
	// caller: whether anything is outdated, which type tags, the changed
	// rows with their human-readable reasons, and a signature identifying
	// this exact mismatch so it is not re-reported after acknowledgement.
	MismatchReport struct {
		Outdated      bool           `json:"outdated"`
		OutdatedTypes []string       `json:"outdated_types,omitempty"`
		Changed       []CacheVersion `json:"changed,omitempty"`
		Signature     string         `json:"signature,omitempty"`
	}
)

// NewVersionNumber returns a fresh monotonic version number, epoch millis.
func NewVersionNumber(now time.Time) int64 {
	return now.UnixMilli()
}

// TypeTag renders the "<country>:<type>" tag used in mismatch reports.
func TypeTag(country, versionType string) string {
	return country + ":" + versionType
}

// Get returns the stored version for (country, versionType) and whether one
// was recorded.
func (s StoredVersions) Get(country, versionType string) (int64, bool) {
	types, ok := s[country]
	if !ok {
		return 0, false
	}

	version, ok := types[versionType]

	return version, ok
}

// Put records a version, allocating nested maps as needed.
func (s StoredVersions) Put(country, versionType string, version int64) {
	if s[country] == nil {
		s[country] = make(map[string]int64)
	}

	s[country][versionType] = version
}

// Signature derives a stable identifier for a set of changed versions so an
// already acknowledged mismatch is never re-shown within the same session.
func Signature(changed []CacheVersion) string {
	if len(changed) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(changed))
	for _, version := range changed {
		pairs = append(pairs, fmt.Sprintf("%s:%s=%d", version.Country, version.VersionType, version.VersionNumber))
	}

	sort.Strings(pairs)

	hash := sha256.Sum256([]byte(strings.Join(pairs, "&")))

	return hex.EncodeToString(hash[:16])
}

// KnownVersionType reports whether versionType is one of the recognized
// master-data categories.
func KnownVersionType(versionType string) bool {
	switch versionType {
	case VersionTypeSurgerySets, VersionTypeImplantBoxes, VersionTypeDepartments,
		VersionTypeDoctors, VersionTypeProcedureTypes, VersionTypePermissions:
		return true
	default:
		return false
	}
}

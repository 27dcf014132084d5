package model

// Roles known to the booking system.
const (
	RoleAdmin          = "admin"
	RoleOperations     = "operations"
	RoleSales          = "sales"
	RoleDriver         = "driver"
	RoleITAdmin        = "it"
	RoleSalesManager   = "sales-manager"
	RoleOperationsLead = "operations-manager"
)

// Action identifiers checked against the permission table. Only a subset is
// listed here; the table is the source of truth, these constants exist for
// the critical-action allowlists and tests.
const (
	ActionViewCases        = "view-cases"
	ActionCreateCase       = "create-case"
	ActionAmendCase        = "amend-case"
	ActionLogout           = "logout"
	ActionViewBookings     = "booking-calendar"
	ActionEditSets         = "edit-sets"
	ActionManageUsers      = "manage-users"
	ActionSystemSettings   = "system-settings"
	ActionAuditLogs        = "audit-logs"
	ActionPermissionMatrix = "permission-matrix"
)

type (
	// Permission is one role/action cell of the permission matrix. Absence
	// of a row means denied: the matrix is an allowlist, not a denylist.
	Permission struct {
		RoleID   string `json:"role_id"`
		ActionID string `json:"action_id"`
		Allowed  bool   `json:"allowed"`
	}

	// PermissionTable answers role/action lookups in memory.
	PermissionTable map[string]map[string]bool
)

// BuildPermissionTable folds rows into a nested lookup map. Rows with
// Allowed=false are dropped, matching allowlist semantics.
func BuildPermissionTable(rows []Permission) PermissionTable {
	table := make(PermissionTable)

	for _, row := range rows {
		if !row.Allowed {
			continue
		}

		if table[row.RoleID] == nil {
			table[row.RoleID] = make(map[string]bool)
		}

		table[row.RoleID][row.ActionID] = true
	}

	return table
}

// Allowed reports whether the role has an explicit allow row for action.
func (t PermissionTable) Allowed(roleID, actionID string) bool {
	return t[roleID][actionID]
}

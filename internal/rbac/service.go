package rbac

import (
	"sort"
	"strings"
)

// HasPermission reports whether role is mapped to perm in the static table.
// Unknown roles and permissions yield false.
func HasPermission(role Role, perm Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = perms[perm]
	return ok
}

// CanManage reports whether role may manage the given resource class.
func CanManage(role Role, resource Resource) bool {
	perm, ok := resourcePermissions[resource]
	if !ok {
		return false
	}
	return HasPermission(role, perm)
}

// HasAny reports whether role holds at least one of perms. An empty list
// always passes.
func HasAny(role Role, perms ...Permission) bool {
	if len(perms) == 0 {
		return true
	}
	for _, p := range perms {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAll reports whether role holds every permission in perms.
func HasAll(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if !HasPermission(role, p) {
			return false
		}
	}
	return true
}

// PermissionsFor lists the permissions granted to role, sorted by name.
func PermissionsFor(role Role) []Permission {
	granted := rolePermissions[role]
	out := make([]Permission, 0, len(granted))
	for p := range granted {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Roles returns the supported roles, most privileged first.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// Permissions returns every known permission in display order.
func Permissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// ParsePermission resolves a permission name case-insensitively.
func ParsePermission(raw string) (Permission, bool) {
	candidate := Permission(strings.ToLower(strings.TrimSpace(raw)))
	for _, p := range allPermissions {
		if p == candidate {
			return p, true
		}
	}
	return "", false
}

// MatrixRow is one permission with its grant per role.
type MatrixRow struct {
	Permission  Permission
	Description string
	Granted     map[Role]bool
}

// Matrix renders the static table as rows for display.
func Matrix() []MatrixRow {
	rows := make([]MatrixRow, 0, len(allPermissions))
	for _, p := range allPermissions {
		granted := make(map[Role]bool, len(allRoles))
		for _, r := range allRoles {
			granted[r] = HasPermission(r, p)
		}
		rows = append(rows, MatrixRow{Permission: p, Description: p.Description(), Granted: granted})
	}
	return rows
}

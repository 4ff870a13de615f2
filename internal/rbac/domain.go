package rbac

import "strings"

// Role is the coarse-grained authorization label attached to a session.
type Role string

// Supported roles.
const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
	RoleViewer Role = "VIEWER"
)

// Permission is a named capability gated by role.
type Permission string

// Known permissions.
const (
	PermViewDashboard   Permission = "view_dashboard"
	PermManageProjects  Permission = "manage_projects"
	PermManageRoles     Permission = "manage_roles"
	PermManageMembers   Permission = "manage_members"
	PermViewSubmissions Permission = "view_submissions"
	PermViewDebug       Permission = "view_debug"
	PermRunDiagnostics  Permission = "run_diagnostics"
)

// Resource names a class of content that can be managed from the admin area.
type Resource string

// Manageable resources.
const (
	ResourceProjects    Resource = "projects"
	ResourceRoles       Resource = "roles"
	ResourceMembers     Resource = "members"
	ResourceSubmissions Resource = "submissions"
	ResourceDebug       Resource = "debug"
	ResourceDiagnostics Resource = "diagnostics"
)

var allPermissions = []Permission{
	PermViewDashboard,
	PermManageProjects,
	PermManageRoles,
	PermManageMembers,
	PermViewSubmissions,
	PermViewDebug,
	PermRunDiagnostics,
}

var allRoles = []Role{RoleAdmin, RoleMember, RoleViewer}

// rolePermissions is the static authorization table.
var rolePermissions = map[Role]map[Permission]struct{}{
	RoleAdmin: setOf(allPermissions...),
	RoleMember: setOf(
		PermViewDashboard,
		PermManageProjects,
		PermViewSubmissions,
	),
	RoleViewer: setOf(
		PermViewDashboard,
	),
}

// resourcePermissions maps a resource to the permission required to manage it.
var resourcePermissions = map[Resource]Permission{
	ResourceProjects:    PermManageProjects,
	ResourceRoles:       PermManageRoles,
	ResourceMembers:     PermManageMembers,
	ResourceSubmissions: PermViewSubmissions,
	ResourceDebug:       PermViewDebug,
	ResourceDiagnostics: PermRunDiagnostics,
}

var permissionDescriptions = map[Permission]string{
	PermViewDashboard:   "Open the admin dashboard",
	PermManageProjects:  "Create, edit and delete portfolio projects",
	PermManageRoles:     "Maintain team roles",
	PermManageMembers:   "Maintain team members and their access",
	PermViewSubmissions: "Read contact form submissions",
	PermViewDebug:       "Use render and performance debug tools",
	PermRunDiagnostics:  "Run database diagnostics",
}

func setOf(perms ...Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// ParseRole normalises a role label. Unknown labels return false.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := rolePermissions[role]
	return role, ok
}

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

func (r Role) String() string { return string(r) }

// Description returns a human readable summary of the permission.
func (p Permission) Description() string {
	return permissionDescriptions[p]
}

func (p Permission) String() string { return string(p) }

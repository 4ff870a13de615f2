package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-studio/folio/internal/shared"
)

func TestHasPermissionMatchesTable(t *testing.T) {
	expected := map[Role][]Permission{
		RoleAdmin: {
			PermViewDashboard, PermManageProjects, PermManageRoles, PermManageMembers,
			PermViewSubmissions, PermViewDebug, PermRunDiagnostics,
		},
		RoleMember: {PermViewDashboard, PermManageProjects, PermViewSubmissions},
		RoleViewer: {PermViewDashboard},
	}

	for _, role := range Roles() {
		granted := make(map[Permission]bool)
		for _, p := range expected[role] {
			granted[p] = true
		}
		for _, perm := range Permissions() {
			assert.Equalf(t, granted[perm], HasPermission(role, perm), "role=%s perm=%s", role, perm)
		}
	}
}

func TestHasPermissionExamples(t *testing.T) {
	assert.False(t, HasPermission("VIEWER", "manage_projects"))
	assert.True(t, HasPermission("ADMIN", "manage_projects"))
}

func TestHasPermissionUnknownInputs(t *testing.T) {
	assert.False(t, HasPermission("", PermViewDashboard))
	assert.False(t, HasPermission("OWNER", PermViewDashboard))
	assert.False(t, HasPermission("admin", PermViewDashboard), "lookup is exact, callers normalise with ParseRole")
	assert.False(t, HasPermission(RoleAdmin, "delete_everything"))
}

func TestCanManage(t *testing.T) {
	cases := []struct {
		role     Role
		resource Resource
		want     bool
	}{
		{RoleAdmin, ResourceProjects, true},
		{RoleAdmin, ResourceMembers, true},
		{RoleAdmin, ResourceDiagnostics, true},
		{RoleMember, ResourceProjects, true},
		{RoleMember, ResourceSubmissions, true},
		{RoleMember, ResourceRoles, false},
		{RoleMember, ResourceMembers, false},
		{RoleMember, ResourceDebug, false},
		{RoleViewer, ResourceProjects, false},
		{RoleViewer, ResourceSubmissions, false},
		{RoleAdmin, "invoices", false},
		{"", ResourceProjects, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, CanManage(tc.role, tc.resource), "%s/%s", tc.role, tc.resource)
	}
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" member ")
	require.True(t, ok)
	assert.Equal(t, RoleMember, role)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}

func TestPermissionsForIsSorted(t *testing.T) {
	perms := PermissionsFor(RoleMember)
	assert.Equal(t, []Permission{PermManageProjects, PermViewDashboard, PermViewSubmissions}, perms)
	assert.Empty(t, PermissionsFor("GUEST"))
}

func TestMatrixCoversEveryPermission(t *testing.T) {
	rows := Matrix()
	require.Len(t, rows, len(Permissions()))
	for _, row := range rows {
		assert.NotEmpty(t, row.Description)
		assert.True(t, row.Granted[RoleAdmin])
	}
}

func TestMiddlewareRequireAny(t *testing.T) {
	mw := Middleware{}
	handler := mw.RequireAny(PermManageRoles)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name      string
		principal *shared.Principal
		want      int
	}{
		{"anonymous", nil, http.StatusForbidden},
		{"viewer", &shared.Principal{ID: 1, Role: "VIEWER"}, http.StatusForbidden},
		{"member", &shared.Principal{ID: 2, Role: "MEMBER"}, http.StatusForbidden},
		{"admin", &shared.Principal{ID: 3, Role: "ADMIN"}, http.StatusNoContent},
		{"unknown role", &shared.Principal{ID: 4, Role: "ROOT"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/roles", nil)
			if tc.principal != nil {
				req = req.WithContext(shared.ContextWithPrincipal(context.Background(), tc.principal))
			}
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)
			assert.Equal(t, tc.want, res.Code)
		})
	}
}

func TestMiddlewareRequireManage(t *testing.T) {
	mw := Middleware{}
	handler := mw.RequireManage(ResourceProjects)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/projects", nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Principal{ID: 9, Role: "MEMBER"}))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestCanNilPrincipal(t *testing.T) {
	assert.False(t, Can(nil, PermViewDashboard))
	assert.True(t, Can(&shared.Principal{ID: 1, Role: "viewer"}, PermViewDashboard))
}

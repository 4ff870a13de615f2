package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-studio/folio/internal/auth"
	"github.com/folio-studio/folio/internal/contact"
	"github.com/folio-studio/folio/internal/dashboard"
	"github.com/folio-studio/folio/internal/diagnostics"
	"github.com/folio-studio/folio/internal/members"
	"github.com/folio-studio/folio/internal/observability"
	"github.com/folio-studio/folio/internal/perf"
	"github.com/folio-studio/folio/internal/projects"
	"github.com/folio-studio/folio/internal/rbac"
	rbachttp "github.com/folio-studio/folio/internal/rbac/http"
	"github.com/folio-studio/folio/internal/roles"
	"github.com/folio-studio/folio/internal/shared"
	"github.com/folio-studio/folio/internal/site"
	"github.com/folio-studio/folio/internal/view"
)

const cookieName = "folio_session"

type routerFixture struct {
	handler http.Handler
	redis   *miniredis.Miniredis
	tokens  *auth.TokenIssuer
	tracker *perf.Tracker
}

// newRouterFixture wires the real router. Repositories get a nil pool, so
// only routes that never reach the database are exercised here.
func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &Config{AppEnv: "test", RateLimitPerMin: 10000, AppRequestTimeout: 5 * time.Second}
	sessions := shared.NewSessionManager(client, cookieName, "session-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	engine, err := view.NewEngine()
	require.NoError(t, err)
	render := view.Renderer{Engine: engine, CSRF: csrf}
	mw := rbac.Middleware{}
	tokens := auth.NewTokenIssuer("jwt-secret", time.Hour)
	tracker := perf.NewTracker(10, false, nil)

	projectService := projects.NewService(projects.NewRepository(nil), nil, nil, nil)
	roleService := roles.NewService(roles.NewRepository(nil), nil, nil)
	memberService := members.NewService(members.NewRepository(nil), nil, nil)
	contactRepo := contact.NewRepository(nil)
	contactService := contact.NewService(contactRepo, nil, nil, nil)

	router := NewRouter(RouterParams{
		Config:         cfg,
		SessionManager: sessions,
		CSRFManager:    csrf,
		Guard: &auth.Guard{
			Gate:   auth.Gate{Placeholder: LoadingPlaceholder(render)},
			Tokens: tokens,
		},
		RBACMiddleware: mw,
		Metrics:        observability.NewMetrics(),

		SiteHandler:    site.NewHandler(nil, projectService, render),
		AuthHandler:    auth.NewHandler(nil, auth.NewService(auth.NewRepository(nil)), render, sessions, csrf, auth.NewReturnTo("return-secret", false), tokens),
		ProjectsPublic: projects.NewPublicHandler(nil, projectService, render),
		DashboardHandler: dashboard.NewHandler(nil, dashboard.Sources{
			Projects: projectService, Members: memberService, Roles: roleService, Submissions: contactService,
		}, render, mw),
		ProjectsHandler:    projects.NewHandler(nil, projectService, render, mw),
		RolesHandler:       roles.NewHandler(nil, roleService, render, mw),
		MembersHandler:     members.NewHandler(nil, memberService, roleService, render, mw),
		MembersPublic:      members.NewPublicHandler(nil, memberService, render),
		ContactHandler:     contact.NewHandler(nil, contactService, render, mw),
		PermissionsHandler: rbachttp.NewHandler(render, mw),
		PerfHandler:        perf.NewHandler(nil, tracker, render, mw),
		DiagnosticsHandler: diagnostics.NewHandler(nil, diagnostics.NewInspector(nil), mw, false),
	})
	return &routerFixture{handler: router, redis: srv, tokens: tokens, tracker: tracker}
}

// signIn stores a session for role directly in Redis and returns its cookie.
func (f *routerFixture) signIn(t *testing.T, role string) *http.Cookie {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"values":    map[string]string{},
		"principal": shared.Principal{ID: 1, Email: "ada@folio.test", Name: "Ada", Role: role},
	})
	require.NoError(t, err)
	require.NoError(t, f.redis.Set("folio:session:sid-"+role, string(payload)))
	return &http.Cookie{Name: cookieName, Value: "sid-" + role}
}

func (f *routerFixture) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	return res
}

func TestAdminRedirectsWithoutSession(t *testing.T) {
	f := newRouterFixture(t)

	for _, path := range []string{"/admin", "/admin/projects", "/admin/debug/renders?x=1"} {
		res := f.do(httptest.NewRequest(http.MethodGet, path, nil), nil)
		require.Equalf(t, http.StatusSeeOther, res.Code, path)
		location, err := url.Parse(res.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, auth.SignInPath, location.Path)
		assert.Equal(t, path, location.Query().Get(auth.CallbackParam))
	}
}

func TestAuthPagesStayReachable(t *testing.T) {
	f := newRouterFixture(t)
	res := f.do(httptest.NewRequest(http.MethodGet, "/admin/auth/signin", nil), nil)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestAdminAPIRejectsAnonymous(t *testing.T) {
	f := newRouterFixture(t)
	res := f.do(httptest.NewRequest(http.MethodGet, "/api/admin/test-db", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Body.String(), `"success":false`)
}

func TestAdminShowsPlaceholderWhenSessionStoreIsDown(t *testing.T) {
	f := newRouterFixture(t)
	f.redis.SetError("LOADING Redis is loading the dataset in memory")

	res := f.do(httptest.NewRequest(http.MethodGet, "/admin/projects", nil), &http.Cookie{Name: cookieName, Value: "sid"})

	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
	assert.Contains(t, res.Body.String(), "data-session-loading")
	assert.Equal(t, "2", res.Header().Get("Retry-After"))
}

func TestSessionPrincipalReachesHandlers(t *testing.T) {
	f := newRouterFixture(t)

	res := f.do(httptest.NewRequest(http.MethodGet, "/admin/permissions", nil), f.signIn(t, "VIEWER"))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Ada (VIEWER)")

	res = f.do(httptest.NewRequest(http.MethodGet, "/admin/debug/renders", nil), f.signIn(t, "VIEWER"))
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = f.do(httptest.NewRequest(http.MethodGet, "/admin/debug/renders", nil), f.signIn(t, "ADMIN"))
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestBearerTokenSkipsCSRF(t *testing.T) {
	f := newRouterFixture(t)
	token, _, err := f.tokens.Issue(&shared.Principal{ID: 1, Email: "ada@folio.test", Name: "Ada", Role: "ADMIN"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/debug/renders/start", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := f.do(req, nil)

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.True(t, f.tracker.Enabled())
}

func TestSessionPostRequiresCSRFToken(t *testing.T) {
	f := newRouterFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/admin/debug/renders/start", nil)
	res := f.do(req, f.signIn(t, "ADMIN"))

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.False(t, f.tracker.Enabled())
}

func TestContactAPIIsCSRFExempt(t *testing.T) {
	f := newRouterFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("name=&email=&message="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res := f.do(req, nil)

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.JSONEq(t, `{"success":false,"error":"Missing required fields"}`, res.Body.String())
}

func TestPublicContactFormRequiresCSRFToken(t *testing.T) {
	f := newRouterFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader("name=a&email=b&message=c"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusForbidden, f.do(req, nil).Code)
}

func TestStaticAndMetrics(t *testing.T) {
	f := newRouterFixture(t)

	res := f.do(httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil), nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "public, max-age=3600", res.Header().Get("Cache-Control"))

	res = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "folio_http_requests_total")
}

func TestHealthzAndNotFound(t *testing.T) {
	f := newRouterFixture(t)
	assert.Equal(t, http.StatusOK, f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil), nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(httptest.NewRequest(http.MethodGet, "/no-such-page", nil), nil).Code)
}

func TestSecurityHeaders(t *testing.T) {
	f := newRouterFixture(t)
	res := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil), nil)
	assert.Equal(t, "DENY", res.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", res.Header().Get("X-Content-Type-Options"))
}

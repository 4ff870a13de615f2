package projects

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/shared"
	"github.com/folio-studio/folio/internal/view"
)

type handlerFixture struct {
	router http.Handler
	repo   *memRepo
	store  *memStore
}

func newHandlerFixture(t *testing.T, seed ...Project) *handlerFixture {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	render := view.Renderer{Engine: engine}

	repo := newMemRepo(seed...)
	store := newMemStore()
	svc := NewService(repo, store, nil, nil)

	r := chi.NewRouter()
	r.Route("/admin/projects", NewHandler(nil, svc, render, rbac.Middleware{}).MountRoutes)
	r.Route("/projects", NewPublicHandler(nil, svc, render).MountRoutes)
	return &handlerFixture{router: r, repo: repo, store: store}
}

func (f *handlerFixture) do(req *http.Request, role string) *httptest.ResponseRecorder {
	if role != "" {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Principal{ID: 1, Role: role}))
	}
	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req)
	return res
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestAdminListRequiresManagePermission(t *testing.T) {
	f := newHandlerFixture(t, Project{ID: 1, Slug: "one", Title: "One"})

	assert.Equal(t, http.StatusForbidden, f.do(httptest.NewRequest(http.MethodGet, "/admin/projects", nil), "VIEWER").Code)

	res := f.do(httptest.NewRequest(http.MethodGet, "/admin/projects", nil), "MEMBER")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "One")
}

func TestAdminCreateRedirectsToEdit(t *testing.T) {
	f := newHandlerFixture(t)
	res := f.do(postForm("/admin/projects", url.Values{
		"title":      {"Ledger"},
		"category":   {"Web"},
		"status":     {"published"},
		"tech_stack": {"Go, Postgres"},
		"featured":   {"on"},
	}), "ADMIN")

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/admin/projects/1/edit", res.Header().Get("Location"))
	created := f.repo.items[1]
	assert.Equal(t, "ledger", created.Slug)
	assert.True(t, created.Featured)
	assert.Equal(t, []string{"Go", "Postgres"}, created.TechStack)
}

func TestAdminCreateInvalidRerendersForm(t *testing.T) {
	f := newHandlerFixture(t)
	res := f.do(postForm("/admin/projects", url.Values{"title": {"Ledger"}}), "ADMIN")

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "category is required")
	assert.Empty(t, f.repo.items)
}

func TestAdminUpdateAndDelete(t *testing.T) {
	f := newHandlerFixture(t, Project{ID: 4, Slug: "old", Title: "Old", Category: "CLI", Status: StatusDraft})

	res := f.do(postForm("/admin/projects/4/edit", url.Values{"title": {"New"}, "category": {"CLI"}, "slug": {"old"}}), "MEMBER")
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "New", f.repo.items[4].Title)

	res = f.do(postForm("/admin/projects/99/edit", url.Values{"title": {"x"}, "category": {"y"}}), "MEMBER")
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = f.do(postForm("/admin/projects/4/delete", nil), "MEMBER")
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/admin/projects", res.Header().Get("Location"))
	assert.Empty(t, f.repo.items)
}

func TestAdminRejectsBadID(t *testing.T) {
	f := newHandlerFixture(t)
	res := f.do(httptest.NewRequest(http.MethodGet, "/admin/projects/abc/edit", nil), "ADMIN")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestAdminUploadImage(t *testing.T) {
	f := newHandlerFixture(t, Project{ID: 2, Slug: "pic", Title: "Pic"})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "cover.txt")
	require.NoError(t, err)
	_, err = part.Write(pngBytes)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/projects/2/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res := f.do(req, "ADMIN")

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/admin/projects/2/edit", res.Header().Get("Location"))
	assert.True(t, strings.HasSuffix(f.repo.items[2].ImageURL, ".png"), "extension follows the sniffed type")
	assert.Len(t, f.store.objects, 1)
}

func TestPublicShowHidesDrafts(t *testing.T) {
	f := newHandlerFixture(t,
		Project{ID: 1, Slug: "shipped", Title: "Shipped", Status: StatusPublished},
		Project{ID: 2, Slug: "secret", Title: "Secret", Status: StatusDraft},
	)

	res := f.do(httptest.NewRequest(http.MethodGet, "/projects/shipped", nil), "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Shipped")

	res = f.do(httptest.NewRequest(http.MethodGet, "/projects/secret", nil), "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.NotContains(t, res.Body.String(), "Secret")
}

func TestPublicListShowsOnlyPublished(t *testing.T) {
	f := newHandlerFixture(t,
		Project{ID: 1, Slug: "a", Title: "Alpha", Category: "Web", Status: StatusPublished},
		Project{ID: 2, Slug: "b", Title: "Beta", Category: "Web", Status: StatusDraft},
	)
	res := f.do(httptest.NewRequest(http.MethodGet, "/projects", nil), "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Alpha")
	assert.NotContains(t, res.Body.String(), "Beta")
}

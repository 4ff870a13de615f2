package view

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-studio/folio/internal/shared"
)

type recordingObserver struct {
	components []string
}

func (o *recordingObserver) Observe(component string, _ time.Time) {
	o.components = append(o.components, component)
}

func TestNewEngineParsesEveryPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	for _, page := range []string{
		"pages/home.html",
		"pages/not_found.html",
		"pages/admin/loading.html",
		"pages/admin/signin.html",
		"pages/admin/dashboard.html",
	} {
		assert.True(t, engine.Has(page), page)
	}
	assert.False(t, engine.Has("layouts/admin.html"))
}

func TestRenderLoadingPlaceholder(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	observer := &recordingObserver{}
	engine.SetObserver(observer)

	res := httptest.NewRecorder()
	require.NoError(t, engine.Render(res, "pages/admin/loading.html", TemplateData{
		Title:     "Loading",
		Principal: &shared.Principal{Name: "Ada", Role: "ADMIN"},
	}))

	assert.Equal(t, "text/html; charset=utf-8", res.Header().Get("Content-Type"))
	assert.Contains(t, res.Body.String(), "<title>Loading · Folio Admin</title>")
	assert.Contains(t, res.Body.String(), "data-session-loading")
	assert.Equal(t, []string{"pages/admin/loading.html"}, observer.components)
}

func TestRenderUnknownPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	res := httptest.NewRecorder()
	err = engine.Render(res, "pages/missing.html", TemplateData{})
	assert.ErrorContains(t, err, `unknown page "pages/missing.html"`)
	assert.Zero(t, res.Body.Len())
}

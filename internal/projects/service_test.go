package projects

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-studio/folio/internal/shared"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newTestService(seed ...Project) (*Service, *memRepo, *memStore, *recordingAudit) {
	repo := newMemRepo(seed...)
	store := newMemStore()
	audit := &recordingAudit{}
	return NewService(repo, store, audit, nil), repo, store, audit
}

func TestCreateNormalisesAndAudits(t *testing.T) {
	svc, _, _, audit := newTestService()
	ctx := shared.ContextWithPrincipal(context.Background(), &shared.Principal{ID: 5, Role: "MEMBER"})

	p, err := svc.Create(ctx, Input{
		Title:     "  Café Finder ",
		Category:  "Web",
		TechStack: []string{"Go", " go ", "HTMX"},
		Status:    "Published",
	})
	require.NoError(t, err)
	assert.Equal(t, "Café Finder", p.Title)
	assert.Equal(t, "cafe-finder", p.Slug)
	assert.Equal(t, StatusPublished, p.Status)
	assert.Equal(t, []string{"Go", "HTMX"}, p.TechStack)
	assert.Equal(t, []string{"project.created"}, audit.actions())
	assert.Equal(t, int64(5), audit.logs[0].ActorID)
}

func TestCreateDefaultsToDraft(t *testing.T) {
	svc, _, _, _ := newTestService()
	p, err := svc.Create(context.Background(), Input{Title: "Quiet", Category: "CLI"})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, p.Status)
}

func TestCreateValidation(t *testing.T) {
	svc, repo, _, _ := newTestService()
	cases := []struct {
		name  string
		in    Input
		field string
	}{
		{"missing title", Input{Category: "Web"}, "title"},
		{"missing category", Input{Title: "x"}, "category"},
		{"bad status", Input{Title: "x", Category: "Web", Status: "archived"}, "status"},
		{"bad demo url", Input{Title: "x", Category: "Web", DemoURL: "javascript:alert(1)"}, "demo_url"},
		{"relative repo url", Input{Title: "x", Category: "Web", RepoURL: "/repo"}, "repo_url"},
		{"unsluggable title", Input{Title: "???", Category: "Web"}, "slug"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.in)
			require.ErrorIs(t, err, shared.ErrValidation)
			var verr *shared.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
	assert.Empty(t, repo.items)
}

func TestSlugsAreMadeUnique(t *testing.T) {
	svc, _, _, _ := newTestService(Project{ID: 1, Slug: "portfolio", Title: "Portfolio"}, Project{ID: 2, Slug: "portfolio-2", Title: "Portfolio"})

	p, err := svc.Create(context.Background(), Input{Title: "Portfolio", Category: "Web"})
	require.NoError(t, err)
	assert.Equal(t, "portfolio-3", p.Slug)

	updated, err := svc.Update(context.Background(), 1, Input{Title: "Portfolio", Category: "Web"})
	require.NoError(t, err)
	assert.Equal(t, "portfolio", updated.Slug, "a project keeps its own slug")
}

func TestUpdateMissingProject(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Update(context.Background(), 42, Input{Title: "x", Category: "y"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, repo, _, audit := newTestService(Project{ID: 3, Slug: "a", Title: "A"})
	require.NoError(t, svc.Delete(context.Background(), 3))
	assert.Empty(t, repo.items)
	assert.Equal(t, []string{"project.deleted"}, audit.actions())
	assert.ErrorIs(t, svc.Delete(context.Background(), 3), shared.ErrNotFound)
}

func TestGetPublishedHidesDrafts(t *testing.T) {
	svc, _, _, _ := newTestService(
		Project{ID: 1, Slug: "live", Status: StatusPublished},
		Project{ID: 2, Slug: "wip", Status: StatusDraft},
	)
	p, err := svc.GetPublished(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)

	_, err = svc.GetPublished(context.Background(), "wip")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListPublishedAndFeatured(t *testing.T) {
	svc, _, _, _ := newTestService(
		Project{ID: 1, Slug: "a", Status: StatusPublished, Featured: true},
		Project{ID: 2, Slug: "b", Status: StatusPublished},
		Project{ID: 3, Slug: "c", Status: StatusDraft, Featured: true},
	)
	items, pagination, err := svc.ListPublished(context.Background(), ListFilters{ListFilters: shared.ListFilters{Page: 1, PerPage: 10}})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, pagination.Total)

	featured, err := svc.Featured(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, int64(1), featured[0].ID)
}

func TestUploadImageReplacesPrevious(t *testing.T) {
	svc, repo, store, audit := newTestService(Project{ID: 7, Slug: "a", Title: "A", ImageURL: "/uploads/projects/7/old.png"})

	url, err := svc.UploadImage(context.Background(), 7, pngBytes)
	require.NoError(t, err)
	assert.Contains(t, url, "/uploads/projects/7/")
	assert.Equal(t, url, repo.items[7].ImageURL)
	assert.Len(t, store.objects, 1)
	assert.Equal(t, []string{"projects/7/old.png"}, store.deleted)
	assert.Equal(t, []string{"project.image_uploaded"}, audit.actions())
}

func TestUploadImageRejectsNonImages(t *testing.T) {
	svc, repo, store, _ := newTestService(Project{ID: 7, Slug: "a"})
	_, err := svc.UploadImage(context.Background(), 7, []byte("<?php echo 1; ?>"))
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, store.objects)
	assert.Empty(t, repo.items[7].ImageURL)
}

func TestUploadImageWithoutStore(t *testing.T) {
	svc := NewService(newMemRepo(Project{ID: 1}), nil, nil, nil)
	_, err := svc.UploadImage(context.Background(), 1, pngBytes)
	assert.Error(t, err)
}

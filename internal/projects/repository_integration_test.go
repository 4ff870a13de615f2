//go:build integration

package projects

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/folio-studio/folio/internal/shared"
	"github.com/folio-studio/folio/internal/testing/pgtest"
)

func TestPGRepositoryLifecycle(t *testing.T) {
	pg := pgtest.Get(t)
	pg.Truncate(t, "projects")
	repo := NewRepository(pg.Pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, Project{Slug: "atlas", Title: "Atlas", TechStack: []string{"Go"}, Category: "Web", Status: StatusPublished, Featured: true})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	_, err = repo.Create(ctx, Project{Slug: "atlas", Title: "Atlas again", TechStack: []string{}, Status: StatusDraft})
	require.ErrorIs(t, err, shared.ErrDuplicate)

	taken, err := repo.SlugTaken(ctx, "atlas", 0)
	require.NoError(t, err)
	require.True(t, taken)
	taken, err = repo.SlugTaken(ctx, "atlas", created.ID)
	require.NoError(t, err)
	require.False(t, taken)

	created.Title = "Atlas 2"
	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	require.Equal(t, "Atlas 2", updated.Title)

	require.NoError(t, repo.SetImage(ctx, created.ID, "/uploads/atlas.png"))
	bySlug, err := repo.GetBySlug(ctx, "atlas")
	require.NoError(t, err)
	require.Equal(t, "/uploads/atlas.png", bySlug.ImageURL)

	list, total, err := repo.List(ctx, ListFilters{ListFilters: shared.ListFilters{Page: 1, PerPage: 10, Search: "go"}})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, list, 1)

	categories, err := repo.Categories(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Web"}, categories)

	counts, err := repo.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts.Published)

	require.NoError(t, repo.Delete(ctx, created.ID))
	require.ErrorIs(t, repo.Delete(ctx, created.ID), shared.ErrNotFound)
}

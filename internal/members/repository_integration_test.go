//go:build integration

package members

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/shared"
	"github.com/folio-studio/folio/internal/testing/pgtest"
)

func TestRepositoryAdminCount(t *testing.T) {
	pg := pgtest.Get(t)
	pg.Truncate(t, "members")
	repo := NewRepository(pg.Pool)
	ctx := context.Background()

	adminID, err := repo.CreateMember(ctx, Member{Email: "Admin@Example.com", Name: "Admin", AccessRole: rbac.RoleAdmin, IsActive: true}, "hash")
	require.NoError(t, err)
	_, err = repo.CreateMember(ctx, Member{Email: "admin@example.com", Name: "Dup", AccessRole: rbac.RoleViewer, IsActive: true}, "hash")
	require.ErrorIs(t, err, shared.ErrDuplicate)

	got, err := repo.GetMember(ctx, adminID)
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", got.Email)

	n, err := repo.CountActiveAdmins(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	n, err = repo.CountActiveAdmins(ctx, adminID)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, repo.DeleteMember(ctx, adminID))
	require.ErrorIs(t, repo.DeleteMember(ctx, adminID), shared.ErrNotFound)
}

package members

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/shared"
)

func validInput() Input {
	return Input{Email: " Grace@Folio.TEST ", Name: " Grace ", AccessRole: "member", Password: "hunter2hunter2", IsActive: true}
}

func TestCreateMemberHashesPassword(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	m, err := svc.CreateMember(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "grace@folio.test", m.Email)
	assert.Equal(t, "Grace", m.Name)
	assert.Equal(t, rbac.RoleMember, m.AccessRole)

	hash := repo.hashes[m.ID]
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "hunter2hunter2", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2hunter2")))
}

func TestCreateMemberValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Input)
		field  string
	}{
		{"missing password", func(in *Input) { in.Password = "" }, "password"},
		{"short password", func(in *Input) { in.Password = "short" }, "password"},
		{"missing name", func(in *Input) { in.Name = " " }, "name"},
		{"bad email", func(in *Input) { in.Email = "not-an-email" }, "email"},
		{"unknown access role", func(in *Input) { in.AccessRole = "OWNER" }, "access_role"},
		{"avatar not http", func(in *Input) { in.AvatarURL = "ftp://example.com/a.png" }, "avatar_url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemRepo()
			in := validInput()
			tc.mutate(&in)
			_, err := newTestService(repo).CreateMember(context.Background(), in)
			require.ErrorIs(t, err, shared.ErrValidation)
			var verr *shared.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
			assert.Empty(t, repo.members)
		})
	}
}

func TestCreateMemberDuplicateEmail(t *testing.T) {
	repo := newMemRepo(Member{ID: 1, Email: "grace@folio.test", AccessRole: rbac.RoleViewer})
	_, err := newTestService(repo).CreateMember(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateMemberKeepsPasswordWhenBlank(t *testing.T) {
	repo := newMemRepo(Member{ID: 3, Email: "grace@folio.test", Name: "Grace", AccessRole: rbac.RoleMember, IsActive: true})
	repo.hashes[3] = "original"
	svc := newTestService(repo)

	in := validInput()
	in.Password = ""
	in.Name = "Grace Hopper"
	_, err := svc.UpdateMember(context.Background(), 3, in)
	require.NoError(t, err)
	assert.Equal(t, "original", repo.hashes[3])
	assert.Equal(t, "Grace Hopper", repo.members[3].Name)

	in.Password = "a-new-password"
	_, err = svc.UpdateMember(context.Background(), 3, in)
	require.NoError(t, err)
	assert.NotEqual(t, "original", repo.hashes[3])
}

func TestLastAdminIsProtected(t *testing.T) {
	repo := newMemRepo(
		Member{ID: 1, Email: "root@folio.test", Name: "Root", AccessRole: rbac.RoleAdmin, IsActive: true},
		Member{ID: 2, Email: "guest@folio.test", Name: "Guest", AccessRole: rbac.RoleViewer, IsActive: true},
	)
	svc := newTestService(repo)

	demote := Input{Email: "root@folio.test", Name: "Root", AccessRole: "VIEWER", IsActive: true}
	_, err := svc.UpdateMember(context.Background(), 1, demote)
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, rbac.RoleAdmin, repo.members[1].AccessRole)

	assert.ErrorIs(t, svc.DeleteMember(context.Background(), 1), shared.ErrValidation)

	repo.members[3] = Member{ID: 3, Email: "second@folio.test", AccessRole: rbac.RoleAdmin, IsActive: true}
	_, err = svc.UpdateMember(context.Background(), 1, demote)
	assert.NoError(t, err)
}

func TestMembersCannotDeleteThemselves(t *testing.T) {
	repo := newMemRepo(Member{ID: 4, Email: "me@folio.test", AccessRole: rbac.RoleMember, IsActive: true})
	ctx := shared.ContextWithPrincipal(context.Background(), &shared.Principal{ID: 4, Role: "ADMIN"})
	err := newTestService(repo).DeleteMember(ctx, 4)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Len(t, repo.members, 1)
}

func TestTeamGroupsByRole(t *testing.T) {
	repo := newMemRepo(
		Member{ID: 1, Name: "Ada", RoleName: "Engineering", IsActive: true},
		Member{ID: 2, Name: "Linus", RoleName: "Engineering", IsActive: true},
		Member{ID: 3, Name: "Paula", RoleName: "Design", IsActive: true},
		Member{ID: 4, Name: "Solo", IsActive: true},
		Member{ID: 5, Name: "Gone", RoleName: "Design", IsActive: false},
	)
	groups, err := newTestService(repo).Team(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "Engineering", groups[0].Role)
	assert.Len(t, groups[0].Members, 2)
	assert.Equal(t, "Design", groups[1].Role)
	assert.Len(t, groups[1].Members, 1)
	assert.Equal(t, "Team", groups[2].Role)
	assert.Equal(t, "Solo", groups[2].Members[0].Name)
}

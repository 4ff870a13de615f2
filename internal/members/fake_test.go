package members

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/roles"
	"github.com/folio-studio/folio/internal/shared"
)

type memRepo struct {
	members map[int64]Member
	hashes  map[int64]string
	nextID  int64
}

func newMemRepo(seed ...Member) *memRepo {
	r := &memRepo{members: map[int64]Member{}, hashes: map[int64]string{}, nextID: 1}
	for _, m := range seed {
		r.members[m.ID] = m
		if m.ID >= r.nextID {
			r.nextID = m.ID + 1
		}
	}
	return r
}

func (r *memRepo) sorted() []Member {
	out := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memRepo) ListMembers(ctx context.Context, f shared.ListFilters) ([]Member, int, error) {
	var out []Member
	for _, m := range r.sorted() {
		if f.Search == "" || strings.Contains(strings.ToLower(m.Name+" "+m.Email), strings.ToLower(f.Search)) {
			out = append(out, m)
		}
	}
	return out, len(out), nil
}

func (r *memRepo) ListActive(ctx context.Context) ([]Member, error) {
	var out []Member
	for _, m := range r.sorted() {
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRepo) GetMember(ctx context.Context, id int64) (Member, error) {
	m, ok := r.members[id]
	if !ok {
		return Member{}, shared.ErrNotFound
	}
	return m, nil
}

func (r *memRepo) emailTaken(email string, id int64) bool {
	for _, m := range r.members {
		if m.Email == email && m.ID != id {
			return true
		}
	}
	return false
}

func (r *memRepo) CreateMember(ctx context.Context, m Member, hash string) (int64, error) {
	if r.emailTaken(m.Email, 0) {
		return 0, fmt.Errorf("%w: members_email_key", shared.ErrDuplicate)
	}
	m.ID = r.nextID
	r.nextID++
	r.members[m.ID] = m
	r.hashes[m.ID] = hash
	return m.ID, nil
}

func (r *memRepo) UpdateMember(ctx context.Context, m Member, hash string) error {
	if _, ok := r.members[m.ID]; !ok {
		return shared.ErrNotFound
	}
	if r.emailTaken(m.Email, m.ID) {
		return fmt.Errorf("%w: members_email_key", shared.ErrDuplicate)
	}
	r.members[m.ID] = m
	if hash != "" {
		r.hashes[m.ID] = hash
	}
	return nil
}

func (r *memRepo) DeleteMember(ctx context.Context, id int64) error {
	if _, ok := r.members[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.members, id)
	return nil
}

func (r *memRepo) CountMembers(ctx context.Context) (int, error) { return len(r.members), nil }

func (r *memRepo) CountActiveAdmins(ctx context.Context, excludeID int64) (int, error) {
	n := 0
	for _, m := range r.members {
		if m.IsActive && m.AccessRole == rbac.RoleAdmin && m.ID != excludeID {
			n++
		}
	}
	return n, nil
}

type staticRoles []roles.Role

func (s staticRoles) ListRoles(ctx context.Context) ([]roles.Role, error) { return s, nil }

func newTestService(repo *memRepo) *Service {
	svc := NewService(repo, nil, nil)
	svc.bcryptCost = bcrypt.MinCost
	return svc
}

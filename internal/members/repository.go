package members

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/folio-studio/folio/internal/platform/db"
	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const memberColumns = `m.id, m.email, m.name, m.title, m.bio, m.avatar_url, m.role_id, COALESCE(r.name, ''),
m.access_role, m.is_active, m.created_at, m.updated_at`

const memberFrom = ` FROM members m LEFT JOIN roles r ON r.id = m.role_id`

func scanMember(row pgx.Row, extra ...any) (Member, error) {
	var m Member
	var access string
	dest := []any{&m.ID, &m.Email, &m.Name, &m.Title, &m.Bio, &m.AvatarURL, &m.RoleID, &m.RoleName,
		&access, &m.IsActive, &m.CreatedAt, &m.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	m.AccessRole = rbac.Role(access)
	return m, err
}

// ListMembers returns one page of members and the total matching count.
func (r *Repository) ListMembers(ctx context.Context, filters shared.ListFilters) ([]Member, int, error) {
	query := `SELECT ` + memberColumns + `, COUNT(*) OVER()` + memberFrom
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		query += ` WHERE m.name ILIKE $1 OR m.email ILIKE $1`
	}
	query += ` ORDER BY m.name, m.id`
	if filters.PerPage > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filters.PerPage, filters.Offset())
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var (
		members []Member
		total   int
	)
	for rows.Next() {
		m, err := scanMember(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		members = append(members, m)
	}
	return members, total, rows.Err()
}

// ListActive returns active members ordered by role sort order then name.
// Members without a role sort last.
func (r *Repository) ListActive(ctx context.Context) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+memberColumns+memberFrom+`
WHERE m.is_active ORDER BY r.sort_order NULLS LAST, r.name NULLS LAST, m.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetMember fetches a member by id.
func (r *Repository) GetMember(ctx context.Context, id int64) (Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx, `SELECT `+memberColumns+memberFrom+` WHERE m.id = $1`, id))
	return m, db.MapError(err)
}

// CreateMember inserts m with the given password hash and returns its id.
func (r *Repository) CreateMember(ctx context.Context, m Member, passwordHash string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO members (email, name, title, bio, avatar_url, role_id, access_role, password_hash, is_active)
VALUES (LOWER($1), $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		m.Email, m.Name, m.Title, m.Bio, m.AvatarURL, m.RoleID, string(m.AccessRole), passwordHash, m.IsActive).Scan(&id)
	return id, db.MapError(err)
}

// UpdateMember overwrites the profile of m. An empty passwordHash keeps the
// current password.
func (r *Repository) UpdateMember(ctx context.Context, m Member, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE members SET email = LOWER($2), name = $3, title = $4, bio = $5, avatar_url = $6,
role_id = $7, access_role = $8, is_active = $9, password_hash = COALESCE(NULLIF($10, ''), password_hash)
WHERE id = $1`,
		m.ID, m.Email, m.Name, m.Title, m.Bio, m.AvatarURL, m.RoleID, string(m.AccessRole), m.IsActive, passwordHash)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteMember removes member id and, by cascade, its sessions.
func (r *Repository) DeleteMember(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountMembers returns the number of members.
func (r *Repository) CountMembers(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM members`).Scan(&n)
	return n, err
}

// CountActiveAdmins returns the number of active members with the ADMIN
// access role, excluding excludeID.
func (r *Repository) CountActiveAdmins(ctx context.Context, excludeID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM members WHERE is_active AND access_role = 'ADMIN' AND id <> $1`, excludeID).Scan(&n)
	return n, err
}

package roles

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/folio-studio/folio/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `r.id, r.name, r.description, r.sort_order, r.created_at, r.updated_at`

// ListRoles returns all roles ordered for display, with member counts.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+`, COUNT(m.id)
FROM roles r LEFT JOIN members m ON m.role_id = r.id
GROUP BY r.id ORDER BY r.sort_order, r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.SortOrder, &role.CreatedAt, &role.UpdatedAt, &role.MemberCount); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// GetRole fetches a role by id.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles r WHERE r.id = $1`, id))
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, in Input) (Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `INSERT INTO roles AS r (name, description, sort_order) VALUES ($1, $2, $3)
RETURNING `+roleColumns, in.Name, in.Description, in.SortOrder))
}

// UpdateRole overwrites the editable fields of role id.
func (r *Repository) UpdateRole(ctx context.Context, id int64, in Input) (Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `UPDATE roles AS r SET name = $2, description = $3, sort_order = $4 WHERE r.id = $1
RETURNING `+roleColumns, id, in.Name, in.Description, in.SortOrder))
}

// DeleteRole removes role id. Members holding it keep their account with
// no role.
func (r *Repository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

// CountRoles returns the number of roles.
func (r *Repository) CountRoles(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles`).Scan(&n)
	return n, err
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.SortOrder, &role.CreatedAt, &role.UpdatedAt)
	return role, db.MapError(err)
}

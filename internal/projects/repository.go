package projects

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/folio-studio/folio/internal/platform/db"
)

// Repository defines persistence for projects.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Project, int, error)
	Get(ctx context.Context, id int64) (Project, error)
	GetBySlug(ctx context.Context, slug string) (Project, error)
	SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	Create(ctx context.Context, p Project) (Project, error)
	Update(ctx context.Context, p Project) (Project, error)
	Delete(ctx context.Context, id int64) error
	SetImage(ctx context.Context, id int64, url string) error
	Counts(ctx context.Context) (Counts, error)
	Categories(ctx context.Context) ([]string, error)
}

// PGRepository implements Repository with pgx.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const projectColumns = `id, slug, title, description, tech_stack, category, status, featured, image_url, demo_url, repo_url, created_at, updated_at`

var sortColumns = map[string]string{
	"title":      "title",
	"category":   "category",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	var status string
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.TechStack, &p.Category, &status,
		&p.Featured, &p.ImageURL, &p.DemoURL, &p.RepoURL, &p.CreatedAt, &p.UpdatedAt)
	p.Status = Status(status)
	if p.TechStack == nil {
		p.TechStack = []string{}
	}
	return p, err
}

// List returns one page of projects plus the total matching count.
func (r *PGRepository) List(ctx context.Context, f ListFilters) ([]Project, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s OR %s ILIKE ANY(tech_stack))", p, p, arg(f.Search)))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if f.Featured != nil {
		where = append(where, "featured = "+arg(*f.Featured))
	}

	query := `SELECT ` + projectColumns + `, COUNT(*) OVER() FROM projects`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	column, ok := sortColumns[f.SortBy]
	dir := "ASC"
	if !ok {
		column, dir = "updated_at", "DESC"
	} else if f.SortDir == "desc" {
		dir = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY featured DESC, %s %s, id DESC", column, dir)
	if f.PerPage > 0 {
		query += fmt.Sprintf(" LIMIT %s OFFSET %s", arg(f.PerPage), arg(f.Offset()))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		out   []Project
		total int
	)
	for rows.Next() {
		var p Project
		var status string
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.TechStack, &p.Category, &status,
			&p.Featured, &p.ImageURL, &p.DemoURL, &p.RepoURL, &p.CreatedAt, &p.UpdatedAt, &total); err != nil {
			return nil, 0, err
		}
		p.Status = Status(status)
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// Get fetches a project by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	return p, db.MapError(err)
}

// GetBySlug fetches a project by slug.
func (r *PGRepository) GetBySlug(ctx context.Context, slug string) (Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE slug = $1`, slug))
	return p, db.MapError(err)
}

// SlugTaken reports whether another project already uses slug.
func (r *PGRepository) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE slug = $1 AND id <> $2)`, slug, excludeID).Scan(&taken)
	return taken, err
}

// Create inserts p and returns the stored row.
func (r *PGRepository) Create(ctx context.Context, p Project) (Project, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO projects (slug, title, description, tech_stack, category, status, featured, demo_url, repo_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING `+projectColumns,
		p.Slug, p.Title, p.Description, p.TechStack, p.Category, string(p.Status), p.Featured, p.DemoURL, p.RepoURL)
	created, err := scanProject(row)
	return created, db.MapError(err)
}

// Update overwrites the editable fields of p.
func (r *PGRepository) Update(ctx context.Context, p Project) (Project, error) {
	row := r.pool.QueryRow(ctx, `UPDATE projects SET slug = $2, title = $3, description = $4, tech_stack = $5, category = $6,
status = $7, featured = $8, demo_url = $9, repo_url = $10 WHERE id = $1 RETURNING `+projectColumns,
		p.ID, p.Slug, p.Title, p.Description, p.TechStack, p.Category, string(p.Status), p.Featured, p.DemoURL, p.RepoURL)
	updated, err := scanProject(row)
	return updated, db.MapError(err)
}

// Delete removes a project.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

// SetImage stores the URL of the project's cover image.
func (r *PGRepository) SetImage(ctx context.Context, id int64, url string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE projects SET image_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

// Counts returns project totals by status.
func (r *PGRepository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*),
COUNT(*) FILTER (WHERE status = 'published'),
COUNT(*) FILTER (WHERE status = 'draft')
FROM projects`).Scan(&c.Total, &c.Published, &c.Draft)
	return c, err
}

// Categories lists the distinct categories of published projects.
func (r *PGRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM projects WHERE status = 'published' AND category <> '' ORDER BY category`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

var _ Repository = (*PGRepository)(nil)

package contact

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/folio-studio/folio/internal/platform/db"
	"github.com/folio-studio/folio/internal/shared"
)

// Repository persists contact submissions.
type Repository interface {
	Insert(ctx context.Context, s Submission) (int64, error)
	Get(ctx context.Context, id int64) (Submission, error)
	List(ctx context.Context, filters shared.ListFilters, flaggedOnly bool) ([]Submission, int, error)
	Latest(ctx context.Context, limit int) ([]Submission, error)
	Counts(ctx context.Context) (Counts, error)
}

// PGRepository implements Repository with pgx.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const submissionColumns = `id, name, email, subject, message, flagged, ip, user_agent, created_at`

func scanSubmission(row pgx.Row) (Submission, error) {
	var s Submission
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Subject, &s.Message, &s.Flagged, &s.IP, &s.UserAgent, &s.CreatedAt)
	return s, err
}

// Insert stores one submission and returns its id.
func (r *PGRepository) Insert(ctx context.Context, s Submission) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO contact_submissions (name, email, subject, message, flagged, ip, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		s.Name, s.Email, s.Subject, s.Message, s.Flagged, s.IP, s.UserAgent).Scan(&id)
	return id, db.MapError(err)
}

// Get fetches a submission by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (Submission, error) {
	s, err := scanSubmission(r.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM contact_submissions WHERE id = $1`, id))
	return s, db.MapError(err)
}

// List returns one page of submissions, newest first.
func (r *PGRepository) List(ctx context.Context, filters shared.ListFilters, flaggedOnly bool) ([]Submission, int, error) {
	query := `SELECT ` + submissionColumns + `, COUNT(*) OVER() FROM contact_submissions WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')`
	if flaggedOnly {
		query += ` AND flagged`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filters.PerPage > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filters.PerPage, filters.Offset())
	}
	rows, err := r.pool.Query(ctx, query, filters.Search)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var (
		out   []Submission
		total int
	)
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Subject, &s.Message, &s.Flagged, &s.IP, &s.UserAgent, &s.CreatedAt, &total); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// Latest returns the newest submissions.
func (r *PGRepository) Latest(ctx context.Context, limit int) ([]Submission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+submissionColumns+` FROM contact_submissions ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Submission, error) {
		return scanSubmission(row)
	})
}

// Counts returns the total and flagged submission counts.
func (r *PGRepository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COUNT(*) FILTER (WHERE flagged) FROM contact_submissions`).Scan(&c.Total, &c.Flagged)
	return c, err
}

// Package diagnostics exposes database checks for administrators.
package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// sampleLimit caps the rows returned by InspectTable.
const sampleLimit = 5

// ErrTableNotAllowed is returned for tables outside the inspectable set.
var ErrTableNotAllowed = errors.New("table is not inspectable")

var inspectable = map[string]struct{}{
	"projects":            {},
	"roles":               {},
	"members":             {},
	"contact_submissions": {},
}

// redacted columns never leave the database in samples.
var redacted = map[string]struct{}{
	"password_hash": {},
}

// Inspectable reports whether table may be inspected.
func Inspectable(table string) bool {
	_, ok := inspectable[table]
	return ok
}

// DBStatus is the result of a connectivity check.
type DBStatus struct {
	Now       time.Time `json:"now"`
	Version   string    `json:"version"`
	LatencyMS float64   `json:"latency_ms"`
}

// Column describes one table column.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
}

// TableReport is the inspection result for a table.
type TableReport struct {
	Table    string           `json:"table"`
	Columns  []Column         `json:"columns"`
	RowCount int64            `json:"row_count"`
	Samples  []map[string]any `json:"samples"`
}

// Inspector runs the diagnostic queries.
type Inspector interface {
	Ping(ctx context.Context) (DBStatus, error)
	InspectTable(ctx context.Context, table string) (TableReport, error)
}

// PGInspector queries PostgreSQL through the shared pool.
type PGInspector struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewInspector builds a PGInspector.
func NewInspector(pool *pgxpool.Pool) *PGInspector {
	return &PGInspector{pool: pool, now: time.Now}
}

// Ping reads the server time and version and reports the round trip.
func (i *PGInspector) Ping(ctx context.Context) (DBStatus, error) {
	start := i.now()
	var status DBStatus
	if err := i.pool.QueryRow(ctx, `SELECT NOW(), version()`).Scan(&status.Now, &status.Version); err != nil {
		return DBStatus{}, fmt.Errorf("diagnostics: ping: %w", err)
	}
	status.LatencyMS = float64(i.now().Sub(start).Microseconds()) / 1000
	return status, nil
}

// InspectTable lists columns, the row count and a few sample rows.
func (i *PGInspector) InspectTable(ctx context.Context, table string) (TableReport, error) {
	if !Inspectable(table) {
		return TableReport{}, ErrTableNotAllowed
	}
	report := TableReport{Table: table}

	rows, err := i.pool.Query(ctx, `
SELECT column_name, data_type, is_nullable = 'YES'
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`, table)
	if err != nil {
		return TableReport{}, fmt.Errorf("diagnostics: columns: %w", err)
	}
	report.Columns, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Column, error) {
		var c Column
		err := row.Scan(&c.Name, &c.DataType, &c.Nullable)
		return c, err
	})
	if err != nil {
		return TableReport{}, fmt.Errorf("diagnostics: columns: %w", err)
	}

	ident := pgx.Identifier{table}.Sanitize()
	if err := i.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+ident).Scan(&report.RowCount); err != nil {
		return TableReport{}, fmt.Errorf("diagnostics: count: %w", err)
	}

	rows, err = i.pool.Query(ctx, fmt.Sprintf(`SELECT * FROM %s ORDER BY 1 DESC LIMIT %d`, ident, sampleLimit))
	if err != nil {
		return TableReport{}, fmt.Errorf("diagnostics: samples: %w", err)
	}
	samples, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return TableReport{}, fmt.Errorf("diagnostics: samples: %w", err)
	}
	for _, sample := range samples {
		for col := range redacted {
			if _, ok := sample[col]; ok {
				sample[col] = "[redacted]"
			}
		}
	}
	report.Samples = samples
	return report, nil
}

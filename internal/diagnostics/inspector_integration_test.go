//go:build integration

package diagnostics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/folio-studio/folio/internal/testing/pgtest"
)

func TestPGInspector(t *testing.T) {
	pg := pgtest.Get(t)
	pg.Truncate(t, "members", "roles")
	_, err := pg.Pool.Exec(context.Background(),
		`INSERT INTO members (email, name, access_role, password_hash) VALUES ('a@example.com', 'Ada', 'ADMIN', 'secret-hash')`)
	require.NoError(t, err)

	inspector := NewInspector(pg.Pool)
	ctx := context.Background()

	status, err := inspector.Ping(ctx)
	require.NoError(t, err)
	require.Contains(t, status.Version, "PostgreSQL")

	report, err := inspector.InspectTable(ctx, "members")
	require.NoError(t, err)
	require.EqualValues(t, 1, report.RowCount)
	require.NotEmpty(t, report.Columns)
	require.Len(t, report.Samples, 1)
	require.Equal(t, "[redacted]", report.Samples[0]["password_hash"])

	_, err = inspector.InspectTable(ctx, "pg_authid")
	require.ErrorIs(t, err, ErrTableNotAllowed)
}

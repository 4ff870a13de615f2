package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/folio-studio/folio/internal/shared"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, MapError(nil))
	assert.ErrorIs(t, MapError(pgx.ErrNoRows), shared.ErrNotFound)
	assert.ErrorIs(t, MapError(fmt.Errorf("scan: %w", pgx.ErrNoRows)), shared.ErrNotFound)

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "projects_slug_key"}
	err := MapError(fmt.Errorf("insert: %w", dup))
	assert.ErrorIs(t, err, shared.ErrDuplicate)
	assert.Contains(t, err.Error(), "projects_slug_key")

	assert.ErrorIs(t, MapError(&pgconn.PgError{Code: "23514"}), shared.ErrValidation)

	other := errors.New("connection reset")
	assert.Equal(t, other, MapError(other))
}

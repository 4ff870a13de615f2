package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// StatementError reports which statement of a script failed.
type StatementError struct {
	Index     int
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("platform/db: statement %d failed: %v", e.Index+1, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

// ExecScript executes each statement of script in order. Statements run
// discretely; earlier statements stay applied when a later one fails.
func ExecScript(ctx context.Context, db Execer, script string, logger *slog.Logger) (int, error) {
	stmts := SplitStatements(script)
	for i, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return i, &StatementError{Index: i, Statement: stmt, Err: err}
		}
		if logger != nil {
			logger.Debug("executed statement", slog.Int("index", i+1), slog.Int("total", len(stmts)))
		}
	}
	return len(stmts), nil
}

// ExecFile reads a SQL file and executes it with ExecScript.
func ExecFile(ctx context.Context, db Execer, path string, logger *slog.Logger) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("platform/db: read %s: %w", path, err)
	}
	return ExecScript(ctx, db, string(data), logger)
}

// Direction selects the migration operation.
type Direction string

// Supported migration directions.
const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Migrate applies embedded migrations in the requested direction and
// returns the resulting schema version.
func Migrate(sqlDB *sql.DB, migrations fs.FS, direction Direction, logger *slog.Logger) (uint, error) {
	m, err := newMigrator(sqlDB, migrations)
	if err != nil {
		return 0, err
	}
	defer closeMigrator(m, logger)

	switch direction {
	case DirectionUp:
		err = m.Up()
	case DirectionDown:
		err = m.Steps(-1)
	default:
		return 0, fmt.Errorf("platform/db: unknown migration direction %q", direction)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to apply")
		err = nil
	}
	if err != nil {
		return 0, fmt.Errorf("platform/db: migrate %s: %w", direction, err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("platform/db: read version: %w", err)
	}
	logger.Info("migrations applied", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	return version, nil
}

// MigrationVersion reports the current schema version.
func MigrationVersion(sqlDB *sql.DB, migrations fs.FS, logger *slog.Logger) (uint, bool, error) {
	m, err := newMigrator(sqlDB, migrations)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrator(m, logger)

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func newMigrator(sqlDB *sql.DB, migrations fs.FS) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("platform/db: migration source: %w", err)
	}
	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("platform/db: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("platform/db: migration instance: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate, logger *slog.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("close migration source", slog.Any("error", srcErr))
	}
	if dbErr != nil {
		logger.Warn("close migration database", slog.Any("error", dbErr))
	}
}

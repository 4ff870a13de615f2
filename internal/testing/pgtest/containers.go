// Package pgtest starts a disposable PostgreSQL container with the schema
// migrations applied, for repository tests tagged "integration".
package pgtest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/folio-studio/folio/internal/platform/db"
	"github.com/folio-studio/folio/migrations"
)

// Image is the PostgreSQL image used by integration tests.
const Image = "postgres:16-alpine"

// DB holds the shared container and a pool connected to it.
type DB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	DSN       string
}

var (
	shared     *DB
	sharedOnce sync.Once
	sharedErr  error
)

// Get returns the migrated database shared by every test in the run.
func Get(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode (requires Docker)")
	}

	sharedOnce.Do(func() {
		shared, sharedErr = start(context.Background())
	})
	if sharedErr != nil {
		t.Fatalf("start postgres container: %v", sharedErr)
	}
	return shared
}

// Truncate empties the given tables between tests.
func (d *DB) Truncate(t *testing.T, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if _, err := d.Pool.Exec(context.Background(), "TRUNCATE "+table+" RESTART IDENTITY CASCADE"); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}

func start(ctx context.Context) (*DB, error) {
	req := testcontainers.ContainerRequest{
		Image:        Image,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "folio_test",
			"POSTGRES_USER":     "folio",
			"POSTGRES_PASSWORD": "folio",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("container port: %w", err)
	}
	dsn := fmt.Sprintf("postgres://folio:folio@%s:%s/folio_test?sslmode=disable", host, port.Port())

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sql: %w", err)
	}
	defer sqlDB.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := db.Migrate(sqlDB, migrations.FS, db.DirectionUp, logger); err != nil {
		return nil, err
	}

	pool, err := db.New(ctx, dsn, db.Options{MaxConns: 5})
	if err != nil {
		return nil, err
	}
	return &DB{Container: container, Pool: pool, DSN: dsn}, nil
}

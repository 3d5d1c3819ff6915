package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pgutil "github.com/imagerisk/imagerisk/pkg/postgres"
)

// PostgresContainer is a throwaway PostgreSQL server with an open pool.
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DSN       string
	Pool      *pgxpool.Pool
}

// NewPostgresContainer starts PostgreSQL 16 and registers its teardown with
// t.Cleanup.
func NewPostgresContainer(ctx context.Context, t testing.TB) *PostgresContainer {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("imagerisk_test"),
		postgres.WithUsername("imagerisk"),
		postgres.WithPassword("imagerisk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("testutil: start postgres: %v", err)
	}

	pc := &PostgresContainer{Container: pgContainer}
	t.Cleanup(func() { pc.terminate(t) })

	pc.DSN, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("testutil: postgres connection string: %v", err)
	}

	pc.Pool, err = pgutil.NewPool(ctx, pgutil.Config{URL: pc.DSN, MaxConns: 8})
	if err != nil {
		t.Fatalf("testutil: %v", err)
	}

	return pc
}

func (pc *PostgresContainer) terminate(t testing.TB) {
	if pc.Pool != nil {
		pc.Pool.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pc.Container.Terminate(ctx); err != nil {
		t.Logf("testutil: terminate postgres: %v", err)
	}
}

// Migrate applies the migrations in dir with the same migrator the service
// runs at startup.
func (pc *PostgresContainer) Migrate(t testing.TB, dir string) {
	t.Helper()

	version, err := pgutil.RunMigrations(pc.DSN, "file://"+dir)
	if err != nil {
		t.Fatalf("testutil: %v", err)
	}
	t.Logf("schema at version %d", version)
}

// Truncate empties the given tables between subtests.
func (pc *PostgresContainer) Truncate(t testing.TB, tables ...string) {
	t.Helper()
	if len(tables) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmt := fmt.Sprintf("TRUNCATE TABLE %s", strings.Join(tables, ", "))
	if _, err := pc.Pool.Exec(ctx, stmt); err != nil {
		t.Fatalf("testutil: truncate %v: %v", tables, err)
	}
}

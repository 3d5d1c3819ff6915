package postgres

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // register postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // register file source driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// RunMigrations applies pending migrations from a source URL such as
// "file://internal/infrastructure/postgres/migrations" and returns the
// resulting schema version.
func RunMigrations(dsn, sourceURL string) (uint, error) {
	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return 0, fmt.Errorf("postgres: create migrator: %w", err)
	}
	return migrateUp(m)
}

// RunMigrationsFS applies pending migrations read from dir inside fsys,
// typically an embed.FS compiled into the binary.
func RunMigrationsFS(dsn string, fsys fs.FS, dir string) (uint, error) {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return 0, fmt.Errorf("postgres: open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return 0, fmt.Errorf("postgres: create migrator: %w", err)
	}
	return migrateUp(m)
}

func migrateUp(m *migrate.Migrate) (uint, error) {
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("postgres: run migrations up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("postgres: read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("postgres: schema version %d is dirty", version)
	}

	return version, nil
}

package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDirtySchema means a previous migration failed halfway and the database
// needs manual repair before the service can start.
var ErrDirtySchema = errors.New("database schema is dirty")

// SchemaVersion is the migration level of a database after RunMigrations.
type SchemaVersion struct {
	Version uint
	Applied int // migrations applied by this run
}

// RunMigrations brings the schema at dsn up to the latest embedded version.
func RunMigrations(dsn string) (SchemaVersion, error) {
	// The sqlite driver closes this connection together with the migrate
	// instance, so it must not be the repository's pool.
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("open migration database: %w", err)
	}
	defer conn.Close()

	m, err := newMigrator(conn)
	if err != nil {
		return SchemaVersion{}, err
	}
	defer m.Close()

	before, err := currentVersion(m)
	if err != nil {
		return SchemaVersion{}, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return SchemaVersion{}, fmt.Errorf("apply migrations from version %d: %w", before, err)
	}

	after, err := currentVersion(m)
	if err != nil {
		return SchemaVersion{}, err
	}
	return SchemaVersion{Version: after, Applied: int(after) - int(before)}, nil
}

func newMigrator(conn *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("create sqlite migration driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// currentVersion is 0 for a fresh database.
func currentVersion(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("read schema version: %w", err)
	case dirty:
		return v, fmt.Errorf("%w at version %d", ErrDirtySchema, v)
	}
	return v, nil
}

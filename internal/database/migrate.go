package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // register postgres driver
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"  // register sqlite3 driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationFiles embed.FS

func newMigrator(driver, url string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("database: open %s migrations: %w", driver, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return nil, fmt.Errorf("database: create migrator: %w", err)
	}
	return m, nil
}

// RunMigrations applies every pending migration for driver against url. It
// returns nil when the schema is already current.
func RunMigrations(driver, url string) error {
	m, err := newMigrator(driver, url)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("database: run migrations up: %w", err)
	}

	return nil
}

// RunMigrationsDown rolls back all migrations.
// If there are no migrations to roll back the function returns nil.
func RunMigrationsDown(driver, url string) error {
	m, err := newMigrator(driver, url)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("database: run migrations down: %w", err)
	}

	return nil
}

// Version reports the applied schema version and whether it is dirty.
func Version(driver, url string) (uint, bool, error) {
	m, err := newMigrator(driver, url)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

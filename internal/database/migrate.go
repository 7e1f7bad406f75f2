package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"jccadmin/internal/config"
	"jccadmin/migrations"
)

// MigrateUp runs all pending migrations.
func (db *DB) MigrateUp(ctx context.Context) error {
	return db.withMigrate(ctx, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	})
}

// MigrateDown rolls back the last migration.
func (db *DB) MigrateDown(ctx context.Context) error {
	return db.withMigrate(ctx, func(m *migrate.Migrate) error {
		if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to rollback migration: %w", err)
		}
		return nil
	})
}

// MigrateVersion returns the current migration version and dirty flag.
func (db *DB) MigrateVersion(ctx context.Context) (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := db.withMigrate(ctx, func(m *migrate.Migrate) error {
		var err error
		version, dirty, err = m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("failed to get migration version: %w", err)
		}
		return nil
	})
	return version, dirty, err
}

// withMigrate builds a migrate instance over the embedded migrations for the
// current dialect. migrate.Close is never called: for both drivers it would
// close the shared pool along with the migration handle.
func (db *DB) withMigrate(ctx context.Context, fn func(m *migrate.Migrate) error) error {
	src, err := iofs.New(migrations.FS, migrationsDir(db.Driver))
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}
	defer closeSource(src)

	driver, release, err := db.migrationDriver(ctx)
	if err != nil {
		return err
	}
	defer release()

	m, err := migrate.NewWithInstance("iofs", src, db.Driver, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return fn(m)
}

func (db *DB) migrationDriver(ctx context.Context) (migratedb.Driver, func(), error) {
	if db.Driver == config.DriverSQLite {
		driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
		}
		return driver, func() {}, nil
	}

	conn, err := db.DB.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire migration connection: %w", err)
	}
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}
	return driver, func() { _ = driver.Close() }, nil
}

func migrationsDir(driver string) string {
	if driver == config.DriverSQLite {
		return "sqlite"
	}
	return "postgres"
}

func closeSource(src source.Driver) {
	_ = src.Close()
}

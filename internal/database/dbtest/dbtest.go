// Package dbtest opens throwaway SQLite databases with the real schema applied.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"jccadmin/internal/config"
	"jccadmin/internal/database"
)

// TempURL returns a SQLite URL for a fresh file in t.TempDir.
func TempURL(t testing.TB) string {
	t.Helper()
	return "file:" + filepath.Join(t.TempDir(), "jcc.db") + "?_time_format=sqlite"
}

// NewSQLite returns a migrated SQLite database backed by a file in t.TempDir.
// The database is closed when the test finishes.
func NewSQLite(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		URL:    TempURL(t),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.MigrateUp(context.Background()); err != nil {
		t.Fatalf("failed to migrate sqlite database: %v", err)
	}
	return db
}

// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/fiducialend/internal/config"
	"github.com/segyhp/fiducialend/internal/database"
)

// NewSQLiteDB returns a migrated sqlite database living in the test's temp dir.
func NewSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver: "sqlite3",
		URL:    filepath.Join(t.TempDir(), "fiducialend_test.db"),
	}

	require.NoError(t, database.RunMigrations(cfg.Driver, cfg.MigrationURL()))

	db, err := database.Open(context.Background(), cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })
	return db
}

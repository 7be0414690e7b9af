// Package dbtest opens throwaway migrated SQLite databases for package tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"akstore/internal/db"
)

// New returns a file-backed SQLite database with both migration sets applied.
// It is closed when the test ends.
func New(t testing.TB) *db.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(context.Background(), "sqlite", dsn, 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	require.NoError(t, d.Migrate(context.Background(), db.SetApp))
	require.NoError(t, d.Migrate(context.Background(), db.SetSystem))
	return d
}

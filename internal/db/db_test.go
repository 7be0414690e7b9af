package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"akstore/internal/db"
	"akstore/internal/db/dbtest"
)

func TestMigrateIsIdempotent(t *testing.T) {
	d := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, d.Migrate(ctx, db.SetApp))
	require.NoError(t, d.Migrate(ctx, db.SetSystem))

	var n int
	require.NoError(t, d.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestTxRollbackDiscardsWrites(t *testing.T) {
	d := dbtest.New(t)
	ctx := context.Background()

	tx, err := d.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, `INSERT INTO categories (id, name, image) VALUES (?, ?, ?)`, "c1", "Laptop", "")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	var n int
	require.NoError(t, d.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n))
	assert.Zero(t, n)
}

func TestUniqueViolation(t *testing.T) {
	d := dbtest.New(t)
	ctx := context.Background()

	_, err := d.Exec(ctx, `INSERT INTO categories (id, name, image) VALUES (?, ?, ?)`, "c1", "Laptop", "")
	require.NoError(t, err)
	_, err = d.Exec(ctx, `INSERT INTO categories (id, name, image) VALUES (?, ?, ?)`, "c2", "Laptop", "")
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))

	_, err = d.Exec(ctx, `INSERT INTO categories (id, name, image) VALUES (?, ?, ?)`, "c1", "Other", "")
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))

	assert.False(t, db.IsUniqueViolation(assert.AnError))
}

func TestForeignKeysEnforced(t *testing.T) {
	d := dbtest.New(t)
	ctx := context.Background()

	_, err := d.Exec(ctx, `INSERT INTO brand_categories (brand_id, category_id) VALUES (?, ?)`, "nope", "nope")
	assert.Error(t, err)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := db.Open(context.Background(), "mysql", "x", 1)
	assert.ErrorContains(t, err, "unsupported")
}

package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	q := `SELECT * FROM orders WHERE user_id = ? AND status = ?`
	assert.Equal(t, q, SQLite.rebind(q))
	assert.Equal(t, `SELECT * FROM orders WHERE user_id = $1 AND status = $2`, Postgres.rebind(q))
}

func TestWithLock(t *testing.T) {
	q := "SELECT name FROM brands WHERE id = ?\n"
	assert.Equal(t, q, SQLite.withLock(q, ForUpdate))
	assert.Equal(t, "SELECT name FROM brands WHERE id = ? FOR UPDATE", Postgres.withLock(q, ForUpdate))
	assert.Equal(t, "SELECT id FROM categories WHERE name = $1 FOR SHARE",
		Postgres.rebind(Postgres.withLock("SELECT id FROM categories WHERE name = ?;", ForShare)))
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("-- header\nCREATE TABLE a (x INT);\n\n-- b\nCREATE TABLE b (y INT);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE TABLE b (y INT)"}, stmts)
}

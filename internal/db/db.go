package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// rebind rewrites ? placeholders into $n for postgres.
func (d Dialect) rebind(q string) string {
	if d != Postgres || !strings.Contains(q, "?") {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Lock is a row lock taken by a SELECT inside a transaction.
type Lock string

const (
	ForUpdate Lock = "FOR UPDATE"
	ForShare  Lock = "FOR SHARE"
)

// withLock appends l on postgres. A SQLite transaction holds the database
// write lock from BEGIN (_txlock=immediate), so q is left as is there.
func (d Dialect) withLock(q string, l Lock) string {
	if d != Postgres {
		return q
	}
	return strings.TrimRight(q, " \t\n;") + " " + string(l)
}

// Querier is satisfied by both *DB and *Tx so repos can run inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, q string, args ...any) (sql.Result, error)
	Query(ctx context.Context, q string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, q string, args ...any) *sql.Row
}

type DB struct {
	sql     *sql.DB
	dialect Dialect
	close   func()
}

func Open(ctx context.Context, driver, dsn string, maxConns int) (*DB, error) {
	switch Dialect(strings.ToLower(driver)) {
	case SQLite:
		return openSQLite(dsn, maxConns)
	case Postgres:
		return openPostgres(ctx, dsn, maxConns)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func (d *DB) Dialect() Dialect { return d.dialect }

func (d *DB) SQL() *sql.DB { return d.sql }

func (d *DB) Ping(ctx context.Context) error { return d.sql.PingContext(ctx) }

func (d *DB) Close() error {
	err := d.sql.Close()
	if d.close != nil {
		d.close()
	}
	return err
}

func (d *DB) Exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return d.sql.ExecContext(ctx, d.dialect.rebind(q), args...)
}

func (d *DB) Query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return d.sql.QueryContext(ctx, d.dialect.rebind(q), args...)
}

func (d *DB) QueryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return d.sql.QueryRowContext(ctx, d.dialect.rebind(q), args...)
}

func (d *DB) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, dialect: d.dialect}, nil
}

type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

func (t *Tx) Exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.dialect.rebind(q), args...)
}

func (t *Tx) Query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.dialect.rebind(q), args...)
}

func (t *Tx) QueryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.dialect.rebind(q), args...)
}

// QueryRowLocked is QueryRow with the selected rows locked until the
// transaction ends.
func (t *Tx) QueryRowLocked(ctx context.Context, l Lock, q string, args ...any) *sql.Row {
	return t.QueryRow(ctx, t.dialect.withLock(q, l), args...)
}

func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback is safe to defer; after Commit it returns sql.ErrTxDone.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

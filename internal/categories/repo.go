package categories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"akstore/internal/apperr"
	"akstore/internal/db"
	"akstore/internal/domain/category"
	"akstore/internal/util"
)

type Repo struct {
	db  *db.DB
	now func() time.Time
}

func NewRepo(d *db.DB) *Repo {
	return &Repo{db: d, now: time.Now}
}

type Input struct {
	Name  string `json:"name" binding:"required"`
	Image string `json:"image"`
}

func (r *Repo) List(ctx context.Context) ([]category.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, image FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []category.Category{}
	for rows.Next() {
		var c category.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Image); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (category.Category, error) {
	var c category.Category
	err := r.db.QueryRow(ctx, `SELECT id, name, image FROM categories WHERE id = ?`, id).Scan(&c.ID, &c.Name, &c.Image)
	if errors.Is(err, sql.ErrNoRows) {
		return category.Category{}, apperr.NotFoundf("category %s not found", id)
	}
	return c, err
}

func (r *Repo) Create(ctx context.Context, in Input) (category.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return category.Category{}, apperr.Invalid("name is required")
	}
	c := category.Category{
		ID:    util.TimestampID(util.Slugify(name), r.now()),
		Name:  name,
		Image: in.Image,
	}
	if err := Insert(ctx, r.db, c); err != nil {
		return category.Category{}, err
	}
	return c, nil
}

// Insert writes c with its given id.
func Insert(ctx context.Context, q db.Querier, c category.Category) error {
	_, err := q.Exec(ctx, `INSERT INTO categories (id, name, image) VALUES (?, ?, ?)`, c.ID, c.Name, c.Image)
	if db.IsUniqueViolation(err) {
		return apperr.Conflictf("category %q already exists", c.Name)
	}
	return err
}

// Update renames the category and moves every product filed under the old
// name along with it, in one transaction.
func (r *Repo) Update(ctx context.Context, id string, in Input) (category.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return category.Category{}, apperr.Invalid("name is required")
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return category.Category{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var oldName string
	err = tx.QueryRow(ctx, `SELECT name FROM categories WHERE id = ?`, id).Scan(&oldName)
	if errors.Is(err, sql.ErrNoRows) {
		return category.Category{}, apperr.NotFoundf("category %s not found", id)
	}
	if err != nil {
		return category.Category{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE categories SET name = ?, image = ? WHERE id = ?`, name, in.Image, id); err != nil {
		if db.IsUniqueViolation(err) {
			return category.Category{}, apperr.Conflictf("category %q already exists", name)
		}
		return category.Category{}, err
	}
	if oldName != name {
		if _, err := tx.Exec(ctx, `UPDATE products SET category = ? WHERE category = ?`, name, oldName); err != nil {
			return category.Category{}, apperr.TxFailed("could not rename category", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return category.Category{}, apperr.TxFailed("could not rename category", err)
	}
	return category.Category{ID: id, Name: name, Image: in.Image}, nil
}

// Delete refuses while any product is filed under the category.
func (r *Repo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var name string
	// held until commit so a concurrent product write naming it waits
	err = tx.QueryRowLocked(ctx, db.ForUpdate, `SELECT name FROM categories WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("category %s not found", id)
	}
	if err != nil {
		return err
	}

	var n int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE category = ?`, name).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflictf("category %q is used by %d product(s)", name, n)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

package brands

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"akstore/internal/apperr"
	"akstore/internal/db"
	"akstore/internal/domain/brand"
	"akstore/internal/util"
)

type Repo struct {
	db  *db.DB
	now func() time.Time
}

func NewRepo(d *db.DB) *Repo {
	return &Repo{db: d, now: time.Now}
}

// Input is the brand form. A nil CategoryIDs on Update keeps the current
// links; an empty one clears them.
type Input struct {
	Name        string   `json:"name" binding:"required"`
	Logo        string   `json:"logo"`
	CategoryIDs []string `json:"category_ids"`
}

// UnmarshalJSON also takes the camelCase categoryIds spelling.
func (in *Input) UnmarshalJSON(data []byte) error {
	type plain Input
	var aux struct {
		plain
		CamelCategoryIDs []string `json:"categoryIds"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*in = Input(aux.plain)
	if in.CategoryIDs == nil {
		in.CategoryIDs = aux.CamelCategoryIDs
	}
	return nil
}

func (r *Repo) List(ctx context.Context) ([]brand.Brand, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, logo FROM brands ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []brand.Brand{}
	index := map[string]int{}
	for rows.Next() {
		b := brand.Brand{CategoryIDs: []string{}}
		if err := rows.Scan(&b.ID, &b.Name, &b.Logo); err != nil {
			return nil, err
		}
		index[b.ID] = len(out)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	links, err := r.db.Query(ctx, `SELECT brand_id, category_id FROM brand_categories ORDER BY brand_id, category_id`)
	if err != nil {
		return nil, err
	}
	defer links.Close()
	for links.Next() {
		var bid, cid string
		if err := links.Scan(&bid, &cid); err != nil {
			return nil, err
		}
		if i, ok := index[bid]; ok {
			out[i].CategoryIDs = append(out[i].CategoryIDs, cid)
		}
	}
	return out, links.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (brand.Brand, error) {
	return get(ctx, r.db, id)
}

func get(ctx context.Context, q db.Querier, id string) (brand.Brand, error) {
	b := brand.Brand{CategoryIDs: []string{}}
	err := q.QueryRow(ctx, `SELECT id, name, logo FROM brands WHERE id = ?`, id).Scan(&b.ID, &b.Name, &b.Logo)
	if errors.Is(err, sql.ErrNoRows) {
		return brand.Brand{}, apperr.NotFoundf("brand %s not found", id)
	}
	if err != nil {
		return brand.Brand{}, err
	}

	rows, err := q.Query(ctx, `SELECT category_id FROM brand_categories WHERE brand_id = ? ORDER BY category_id`, id)
	if err != nil {
		return brand.Brand{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var cid string
		if err := rows.Scan(&cid); err != nil {
			return brand.Brand{}, err
		}
		b.CategoryIDs = append(b.CategoryIDs, cid)
	}
	return b, rows.Err()
}

func (r *Repo) Create(ctx context.Context, in Input) (brand.Brand, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return brand.Brand{}, apperr.Invalid("name is required")
	}
	b := brand.Brand{
		ID:          util.TimestampID(util.Slugify(name), r.now()),
		Name:        name,
		Logo:        in.Logo,
		CategoryIDs: in.CategoryIDs,
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return brand.Brand{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := Insert(ctx, tx, b); err != nil {
		return brand.Brand{}, err
	}
	b, err = get(ctx, tx, b.ID)
	if err != nil {
		return brand.Brand{}, err
	}
	if err := tx.Commit(); err != nil {
		return brand.Brand{}, apperr.TxFailed("could not create brand", err)
	}
	return b, nil
}

// Insert writes b and its category links. Run it inside a transaction.
func Insert(ctx context.Context, q db.Querier, b brand.Brand) error {
	_, err := q.Exec(ctx, `INSERT INTO brands (id, name, logo) VALUES (?, ?, ?)`, b.ID, b.Name, b.Logo)
	if db.IsUniqueViolation(err) {
		return apperr.Conflictf("brand %q already exists", b.Name)
	}
	if err != nil {
		return err
	}
	return linkCategories(ctx, q, b.ID, b.CategoryIDs)
}

func linkCategories(ctx context.Context, q db.Querier, brandID string, categoryIDs []string) error {
	seen := map[string]bool{}
	for _, cid := range categoryIDs {
		if seen[cid] {
			continue
		}
		seen[cid] = true

		var n int
		if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE id = ?`, cid).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return apperr.Invalid("unknown category id %q", cid)
		}
		if _, err := q.Exec(ctx, `INSERT INTO brand_categories (brand_id, category_id) VALUES (?, ?)`, brandID, cid); err != nil {
			return err
		}
	}
	return nil
}

// Update replaces name and logo, and the category links when in carries them.
// A rename is carried over to products.
func (r *Repo) Update(ctx context.Context, id string, in Input) (brand.Brand, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return brand.Brand{}, apperr.Invalid("name is required")
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return brand.Brand{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var oldName string
	err = tx.QueryRow(ctx, `SELECT name FROM brands WHERE id = ?`, id).Scan(&oldName)
	if errors.Is(err, sql.ErrNoRows) {
		return brand.Brand{}, apperr.NotFoundf("brand %s not found", id)
	}
	if err != nil {
		return brand.Brand{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE brands SET name = ?, logo = ? WHERE id = ?`, name, in.Logo, id); err != nil {
		if db.IsUniqueViolation(err) {
			return brand.Brand{}, apperr.Conflictf("brand %q already exists", name)
		}
		return brand.Brand{}, err
	}
	if oldName != name {
		if _, err := tx.Exec(ctx, `UPDATE products SET brand = ? WHERE brand = ?`, name, oldName); err != nil {
			return brand.Brand{}, apperr.TxFailed("could not rename brand", err)
		}
	}
	if in.CategoryIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM brand_categories WHERE brand_id = ?`, id); err != nil {
			return brand.Brand{}, err
		}
		if err := linkCategories(ctx, tx, id, in.CategoryIDs); err != nil {
			return brand.Brand{}, err
		}
	}

	b, err := get(ctx, tx, id)
	if err != nil {
		return brand.Brand{}, err
	}
	if err := tx.Commit(); err != nil {
		return brand.Brand{}, apperr.TxFailed("could not update brand", err)
	}
	return b, nil
}

// Delete refuses while any product carries the brand.
func (r *Repo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var name string
	// held until commit so a concurrent product write naming it waits
	err = tx.QueryRowLocked(ctx, db.ForUpdate, `SELECT name FROM brands WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("brand %s not found", id)
	}
	if err != nil {
		return err
	}

	var n int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE brand = ?`, name).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflictf("brand %q is used by %d product(s)", name, n)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM brands WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

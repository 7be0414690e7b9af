package products

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"akstore/internal/apperr"
	"akstore/internal/db"
	"akstore/internal/domain/product"
	"akstore/internal/util"
)

// maxReviewAttempts bounds the optimistic retry loop in AddReview.
const maxReviewAttempts = 5

var errVersionConflict = errors.New("product version changed")

type Repo struct {
	db  *db.DB
	now func() time.Time
}

func NewRepo(d *db.DB) *Repo {
	return &Repo{db: d, now: time.Now}
}

// Input is the editable part of a product. Rating, reviews and id are managed by the store.
type Input struct {
	Name             string          `json:"name" binding:"required"`
	Brand            string          `json:"brand" binding:"required"`
	Category         string          `json:"category" binding:"required"`
	Price            int64           `json:"price"`
	OriginalPrice    *int64          `json:"originalPrice"`
	Images           []string        `json:"images"`
	Description      string          `json:"description"`
	ShortDescription string          `json:"shortDescription"`
	Specs            product.Specs   `json:"specs"`
	Options          product.Options `json:"options"`
	IsFeatured       bool            `json:"isFeatured"`
	IsBestSeller     bool            `json:"isBestSeller"`
}

type ReviewInput struct {
	Author  string `json:"author" binding:"required"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

const productColumns = `id, name, brand, category, price, original_price, images, description,
	short_description, specs, options, rating, review_count, is_featured, is_best_seller, created_at`

func (r *Repo) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []product.Product{}
	index := map[string]int{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reviews, err := r.db.Query(ctx, `
		SELECT product_id, id, author, rating, comment, created_at
		FROM product_reviews
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer reviews.Close()
	for reviews.Next() {
		var pid string
		var rv product.Review
		if err := reviews.Scan(&pid, &rv.ID, &rv.Author, &rv.Rating, &rv.Comment, &rv.Date); err != nil {
			return nil, err
		}
		if i, ok := index[pid]; ok {
			out[i].Reviews = append(out[i].Reviews, rv)
		}
	}
	return out, reviews.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (product.Product, error) {
	return r.get(ctx, r.db, id)
}

func (r *Repo) get(ctx context.Context, q db.Querier, id string) (product.Product, error) {
	p, err := scanProduct(q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return product.Product{}, apperr.NotFoundf("product %s not found", id)
	}
	if err != nil {
		return product.Product{}, err
	}
	p.Reviews, err = listReviews(ctx, q, id)
	return p, err
}

func listReviews(ctx context.Context, q db.Querier, productID string) ([]product.Review, error) {
	rows, err := q.Query(ctx, `
		SELECT id, author, rating, comment, created_at
		FROM product_reviews
		WHERE product_id = ?
		ORDER BY created_at DESC, id DESC
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []product.Review{}
	for rows.Next() {
		var rv product.Review
		if err := rows.Scan(&rv.ID, &rv.Author, &rv.Rating, &rv.Comment, &rv.Date); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, in Input) (product.Product, error) {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return product.Product{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := validate(ctx, tx, in); err != nil {
		return product.Product{}, err
	}
	now := r.now()
	p := fromInput(in)
	p.ID = util.TimestampID(util.Slugify(in.Name), now)
	p.CreatedAt = now.UnixMilli()

	if err := Insert(ctx, tx, p); err != nil {
		return product.Product{}, err
	}
	if err := tx.Commit(); err != nil {
		return product.Product{}, err
	}
	return r.Get(ctx, p.ID)
}

// Insert writes p and its reviews as given. Aggregates are stored verbatim.
func Insert(ctx context.Context, q db.Querier, p product.Product) error {
	images, specs, options, err := encodeJSONColumns(p)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO products (id, name, brand, category, price, original_price, images, description,
		  short_description, specs, options, rating, review_count, is_featured, is_best_seller, version, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,0,?)
	`, p.ID, p.Name, p.Brand, p.Category, p.Price, nullInt(p.OriginalPrice), images, p.Description,
		p.ShortDescription, specs, options, p.Rating, p.ReviewCount, p.IsFeatured, p.IsBestSeller, p.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Conflictf("product %s already exists", p.ID)
		}
		return err
	}
	for _, rv := range p.Reviews {
		if _, err := q.Exec(ctx, `
			INSERT INTO product_reviews (id, product_id, author, rating, comment, created_at)
			VALUES (?,?,?,?,?,?)
		`, rv.ID, p.ID, rv.Author, rv.Rating, rv.Comment, int64(rv.Date)); err != nil {
			return fmt.Errorf("review insert failed: %w", err)
		}
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, id string, in Input) (product.Product, error) {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return product.Product{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := validate(ctx, tx, in); err != nil {
		return product.Product{}, err
	}
	p := fromInput(in)
	images, specs, options, err := encodeJSONColumns(p)
	if err != nil {
		return product.Product{}, err
	}
	res, err := tx.Exec(ctx, `
		UPDATE products
		SET name = ?, brand = ?, category = ?, price = ?, original_price = ?, images = ?,
		    description = ?, short_description = ?, specs = ?, options = ?,
		    is_featured = ?, is_best_seller = ?
		WHERE id = ?
	`, p.Name, p.Brand, p.Category, p.Price, nullInt(p.OriginalPrice), images,
		p.Description, p.ShortDescription, specs, options,
		p.IsFeatured, p.IsBestSeller, id)
	if err != nil {
		return product.Product{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return product.Product{}, apperr.NotFoundf("product %s not found", id)
	}
	if err := tx.Commit(); err != nil {
		return product.Product{}, err
	}
	return r.Get(ctx, id)
}

// Delete does not look at orders: line items carry their own product snapshot.
func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("product %s not found", id)
	}
	return nil
}

// AddReview prepends a review and recomputes rating and reviewCount. A write
// that lost the race against another review on the same product is retried.
func (r *Repo) AddReview(ctx context.Context, productID string, in ReviewInput) (product.Product, error) {
	in.Author = strings.TrimSpace(in.Author)
	if in.Author == "" {
		return product.Product{}, apperr.Invalid("author is required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return product.Product{}, apperr.Invalid("rating must be between 1 and 5")
	}

	var lastErr error
	for attempt := 0; attempt < maxReviewAttempts; attempt++ {
		err := r.addReviewOnce(ctx, productID, in)
		if errors.Is(err, errVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return product.Product{}, err
		}
		return r.Get(ctx, productID)
	}
	return product.Product{}, apperr.TxFailed("could not save review, please retry", lastErr)
}

func (r *Repo) addReviewOnce(ctx context.Context, productID string, in ReviewInput) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var version int64
	err = tx.QueryRow(ctx, `SELECT version FROM products WHERE id = ?`, productID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("product %s not found", productID)
	}
	if err != nil {
		return err
	}

	now := r.now()
	if _, err := tx.Exec(ctx, `
		INSERT INTO product_reviews (id, product_id, author, rating, comment, created_at)
		VALUES (?,?,?,?,?,?)
	`, util.NextMillis(now), productID, in.Author, in.Rating, in.Comment, now.UnixMilli()); err != nil {
		return fmt.Errorf("review insert failed: %w", err)
	}

	ratings, err := reviewRatings(ctx, tx, productID)
	if err != nil {
		return err
	}
	res, err := tx.Exec(ctx, `
		UPDATE products SET rating = ?, review_count = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, AverageRating(ratings), len(ratings), productID, version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errVersionConflict
	}
	return tx.Commit()
}

func reviewRatings(ctx context.Context, q db.Querier, productID string) ([]int, error) {
	rows, err := q.Query(ctx, `SELECT rating FROM product_reviews WHERE product_id = ?`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// AverageRating is the mean rounded half-up to one decimal; 0 with no ratings.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, v := range ratings {
		sum = sum.Add(decimal.NewFromInt(int64(v)))
	}
	avg, _ := sum.Div(decimal.NewFromInt(int64(len(ratings)))).Round(1).Float64()
	return avg
}

// validate checks required fields and that brand and category refer to
// existing rows. Both rows stay share-locked until tx ends, so a concurrent
// delete of either waits for the product write.
func validate(ctx context.Context, tx *db.Tx, in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Invalid("name is required")
	}
	if in.Price < 0 {
		return apperr.Invalid("price must not be negative")
	}
	if in.OriginalPrice != nil && *in.OriginalPrice < 0 {
		return apperr.Invalid("originalPrice must not be negative")
	}
	var id string
	err := tx.QueryRowLocked(ctx, db.ForShare, `SELECT id FROM categories WHERE name = ?`, in.Category).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Invalid("unknown category %q", in.Category)
	}
	if err != nil {
		return err
	}
	err = tx.QueryRowLocked(ctx, db.ForShare, `SELECT id FROM brands WHERE name = ?`, in.Brand).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Invalid("unknown brand %q", in.Brand)
	}
	return err
}

func fromInput(in Input) product.Product {
	images := in.Images
	if images == nil {
		images = []string{}
	}
	return product.Product{
		Name:             strings.TrimSpace(in.Name),
		Brand:            in.Brand,
		Category:         in.Category,
		Price:            in.Price,
		OriginalPrice:    in.OriginalPrice,
		Images:           images,
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		Specs:            in.Specs,
		Options:          in.Options,
		IsFeatured:       in.IsFeatured,
		IsBestSeller:     in.IsBestSeller,
		Reviews:          []product.Review{},
	}
}

func encodeJSONColumns(p product.Product) (images, specs, options string, err error) {
	b, err := json.Marshal(p.Images)
	if err != nil {
		return
	}
	images = string(b)
	if images == "null" {
		images = "[]"
	}
	if b, err = json.Marshal(p.Specs); err != nil {
		return
	}
	specs = string(b)
	if b, err = json.Marshal(p.Options); err != nil {
		return
	}
	options = string(b)
	return
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (product.Product, error) {
	var (
		p                      product.Product
		orig                   sql.NullInt64
		images, specs, options string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Brand, &p.Category, &p.Price, &orig, &images, &p.Description,
		&p.ShortDescription, &specs, &options, &p.Rating, &p.ReviewCount, &p.IsFeatured, &p.IsBestSeller, &p.CreatedAt); err != nil {
		return product.Product{}, err
	}
	if orig.Valid {
		v := orig.Int64
		p.OriginalPrice = &v
	}
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return product.Product{}, fmt.Errorf("product %s images: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(specs), &p.Specs); err != nil {
		return product.Product{}, fmt.Errorf("product %s specs: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(options), &p.Options); err != nil {
		return product.Product{}, fmt.Errorf("product %s options: %w", p.ID, err)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	p.Reviews = []product.Review{}
	p.DiscountPercent = p.Discount()
	return p, nil
}

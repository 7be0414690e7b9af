package products_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"akstore/internal/apperr"
	"akstore/internal/brands"
	"akstore/internal/db"
	"akstore/internal/db/dbtest"
	"akstore/internal/domain/product"
	"akstore/internal/products"
	"akstore/internal/seed"
)

func seeded(t *testing.T) (*db.DB, *products.Repo) {
	t.Helper()
	d := dbtest.New(t)
	require.NoError(t, seed.Apply(context.Background(), d, d))
	return d, products.NewRepo(d)
}

func TestListNewestFirst(t *testing.T) {
	_, repo := seeded(t)

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, "iphone-15-pro", items[0].ID)
	assert.Equal(t, 6, items[0].DiscountPercent)
	require.Len(t, items[0].Reviews, 2)
	assert.Equal(t, "Minh Anh", items[0].Reviews[0].Author)
	assert.Equal(t, []string{"Màn hình", "CPU", "Camera", "Pin"}, items[0].Specs.Keys())
	assert.Empty(t, items[4].Reviews)
	assert.NotNil(t, items[4].Reviews)
}

func TestAddReviewRecomputesRating(t *testing.T) {
	_, repo := seeded(t)
	ctx := context.Background()

	p, err := repo.AddReview(ctx, "iphone-15-pro", products.ReviewInput{Author: "Lan", Rating: 3, Comment: "Ổn"})
	require.NoError(t, err)
	assert.Equal(t, 4.0, p.Rating)
	assert.Equal(t, 3, p.ReviewCount)
	require.Len(t, p.Reviews, 3)
	assert.Equal(t, "Lan", p.Reviews[0].Author)
}

func TestAddReviewKeepsAggregateConsistent(t *testing.T) {
	_, repo := seeded(t)
	ctx := context.Background()

	ratings := []int{}
	for _, r := range []int{5, 1, 4, 4, 2, 3, 5} {
		p, err := repo.AddReview(ctx, "macbook-pro-14-m3", products.ReviewInput{Author: "a", Rating: r})
		require.NoError(t, err)
		ratings = append(ratings, r)

		assert.Equal(t, products.AverageRating(ratings), p.Rating)
		assert.Equal(t, len(ratings), p.ReviewCount)
		assert.Len(t, p.Reviews, len(ratings))
	}
}

func TestAddReviewConcurrent(t *testing.T) {
	_, repo := seeded(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.AddReview(ctx, "iphone-15-pro", products.ReviewInput{Author: "c", Rating: 1 + i%5})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	p, err := repo.Get(ctx, "iphone-15-pro")
	require.NoError(t, err)
	assert.Equal(t, n+2, p.ReviewCount)
	assert.Len(t, p.Reviews, n+2)

	ratings := make([]int, 0, len(p.Reviews))
	for _, rv := range p.Reviews {
		ratings = append(ratings, rv.Rating)
	}
	assert.Equal(t, products.AverageRating(ratings), p.Rating)
}

func TestAddReviewErrors(t *testing.T) {
	_, repo := seeded(t)
	ctx := context.Background()

	_, err := repo.AddReview(ctx, "nope", products.ReviewInput{Author: "a", Rating: 5})
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = repo.AddReview(ctx, "iphone-15-pro", products.ReviewInput{Author: "a", Rating: 6})
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = repo.AddReview(ctx, "iphone-15-pro", products.ReviewInput{Author: " ", Rating: 4})
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, products.AverageRating(nil))
	assert.Equal(t, 4.0, products.AverageRating([]int{5, 4, 3}))
	assert.Equal(t, 4.3, products.AverageRating([]int{5, 4, 4}))
	assert.Equal(t, 3.7, products.AverageRating([]int{5, 5, 1}))
	// 89/20 = 4.45 rounds half up
	twenty := []int{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 4, 4, 4, 4, 4, 4, 4, 4, 4, 3}
	assert.Equal(t, 4.5, products.AverageRating(twenty))
}

func TestCreateUpdateDelete(t *testing.T) {
	_, repo := seeded(t)
	ctx := context.Background()

	orig := int64(990000)
	in := products.Input{
		Name:          "Tai nghe Sony WH-1000XM5",
		Brand:         "Logitech",
		Category:      "Phụ kiện",
		Price:         890000,
		OriginalPrice: &orig,
		Options:       product.NewOrderedMap(product.Pair[[]string]{Key: "Màu sắc", Value: []string{"Đen"}}),
	}
	p, err := repo.Create(ctx, in)
	require.NoError(t, err)
	assert.Regexp(t, `^tai-nghe-sony-wh-1000xm5-\d+$`, p.ID)
	assert.Zero(t, p.Rating)
	assert.Zero(t, p.ReviewCount)
	assert.Empty(t, p.Reviews)
	assert.Equal(t, 10, p.DiscountPercent)
	assert.Equal(t, []string{}, p.Images)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.ID, items[0].ID)

	in.Price = 790000
	in.OriginalPrice = nil
	updated, err := repo.Update(ctx, p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, int64(790000), updated.Price)
	assert.Nil(t, updated.OriginalPrice)
	assert.Zero(t, updated.DiscountPercent)

	_, err = repo.Update(ctx, "nope", in)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.True(t, apperr.Is(repo.Delete(ctx, p.ID), apperr.NotFound))
}

func TestUpdateKeepsReviews(t *testing.T) {
	_, repo := seeded(t)
	ctx := context.Background()

	before, err := repo.Get(ctx, "iphone-15-pro")
	require.NoError(t, err)

	after, err := repo.Update(ctx, "iphone-15-pro", products.Input{
		Name: "iPhone 15 Pro", Brand: "Apple", Category: "Điện thoại", Price: 27990000,
	})
	require.NoError(t, err)
	assert.Equal(t, before.Rating, after.Rating)
	assert.Equal(t, before.ReviewCount, after.ReviewCount)
	assert.Len(t, after.Reviews, 2)
}

func TestCreateRejectsUnknownReferences(t *testing.T) {
	_, repo := seeded(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, products.Input{Name: "X", Brand: "Nokia", Category: "Laptop", Price: 1})
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = repo.Create(ctx, products.Input{Name: "X", Brand: "Dell", Category: "Máy ảnh", Price: 1})
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = repo.Create(ctx, products.Input{Name: "X", Brand: "Dell", Category: "Laptop", Price: -1})
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestCreateRacingBrandDeleteLeavesNoOrphan(t *testing.T) {
	d, repo := seeded(t)
	ctx := context.Background()
	brandRepo := brands.NewRepo(d)

	for i := 0; i < 10; i++ {
		b, err := brandRepo.Create(ctx, brands.Input{Name: "Sony"})
		require.NoError(t, err)

		var wg sync.WaitGroup
		var createErr, deleteErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, createErr = repo.Create(ctx, products.Input{Name: "Xperia 1 V", Brand: "Sony", Category: "Điện thoại", Price: 1})
		}()
		go func() {
			defer wg.Done()
			deleteErr = brandRepo.Delete(ctx, b.ID)
		}()
		wg.Wait()

		if createErr == nil {
			assert.True(t, apperr.Is(deleteErr, apperr.Conflict), "round %d: %v", i, deleteErr)
		} else {
			assert.True(t, apperr.Is(createErr, apperr.Validation), "round %d: %v", i, createErr)
			assert.NoError(t, deleteErr)
		}

		var orphans int
		require.NoError(t, d.QueryRow(ctx, `
			SELECT COUNT(*) FROM products p WHERE NOT EXISTS (SELECT 1 FROM brands b WHERE b.name = p.brand)
		`).Scan(&orphans))
		require.Zero(t, orphans)

		// reset for the next round
		_, err = d.Exec(ctx, `DELETE FROM products WHERE brand = 'Sony'`)
		require.NoError(t, err)
		_, err = d.Exec(ctx, `DELETE FROM brands WHERE name = 'Sony'`)
		require.NoError(t, err)
	}
}

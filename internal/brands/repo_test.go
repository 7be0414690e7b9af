package brands_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"akstore/internal/apperr"
	"akstore/internal/brands"
	"akstore/internal/db"
	"akstore/internal/db/dbtest"
	"akstore/internal/domain/brand"
	"akstore/internal/products"
	"akstore/internal/seed"
)

func setup(t *testing.T) (*db.DB, *brands.Repo) {
	t.Helper()
	d := dbtest.New(t)
	require.NoError(t, seed.Apply(context.Background(), d, d))
	return d, brands.NewRepo(d)
}

func TestList(t *testing.T) {
	_, repo := setup(t)

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "Apple", items[0].Name)
	assert.Equal(t, []string{"dien-thoai", "laptop"}, items[0].CategoryIDs)
}

func TestDeleteGuard(t *testing.T) {
	d, repo := setup(t)
	ctx := context.Background()

	assert.True(t, apperr.Is(repo.Delete(ctx, "dell"), apperr.Conflict))

	require.NoError(t, products.NewRepo(d).Delete(ctx, "dell-xps-15-2023"))
	require.NoError(t, repo.Delete(ctx, "dell"))
	_, err := repo.Get(ctx, "dell")
	assert.True(t, apperr.Is(err, apperr.NotFound))
	assert.True(t, apperr.Is(repo.Delete(ctx, "dell"), apperr.NotFound))
}

func TestCreateWithCategories(t *testing.T) {
	_, repo := setup(t)
	ctx := context.Background()

	b, err := repo.Create(ctx, brands.Input{Name: "Sony", CategoryIDs: []string{"phu-kien", "dien-thoai", "phu-kien"}})
	require.NoError(t, err)
	assert.Regexp(t, `^sony-\d+$`, b.ID)
	assert.Equal(t, []string{"dien-thoai", "phu-kien"}, b.CategoryIDs)

	_, err = repo.Create(ctx, brands.Input{Name: "Asus", CategoryIDs: []string{"may-anh"}})
	assert.True(t, apperr.Is(err, apperr.Validation))
	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 5)

	_, err = repo.Create(ctx, brands.Input{Name: "Sony"})
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestUpdateRenamesAndRelinks(t *testing.T) {
	d, repo := setup(t)
	ctx := context.Background()

	b, err := repo.Update(ctx, "logitech", brands.Input{Name: "Logi", CategoryIDs: []string{"laptop"}})
	require.NoError(t, err)
	assert.Equal(t, "Logi", b.Name)
	assert.Equal(t, []string{"laptop"}, b.CategoryIDs)

	p, err := products.NewRepo(d).Get(ctx, "logitech-mx-master-3s")
	require.NoError(t, err)
	assert.Equal(t, "Logi", p.Brand)

	_, err = repo.Update(ctx, "nope", brands.Input{Name: "X"})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestUpdateKeepsLinksWhenOmitted(t *testing.T) {
	_, repo := setup(t)
	ctx := context.Background()

	b, err := repo.Update(ctx, "apple", brands.Input{Name: "Apple", Logo: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dien-thoai", "laptop"}, b.CategoryIDs)

	b, err = repo.Update(ctx, "apple", brands.Input{Name: "Apple", CategoryIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, b.CategoryIDs)
}

func TestInputAcceptsBothSpellings(t *testing.T) {
	cases := map[string]struct {
		body string
		want []string
	}{
		"snake case": {`{"name":"Apple","category_ids":["laptop"]}`, []string{"laptop"}},
		"camel case": {`{"name":"Apple","categoryIds":["dien-thoai"]}`, []string{"dien-thoai"}},
		"both":       {`{"name":"Apple","category_ids":["laptop"],"categoryIds":["x"]}`, []string{"laptop"}},
		"empty":      {`{"name":"Apple","category_ids":[]}`, []string{}},
		"absent":     {`{"name":"Apple"}`, nil},
	}
	for name, tc := range cases {
		var in brands.Input
		require.NoError(t, json.Unmarshal([]byte(tc.body), &in), name)
		assert.Equal(t, "Apple", in.Name, name)
		assert.Equal(t, tc.want, in.CategoryIDs, name)
	}

	b, err := json.Marshal(brand.Brand{ID: "apple", CategoryIDs: []string{"laptop"}})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"category_ids":["laptop"]`)
}

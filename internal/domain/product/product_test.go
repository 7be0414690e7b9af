package product

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedMapKeepsKeyOrder(t *testing.T) {
	raw := `{"Màn hình":"6.1 inch","Chip":"A17 Pro","Camera":"48MP"}`

	var specs Specs
	require.NoError(t, json.Unmarshal([]byte(raw), &specs))
	assert.Equal(t, []string{"Màn hình", "Chip", "Camera"}, specs.Keys())

	out, err := json.Marshal(specs)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
	assert.Equal(t, raw, string(out))
}

func TestOrderedMapSetKeepsPosition(t *testing.T) {
	m := NewOrderedMap(Pair[string]{"a", "1"}, Pair[string]{"b", "2"})
	m.Set("a", "3")
	m.Set("c", "4")

	assert.Equal(t, []string{"a", "b", "c"}, m.Keys())
	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestOrderedMapEmptyAndNull(t *testing.T) {
	var empty Options
	out, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))

	var m Options
	require.NoError(t, json.Unmarshal([]byte("null"), &m))
	assert.Zero(t, m.Len())

	assert.Error(t, json.Unmarshal([]byte(`["x"]`), &m))
}

func TestDiscount(t *testing.T) {
	orig := int64(32990000)
	p := Product{Price: 28990000, OriginalPrice: &orig}
	assert.Equal(t, 12, p.Discount())

	p.OriginalPrice = nil
	assert.Zero(t, p.Discount())

	lower := int64(100)
	p.OriginalPrice = &lower
	assert.Zero(t, p.Discount())
}

func TestHasOption(t *testing.T) {
	p := Product{Options: NewOrderedMap(Pair[[]string]{"Màu sắc", []string{"Đen", "Trắng"}})}
	assert.True(t, p.HasOption("Màu sắc", "Đen"))
	assert.False(t, p.HasOption("Màu sắc", "Xanh"))
	assert.False(t, p.HasOption("Dung lượng", "256GB"))
}

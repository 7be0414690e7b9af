package cart

import (
	"maps"

	"akstore/internal/domain/product"
)

// Item is a product snapshot held by the client until checkout. Order line
// items keep a copy of it so order history survives product edits.
type Item struct {
	Product         product.Product   `json:"product"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selectedOptions"`
}

// Matches reports whether two items are the same cart line: same product and
// identical option choices. A nil and an empty option map are equal.
func (i Item) Matches(productID string, opts map[string]string) bool {
	return i.Product.ID == productID && maps.Equal(i.SelectedOptions, opts)
}

func (i Item) LineTotal() int64 {
	return i.Product.Price * int64(i.Quantity)
}

type Cart struct {
	Items []Item `json:"items"`
}

// Add merges into an existing line with the same product and options, or appends a new one.
func (c *Cart) Add(p product.Product, qty int, opts map[string]string) {
	if qty < 1 {
		qty = 1
	}
	for i := range c.Items {
		if c.Items[i].Matches(p.ID, opts) {
			c.Items[i].Quantity += qty
			return
		}
	}
	c.Items = append(c.Items, Item{Product: p, Quantity: qty, SelectedOptions: maps.Clone(opts)})
}

func (c *Cart) Remove(productID string, opts map[string]string) {
	out := c.Items[:0]
	for _, it := range c.Items {
		if !it.Matches(productID, opts) {
			out = append(out, it)
		}
	}
	c.Items = out
}

// SetQuantity clamps qty to at least 1; removing a line is Remove's job.
func (c *Cart) SetQuantity(productID string, opts map[string]string, qty int) {
	if qty < 1 {
		qty = 1
	}
	for i := range c.Items {
		if c.Items[i].Matches(productID, opts) {
			c.Items[i].Quantity = qty
			return
		}
	}
}

func (c *Cart) Clear() { c.Items = nil }

// Subtract takes the quantities in placed off the matching lines and drops
// lines that reach zero. Lines added after placed was captured stay.
func (c *Cart) Subtract(placed []Item) {
	out := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		for _, p := range placed {
			if it.Matches(p.Product.ID, p.SelectedOptions) {
				it.Quantity -= p.Quantity
			}
		}
		if it.Quantity > 0 {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		out = nil
	}
	c.Items = out
}

func (c Cart) Total() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.LineTotal()
	}
	return total
}

func (c Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

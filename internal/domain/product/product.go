package product

import (
	"math"

	"akstore/internal/util"
)

type Review struct {
	ID      int64          `json:"id"`
	Author  string         `json:"author"`
	Rating  int            `json:"rating"`
	Comment string         `json:"comment"`
	Date    util.Timestamp `json:"date"`
}

type Product struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Brand            string   `json:"brand"`
	Category         string   `json:"category"`
	Price            int64    `json:"price"`
	OriginalPrice    *int64   `json:"originalPrice,omitempty"`
	Images           []string `json:"images"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"shortDescription"`
	Specs            Specs    `json:"specs"`
	Options          Options  `json:"options"`
	Rating           float64  `json:"rating"`
	ReviewCount      int      `json:"reviewCount"`
	Reviews          []Review `json:"reviews"`
	IsFeatured       bool     `json:"isFeatured,omitempty"`
	IsBestSeller     bool     `json:"isBestSeller,omitempty"`
	DiscountPercent  int      `json:"discountPercent,omitempty"`
	CreatedAt        int64    `json:"createdAt,omitempty"`
}

// Discount returns the rounded percentage off the original price, or 0.
func (p Product) Discount() int {
	if p.OriginalPrice == nil || *p.OriginalPrice <= p.Price || *p.OriginalPrice <= 0 {
		return 0
	}
	orig := float64(*p.OriginalPrice)
	return int(math.Round((orig - float64(p.Price)) / orig * 100))
}

// HasOption reports whether value is one of the choices offered for option name.
func (p Product) HasOption(name, value string) bool {
	values, ok := p.Options.Get(name)
	if !ok {
		return false
	}
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

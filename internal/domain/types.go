package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Category identifies one of the fixed storefront categories.
type Category string

const (
	// CategoryMens is the primary category.
	CategoryMens Category = "mens"
	// CategoryWomens is the secondary category.
	CategoryWomens Category = "womens"
	// CategoryMembers is the loyalty-tier category.
	CategoryMembers Category = "members"
)

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategoryMens, CategoryWomens, CategoryMembers:
		return true
	}
	return false
}

// Product is a read-only catalog entry supplied by the catalog provider.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"`
	Image       string          `json:"image"`
	Images      []string        `json:"images"`
	Description string          `json:"description"`
	Sizes       []string        `json:"sizes"`
	Colors      []string        `json:"colors"`
	IsVideo     bool            `json:"isVideo,omitempty"`
}

// CartLine is a single purchasable variant held in the cart. At most one line
// exists per variant identifier; adding the same variant again merges
// quantities on the existing line.
type CartLine struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id"`
	Name      string          `json:"name"`
	Color     string          `json:"color"`
	Size      string          `json:"size"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

// Subtotal returns unit price multiplied by quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// VariantID derives the composite SKU key for a product/size/color choice.
// Size and color may be empty for single-variant products; the derivation is
// deterministic either way.
func VariantID(productID, size, color string) string {
	return fmt.Sprintf("%s-%s-%s", productID, size, color)
}

// TempCart is a time-bounded snapshot of cart contents keyed by a generated
// identifier, handed to the external checkout hub across the origin boundary.
type TempCart struct {
	ID        string     `json:"id"`
	Items     []CartLine `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

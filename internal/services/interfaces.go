package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/onsiteclub/storefront/internal/domain"
)

// CartService owns the cart line sequence and its durable persistence. Every
// mutation synchronously writes the full updated sequence to local storage;
// persistence failures are absorbed, logged, and surfaced through the
// MutationRecorder rather than returned to the caller.
type CartService interface {
	AddItem(ctx context.Context, line domain.CartLine) error
	RemoveItem(ctx context.Context, variantID string) error
	UpdateQuantity(ctx context.Context, variantID string, quantity int) error
	Clear(ctx context.Context) error
	Lines(ctx context.Context) []domain.CartLine
	Count(ctx context.Context) int
	Total(ctx context.Context) decimal.Decimal
}

// CartSnapshotter exposes the read-only view of cart lines checkout needs.
type CartSnapshotter interface {
	Lines(ctx context.Context) []domain.CartLine
}

// CheckoutHandoff is the result of preparing a redirect to the checkout hub.
type CheckoutHandoff struct {
	CartID      string
	RedirectURL string
	ExpiresAt   time.Time
}

// CheckoutService snapshots the cart into the temporary-cart store and builds
// the checkout hub redirect URL.
type CheckoutService interface {
	Handoff(ctx context.Context) (CheckoutHandoff, error)
}

// CatalogService reads products from the catalog provider.
type CatalogService interface {
	ListProducts(ctx context.Context, category domain.Category) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

// Selection is the local state of the product detail modal while open.
type Selection struct {
	Product    domain.Product
	Size       string
	Color      string
	ImageIndex int
}

// CheckoutCommit reports where the surface should navigate after a checkout
// commit from the detail modal. The hub redirect itself happens later, from
// the cart-review surface.
type CheckoutCommit struct {
	ReviewPath string
}

// SelectionService drives the product detail modal: closed, then open with a
// product and local size/color/image selections, then closed again after a
// commit or dismissal.
type SelectionService interface {
	Open(ctx context.Context, productID string) (Selection, error)
	Close()
	SelectSize(size string) (Selection, error)
	SelectColor(color string) (Selection, error)
	SelectImage(index int) (Selection, error)
	Current() (Selection, bool)
	AddToBag(ctx context.Context) error
	Checkout(ctx context.Context) (CheckoutCommit, error)
}

// MutationRecorder receives cart mutation and persistence-failure signals for
// the observability collaborator.
type MutationRecorder interface {
	RecordMutation(op string)
	RecordPersistenceFailure(store string)
}

type nopRecorder struct{}

func (nopRecorder) RecordMutation(string)           {}
func (nopRecorder) RecordPersistenceFailure(string) {}

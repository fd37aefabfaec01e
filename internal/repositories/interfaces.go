package repositories

import (
	"context"

	domain "github.com/onsiteclub/storefront/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsUnavailable() bool
}

// CartRepository persists the full cart line sequence under a fixed namespace
// key in durable local storage. Save replaces the stored sequence atomically;
// a Load immediately after Save observes the write.
type CartRepository interface {
	Load(ctx context.Context) ([]domain.CartLine, error)
	Save(ctx context.Context, lines []domain.CartLine) error
}

// CatalogRepository supplies read-only product data from the catalog provider.
type CatalogRepository interface {
	ListByCategory(ctx context.Context, category domain.Category) ([]domain.Product, error)
	FindByID(ctx context.Context, productID string) (domain.Product, error)
}

// TempCartRepository stores checkout handoff snapshots for at least their
// stated expiry window, keyed by cart id.
type TempCartRepository interface {
	Put(ctx context.Context, cart domain.TempCart) error
}

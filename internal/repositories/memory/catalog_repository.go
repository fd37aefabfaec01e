package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	domain "github.com/onsiteclub/storefront/internal/domain"
	"github.com/onsiteclub/storefront/internal/repositories"
)

// CatalogRepository serves a fixed product set from memory. The catalog
// provider is an external collaborator; this repository stands in for it with
// a read-only snapshot loaded at startup.
type CatalogRepository struct {
	byID  map[string]domain.Product
	order []string
}

// NewCatalogRepository indexes the supplied products. Products with empty or
// duplicate identifiers are rejected so lookups stay unambiguous.
func NewCatalogRepository(products []domain.Product) (*CatalogRepository, error) {
	repo := &CatalogRepository{
		byID:  make(map[string]domain.Product, len(products)),
		order: make([]string, 0, len(products)),
	}
	for _, product := range products {
		id := strings.TrimSpace(product.ID)
		if id == "" {
			return nil, errors.New("catalog repository: product id is required")
		}
		if _, exists := repo.byID[id]; exists {
			return nil, fmt.Errorf("catalog repository: duplicate product id %q", id)
		}
		if !product.Category.Valid() {
			return nil, fmt.Errorf("catalog repository: product %q has unknown category %q", id, product.Category)
		}
		repo.byID[id] = product
		repo.order = append(repo.order, id)
	}
	return repo, nil
}

// LoadProductsFile reads a JSON product array from path for seeding the catalog.
func LoadProductsFile(path string) ([]domain.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, repositories.NewUnavailable("catalog repository: read seed", err)
	}
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, repositories.NewUnavailable("catalog repository: decode seed", err)
	}
	return products, nil
}

// ListByCategory returns the products in the given category, catalog order preserved.
func (r *CatalogRepository) ListByCategory(ctx context.Context, category domain.Category) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matched := make([]domain.Product, 0, len(r.order))
	for _, id := range r.order {
		if product := r.byID[id]; product.Category == category {
			matched = append(matched, product)
		}
	}
	return matched, nil
}

// FindByID returns the product with the given identifier.
func (r *CatalogRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	product, ok := r.byID[strings.TrimSpace(productID)]
	if !ok {
		return domain.Product{}, repositories.NewNotFound("catalog repository: find", fmt.Errorf("product %q not found", productID))
	}
	return product, nil
}

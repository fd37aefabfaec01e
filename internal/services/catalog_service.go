package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	domain "github.com/onsiteclub/storefront/internal/domain"
	"github.com/onsiteclub/storefront/internal/repositories"
)

var (
	// ErrCatalogInvalidInput indicates the caller supplied invalid data to a catalog read.
	ErrCatalogInvalidInput = errors.New("catalog service: invalid input")
	// ErrCatalogProductNotFound indicates the requested product does not exist.
	ErrCatalogProductNotFound = errors.New("catalog service: product not found")
	// ErrCatalogUnavailable indicates the catalog provider cannot fulfil the request.
	ErrCatalogUnavailable = errors.New("catalog service: unavailable")
)

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Repository repositories.CatalogRepository
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

type catalogService struct {
	repo   repositories.CatalogRepository
	logger func(context.Context, string, map[string]any)
	sfg    singleflight.Group // collapses concurrent lookups for the same category
}

// NewCatalogService constructs the catalog service with the supplied dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Repository == nil {
		return nil, errors.New("catalog service: repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{
		repo:   deps.Repository,
		logger: logger,
	}, nil
}

// ListProducts returns the active product set for a category.
func (s *catalogService) ListProducts(ctx context.Context, category domain.Category) ([]domain.Product, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrCatalogInvalidInput, category)
	}

	v, err, _ := s.sfg.Do(string(category), func() (any, error) {
		products, err := s.repo.ListByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		return products, nil
	})
	if err != nil {
		s.logger(ctx, "catalog.list_failed", map[string]any{
			"category": string(category),
			"error":    err.Error(),
		})
		return nil, s.translateRepoError(err)
	}
	return v.([]domain.Product), nil
}

// GetProduct returns a single product by identifier.
func (s *catalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, s.translateRepoError(err)
	}
	return product, nil
}

func (s *catalogService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		if repoErr.IsNotFound() {
			return ErrCatalogProductNotFound
		}
		return ErrCatalogUnavailable
	}
	return ErrCatalogUnavailable
}

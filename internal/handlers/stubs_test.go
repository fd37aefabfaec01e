package handlers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/onsiteclub/storefront/internal/domain"
	"github.com/onsiteclub/storefront/internal/services"
)

type stubCartService struct {
	lines []domain.CartLine

	addErr    error
	updateErr error
	removeErr error
	clearErr  error

	added   []domain.CartLine
	updated []struct {
		variantID string
		quantity  int
	}
	removed []string
	cleared int
}

func (s *stubCartService) AddItem(_ context.Context, line domain.CartLine) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.added = append(s.added, line)
	s.lines = append(s.lines, line)
	return nil
}

func (s *stubCartService) RemoveItem(_ context.Context, variantID string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = append(s.removed, variantID)
	kept := s.lines[:0]
	for _, line := range s.lines {
		if line.VariantID != variantID {
			kept = append(kept, line)
		}
	}
	s.lines = kept
	return nil
}

func (s *stubCartService) UpdateQuantity(_ context.Context, variantID string, quantity int) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, struct {
		variantID string
		quantity  int
	}{variantID, quantity})
	return nil
}

func (s *stubCartService) Clear(context.Context) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.cleared++
	s.lines = nil
	return nil
}

func (s *stubCartService) Lines(context.Context) []domain.CartLine {
	return append([]domain.CartLine(nil), s.lines...)
}

func (s *stubCartService) Count(context.Context) int {
	return len(s.lines)
}

func (s *stubCartService) Total(context.Context) decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

type stubCatalogService struct {
	products map[domain.Category][]domain.Product
	byID     map[string]domain.Product
	listErr  error
	getErr   error

	listedCategories []domain.Category
}

func (s *stubCatalogService) ListProducts(_ context.Context, category domain.Category) ([]domain.Product, error) {
	s.listedCategories = append(s.listedCategories, category)
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.products[category], nil
}

func (s *stubCatalogService) GetProduct(_ context.Context, productID string) (domain.Product, error) {
	if s.getErr != nil {
		return domain.Product{}, s.getErr
	}
	product, ok := s.byID[productID]
	if !ok {
		return domain.Product{}, services.ErrCatalogProductNotFound
	}
	return product, nil
}

type stubCheckoutService struct {
	handoff services.CheckoutHandoff
	err     error
	calls   int
}

func (s *stubCheckoutService) Handoff(context.Context) (services.CheckoutHandoff, error) {
	s.calls++
	if s.err != nil {
		return services.CheckoutHandoff{}, s.err
	}
	return s.handoff, nil
}

type recordedHandoffs struct {
	count int
}

func (r *recordedHandoffs) RecordHandoff() { r.count++ }

func sampleProduct(id string, category domain.Category) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     "Sample " + id,
		Price:    decimal.RequireFromString("29.99"),
		Category: category,
		Image:    "/products/" + id + ".jpg",
		Images:   []string{"/products/" + id + ".jpg"},
		Sizes:    []string{"S", "M", "L"},
		Colors:   []string{"Black", "White"},
	}
}

func sampleLine(variantID string, quantity int) domain.CartLine {
	return domain.CartLine{
		ProductID: "tee-1",
		VariantID: variantID,
		Name:      "Sample Tee",
		Color:     "Black",
		Size:      "M",
		UnitPrice: decimal.RequireFromString("29.99"),
		Quantity:  quantity,
		Image:     "/products/tee-1.jpg",
	}
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

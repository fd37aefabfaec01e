package services

import (
	"context"
	"fmt"

	domain "github.com/onsiteclub/storefront/internal/domain"
	"github.com/onsiteclub/storefront/internal/repositories"
)

type stubCartRepository struct {
	loadFunc func(ctx context.Context) ([]domain.CartLine, error)
	saveFunc func(ctx context.Context, lines []domain.CartLine) error
	saved    [][]domain.CartLine
}

func (s *stubCartRepository) Load(ctx context.Context) ([]domain.CartLine, error) {
	if s.loadFunc != nil {
		return s.loadFunc(ctx)
	}
	return []domain.CartLine{}, nil
}

func (s *stubCartRepository) Save(ctx context.Context, lines []domain.CartLine) error {
	s.saved = append(s.saved, lines)
	if s.saveFunc != nil {
		return s.saveFunc(ctx, lines)
	}
	return nil
}

type stubTempCartRepository struct {
	putFunc func(ctx context.Context, cart domain.TempCart) error
	puts    []domain.TempCart
}

func (s *stubTempCartRepository) Put(ctx context.Context, cart domain.TempCart) error {
	s.puts = append(s.puts, cart)
	if s.putFunc != nil {
		return s.putFunc(ctx, cart)
	}
	return nil
}

type stubCatalogRepository struct {
	products []domain.Product
}

func (s *stubCatalogRepository) ListByCategory(ctx context.Context, category domain.Category) ([]domain.Product, error) {
	var matched []domain.Product
	for _, p := range s.products {
		if p.Category == category {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (s *stubCatalogRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	for _, p := range s.products {
		if p.ID == productID {
			return p, nil
		}
	}
	return domain.Product{}, repositories.NewNotFound("stub catalog", fmt.Errorf("product %q not found", productID))
}

type recordedMutations struct {
	mutations []string
	failures  []string
}

func (r *recordedMutations) RecordMutation(op string) {
	r.mutations = append(r.mutations, op)
}

func (r *recordedMutations) RecordPersistenceFailure(store string) {
	r.failures = append(r.failures, store)
}

type stubCartSnapshotter struct {
	lines []domain.CartLine
}

func (s *stubCartSnapshotter) Lines(ctx context.Context) []domain.CartLine {
	dup := make([]domain.CartLine, len(s.lines))
	copy(dup, s.lines)
	return dup
}

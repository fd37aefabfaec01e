package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/onsiteclub/storefront/internal/domain"
	"github.com/onsiteclub/storefront/internal/repositories"
)

var (
	errCartRepositoryRequired = errors.New("cart service: repository is required")
	errCartClockRequired      = errors.New("cart service: clock is required")
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// CartServiceDeps wires the persistence and observability dependencies for cart operations.
type CartServiceDeps struct {
	Repository repositories.CartRepository
	Clock      func() time.Time
	Logger     func(ctx context.Context, event string, fields map[string]any)
	Recorder   MutationRecorder
}

type cartService struct {
	repo     repositories.CartRepository
	now      func() time.Time
	logger   func(context.Context, string, map[string]any)
	recorder MutationRecorder

	mu    sync.Mutex
	lines []domain.CartLine
}

// NewCartService constructs a CartService and rehydrates it from durable
// storage. A failed rehydration is not fatal: the cart starts empty and the
// failure goes to the observability collaborator.
func NewCartService(ctx context.Context, deps CartServiceDeps) (CartService, error) {
	if deps.Repository == nil {
		return nil, errCartRepositoryRequired
	}
	if deps.Clock == nil {
		return nil, errCartClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	service := &cartService{
		repo:     deps.Repository,
		now:      func() time.Time { return deps.Clock().UTC() },
		logger:   logger,
		recorder: recorder,
	}

	lines, err := deps.Repository.Load(ctx)
	if err != nil {
		logger(ctx, "cart.rehydrate_failed", map[string]any{"error": err.Error()})
		recorder.RecordPersistenceFailure("cart")
		lines = []domain.CartLine{}
	}
	service.lines = lines

	return service, nil
}

// AddItem appends the line, or merges quantities into the existing line when
// one with the same variant identifier is already present. On a merge every
// other field keeps the existing line's value; the incoming price and name are
// not re-validated. Quantity is taken as given; non-positive input merges
// as-is.
func (s *cartService) AddItem(ctx context.Context, line domain.CartLine) error {
	productID := strings.TrimSpace(line.ProductID)
	if productID == "" {
		return fmt.Errorf("%w: product_id is required", ErrCartInvalidInput)
	}
	variantID := strings.TrimSpace(line.VariantID)
	if variantID == "" {
		return fmt.Errorf("%w: variant_id is required", ErrCartInvalidInput)
	}
	line.ProductID = productID
	line.VariantID = variantID

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(variantID); idx >= 0 {
		s.lines[idx].Quantity += line.Quantity
	} else {
		s.lines = append(s.lines, line)
	}

	s.recorder.RecordMutation("add")
	s.persistLocked(ctx, "add")
	return nil
}

// RemoveItem deletes the line with the given variant identifier. A missing
// variant is a silent no-op, not an error.
func (s *cartService) RemoveItem(ctx context.Context, variantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, variantID)
}

// UpdateQuantity sets the line's quantity, replacing the previous value. A
// quantity of zero or less removes the line. A missing variant is a no-op.
func (s *cartService) UpdateQuantity(ctx context.Context, variantID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.removeLocked(ctx, variantID)
	}

	idx := s.indexOf(strings.TrimSpace(variantID))
	if idx < 0 {
		return nil
	}
	s.lines[idx].Quantity = quantity

	s.recorder.RecordMutation("update")
	s.persistLocked(ctx, "update")
	return nil
}

// Clear empties the line sequence unconditionally.
func (s *cartService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = []domain.CartLine{}

	s.recorder.RecordMutation("clear")
	s.persistLocked(ctx, "clear")
	return nil
}

// Lines returns a copy of the current line sequence in first-add order.
func (s *cartService) Lines(ctx context.Context) []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

// Count returns the number of distinct lines in the cart.
func (s *cartService) Count(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Total returns the sum of unit price times quantity over all lines. An empty
// cart totals zero. Pure read, no side effect.
func (s *cartService) Total(ctx context.Context) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (s *cartService) removeLocked(ctx context.Context, variantID string) error {
	idx := s.indexOf(strings.TrimSpace(variantID))
	if idx < 0 {
		return nil
	}
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)

	s.recorder.RecordMutation("remove")
	s.persistLocked(ctx, "remove")
	return nil
}

func (s *cartService) indexOf(variantID string) int {
	if variantID == "" {
		return -1
	}
	for i, line := range s.lines {
		if line.VariantID == variantID {
			return i
		}
	}
	return -1
}

// persistLocked writes the full updated sequence to durable storage. The
// in-memory state stays authoritative for the session when the write fails;
// the failure is logged and counted, never returned.
func (s *cartService) persistLocked(ctx context.Context, op string) {
	if err := s.repo.Save(ctx, cloneLines(s.lines)); err != nil {
		s.logger(ctx, "cart.persist_failed", map[string]any{
			"op":    op,
			"error": err.Error(),
		})
		s.recorder.RecordPersistenceFailure("cart")
	}
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	dup := make([]domain.CartLine, len(lines))
	copy(dup, lines)
	return dup
}

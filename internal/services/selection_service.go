package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domain "github.com/onsiteclub/storefront/internal/domain"
)

// cartReviewPath is where the surface navigates after a checkout commit; the
// hub redirect itself is produced there via the checkout service.
const cartReviewPath = "/cart"

var (
	// ErrSelectionClosed indicates no product is currently open in the detail flow.
	ErrSelectionClosed = errors.New("selection: no product open")
	// ErrSelectionInvalidChoice indicates a size, color, or image outside the open product's options.
	ErrSelectionInvalidChoice = errors.New("selection: invalid choice")
)

// SelectionServiceDeps wires the catalog and cart collaborators for the detail flow.
type SelectionServiceDeps struct {
	Catalog CatalogService
	Cart    CartService
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

type selectionService struct {
	catalog CatalogService
	cart    CartService
	logger  func(context.Context, string, map[string]any)

	mu         sync.Mutex
	open       bool
	product    domain.Product
	size       string
	color      string
	imageIndex int
}

// NewSelectionService constructs the detail-flow state machine.
func NewSelectionService(deps SelectionServiceDeps) (SelectionService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("selection service: catalog is required")
	}
	if deps.Cart == nil {
		return nil, errors.New("selection service: cart is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &selectionService{
		catalog: deps.Catalog,
		cart:    deps.Cart,
		logger:  logger,
	}, nil
}

// Open loads the product and resets the local selections: first size, first
// color, image index zero. Products without sizes or colors open with an
// empty-string selection rather than failing.
func (s *selectionService) Open(ctx context.Context, productID string) (Selection, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return Selection{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.open = true
	s.product = product
	s.size = firstOrEmpty(product.Sizes)
	s.color = firstOrEmpty(product.Colors)
	s.imageIndex = 0
	return s.currentLocked(), nil
}

// Close dismisses the modal without committing anything.
func (s *selectionService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.product = domain.Product{}
	s.size = ""
	s.color = ""
	s.imageIndex = 0
}

// SelectSize changes the selected size; it must be one of the open product's sizes.
func (s *selectionService) SelectSize(size string) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return Selection{}, ErrSelectionClosed
	}
	if !contains(s.product.Sizes, size) {
		return Selection{}, fmt.Errorf("%w: size %q", ErrSelectionInvalidChoice, size)
	}
	s.size = size
	return s.currentLocked(), nil
}

// SelectColor changes the selected color; it must be one of the open product's colors.
func (s *selectionService) SelectColor(color string) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return Selection{}, ErrSelectionClosed
	}
	if !contains(s.product.Colors, color) {
		return Selection{}, fmt.Errorf("%w: color %q", ErrSelectionInvalidChoice, color)
	}
	s.color = color
	return s.currentLocked(), nil
}

// SelectImage changes the gallery index within the open product's image range.
func (s *selectionService) SelectImage(index int) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return Selection{}, ErrSelectionClosed
	}
	max := len(s.product.Images)
	if max == 0 {
		max = 1
	}
	if index < 0 || index >= max {
		return Selection{}, fmt.Errorf("%w: image index %d", ErrSelectionInvalidChoice, index)
	}
	s.imageIndex = index
	return s.currentLocked(), nil
}

// Current reports the open selection, if any.
func (s *selectionService) Current() (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return Selection{}, false
	}
	return s.currentLocked(), true
}

// AddToBag commits the current selection as a quantity-one cart line and
// closes the modal. The modal stays open when the cart rejects the line.
func (s *selectionService) AddToBag(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(ctx)
}

// Checkout commits like AddToBag and reports the cart-review destination.
func (s *selectionService) Checkout(ctx context.Context) (CheckoutCommit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commitLocked(ctx); err != nil {
		return CheckoutCommit{}, err
	}
	return CheckoutCommit{ReviewPath: cartReviewPath}, nil
}

func (s *selectionService) commitLocked(ctx context.Context) error {
	if !s.open {
		return ErrSelectionClosed
	}

	line := domain.CartLine{
		ProductID: s.product.ID,
		VariantID: domain.VariantID(s.product.ID, s.size, s.color),
		Name:      s.product.Name,
		Color:     s.color,
		Size:      s.size,
		UnitPrice: s.product.Price,
		Quantity:  1,
		Image:     s.product.Image,
	}
	if err := s.cart.AddItem(ctx, line); err != nil {
		s.logger(ctx, "selection.commit_failed", map[string]any{
			"productId": s.product.ID,
			"error":     err.Error(),
		})
		return err
	}

	s.open = false
	s.product = domain.Product{}
	s.size = ""
	s.color = ""
	s.imageIndex = 0
	return nil
}

func (s *selectionService) currentLocked() Selection {
	return Selection{
		Product:    s.product,
		Size:       s.size,
		Color:      s.color,
		ImageIndex: s.imageIndex,
	}
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	domain "github.com/onsiteclub/storefront/internal/domain"
)

// TempCartRepository keeps checkout handoff snapshots in memory. It honours
// the same contract as the external temporary-cart service: records are
// retained until their expiry passes.
type TempCartRepository struct {
	mu    sync.Mutex
	carts map[string]domain.TempCart
	now   func() time.Time
}

// NewTempCartRepository constructs an empty in-memory temp-cart store.
func NewTempCartRepository() *TempCartRepository {
	return &TempCartRepository{
		carts: make(map[string]domain.TempCart),
		now:   time.Now,
	}
}

// Put stores the snapshot keyed by cart id, dropping any expired records it
// finds on the way.
func (r *TempCartRepository) Put(ctx context.Context, cart domain.TempCart) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := strings.TrimSpace(cart.ID)
	if id == "" {
		return errors.New("temp cart repository: cart id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	for key, existing := range r.carts {
		if !existing.ExpiresAt.IsZero() && existing.ExpiresAt.Before(now) {
			delete(r.carts, key)
		}
	}
	r.carts[id] = cart
	return nil
}

// Get returns the stored snapshot when present and unexpired.
func (r *TempCartRepository) Get(id string) (domain.TempCart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[strings.TrimSpace(id)]
	if !ok {
		return domain.TempCart{}, false
	}
	if !cart.ExpiresAt.IsZero() && cart.ExpiresAt.Before(r.now().UTC()) {
		delete(r.carts, cart.ID)
		return domain.TempCart{}, false
	}
	return cart, true
}

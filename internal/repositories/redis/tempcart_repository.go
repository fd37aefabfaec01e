package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	domain "github.com/onsiteclub/storefront/internal/domain"
	"github.com/onsiteclub/storefront/internal/repositories"
)

const tempCartKeyPrefix = "temp_carts:"

// TempCartRepository stores checkout handoff snapshots in Redis with a TTL
// matching the snapshot's expiry window, so the backing store enforces the
// retention contract on its own.
type TempCartRepository struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewTempCartRepository constructs a Redis-backed temp-cart store.
func NewTempCartRepository(client redis.UniversalClient) (*TempCartRepository, error) {
	if client == nil {
		return nil, errors.New("temp cart repository: redis client is required")
	}
	return &TempCartRepository{client: client, now: time.Now}, nil
}

// Put serialises the snapshot under temp_carts:<id> with an expiry derived
// from the snapshot itself.
func (r *TempCartRepository) Put(ctx context.Context, cart domain.TempCart) error {
	id := strings.TrimSpace(cart.ID)
	if id == "" {
		return errors.New("temp cart repository: cart id is required")
	}

	raw, err := json.Marshal(cart)
	if err != nil {
		return repositories.NewUnavailable("temp cart repository: encode", err)
	}

	ttl := cart.ExpiresAt.Sub(r.now().UTC())
	if ttl <= 0 {
		// Expiry already passed; keep the record just long enough for the
		// checkout hub to reject it explicitly.
		ttl = time.Minute
	}

	if err := r.client.Set(ctx, tempCartKeyPrefix+id, raw, ttl).Err(); err != nil {
		return repositories.NewUnavailable("temp cart repository: set", err)
	}
	return nil
}

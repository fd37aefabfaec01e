package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	domain "github.com/onsiteclub/storefront/internal/domain"
	"github.com/onsiteclub/storefront/internal/repositories"
)

// cartNamespace is the fixed key the serialized cart state lives under. It
// must stay stable across releases so carts survive upgrades.
const cartNamespace = "onsite-cart"

// CartRepository persists the cart line sequence as a JSON document on local
// disk. Writes go through an atomic rename so a reader never observes a
// partially written cart.
type CartRepository struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

type cartDocument struct {
	Namespace string            `json:"namespace"`
	Items     []domain.CartLine `json:"items"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewCartRepository constructs a file-backed cart repository rooted at dir.
func NewCartRepository(dir string) (*CartRepository, error) {
	trimmed := filepath.Clean(dir)
	if trimmed == "" || trimmed == "." && dir == "" {
		return nil, errors.New("cart repository: storage directory is required")
	}
	if err := os.MkdirAll(trimmed, 0o755); err != nil {
		return nil, repositories.NewUnavailable("cart repository: create storage directory", err)
	}
	return &CartRepository{
		path: filepath.Join(trimmed, cartNamespace+".json"),
		now:  time.Now,
	}, nil
}

// Load reads the persisted line sequence. A missing document is not an error:
// the cart is created empty on first use of the storefront on a device.
func (r *CartRepository) Load(ctx context.Context) ([]domain.CartLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.CartLine{}, nil
		}
		return nil, repositories.NewUnavailable("cart repository: read", err)
	}

	var doc cartDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, repositories.NewUnavailable("cart repository: decode", err)
	}
	if doc.Items == nil {
		doc.Items = []domain.CartLine{}
	}
	return doc.Items, nil
}

// Save replaces the stored line sequence with the supplied one.
func (r *CartRepository) Save(ctx context.Context, lines []domain.CartLine) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if lines == nil {
		lines = []domain.CartLine{}
	}
	doc := cartDocument{
		Namespace: cartNamespace,
		Items:     lines,
		UpdatedAt: r.now().UTC(),
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return repositories.NewUnavailable("cart repository: encode", err)
	}
	if err := atomic.WriteFile(r.path, bytes.NewReader(raw)); err != nil {
		return repositories.NewUnavailable("cart repository: write", err)
	}
	return nil
}

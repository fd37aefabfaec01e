package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/onsiteclub/storefront/internal/domain"
	"github.com/onsiteclub/storefront/internal/repositories"
)

const (
	// defaultTempCartTTL is the retention window the temporary-cart store
	// promises for a handoff snapshot.
	defaultTempCartTTL = 30 * time.Minute

	defaultPersistTimeout = 3 * time.Second
)

// ErrCheckoutUnavailable indicates checkout dependencies are missing.
var ErrCheckoutUnavailable = errors.New("checkout: unavailable")

// CheckoutServiceDeps wires the dependencies required by the checkout service.
type CheckoutServiceDeps struct {
	Cart      CartSnapshotter
	TempCarts repositories.TempCartRepository
	// HubBaseURL is the checkout hub's base URL, e.g. https://auth.onsiteclub.ca.
	HubBaseURL string
	// ReturnOrigin is this storefront's own origin, carried as return_url.
	ReturnOrigin string
	Clock        func() time.Time
	Logger       func(ctx context.Context, event string, fields map[string]any)
	IDGenerator  func() string
	Recorder     MutationRecorder
	// PersistTimeout bounds the temporary-cart write so redirect generation
	// never blocks indefinitely on the external store.
	PersistTimeout time.Duration
	// TempCartTTL is the retention window stamped on each snapshot.
	TempCartTTL time.Duration
}

type checkoutService struct {
	cart           CartSnapshotter
	tempCarts      repositories.TempCartRepository
	hubBaseURL     string
	returnOrigin   string
	now            func() time.Time
	logger         func(context.Context, string, map[string]any)
	newID          func() string
	recorder       MutationRecorder
	persistTimeout time.Duration
	ttl            time.Duration
}

// NewCheckoutService constructs a CheckoutService validating required dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Cart == nil {
		return nil, errors.New("checkout service: cart snapshot source is required")
	}
	if deps.TempCarts == nil {
		return nil, errors.New("checkout service: temp cart repository is required")
	}

	hub := strings.TrimRight(strings.TrimSpace(deps.HubBaseURL), "/")
	if hub == "" {
		return nil, errors.New("checkout service: hub base url is required")
	}
	if parsed, err := url.Parse(hub); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.New("checkout service: hub base url must be absolute")
	}

	origin := strings.TrimSpace(deps.ReturnOrigin)
	if origin == "" {
		return nil, errors.New("checkout service: return origin is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	timeout := deps.PersistTimeout
	if timeout <= 0 {
		timeout = defaultPersistTimeout
	}
	ttl := deps.TempCartTTL
	if ttl <= 0 {
		ttl = defaultTempCartTTL
	}

	return &checkoutService{
		cart:           deps.Cart,
		tempCarts:      deps.TempCarts,
		hubBaseURL:     hub,
		returnOrigin:   origin,
		now:            func() time.Time { return clock().UTC() },
		logger:         logger,
		newID:          idGen,
		recorder:       recorder,
		persistTimeout: timeout,
		ttl:            ttl,
	}, nil
}

// Handoff generates a fresh cart identifier, persists the current line
// snapshot to the temporary-cart store on a best-effort basis, and returns the
// redirect URL for the checkout hub. It is safe on an empty cart and never
// mutates cart state. A temp-cart write failure degrades gracefully: the
// redirect is still produced so navigation is not blocked.
func (s *checkoutService) Handoff(ctx context.Context) (CheckoutHandoff, error) {
	if s == nil || s.cart == nil || s.tempCarts == nil {
		return CheckoutHandoff{}, ErrCheckoutUnavailable
	}

	cartID := s.newID()
	now := s.now()
	snapshot := domain.TempCart{
		ID:        cartID,
		Items:     s.cart.Lines(ctx),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	persistCtx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()
	if err := s.tempCarts.Put(persistCtx, snapshot); err != nil {
		s.logger(ctx, "checkout.temp_cart_persist_failed", map[string]any{
			"cartId": cartID,
			"error":  err.Error(),
		})
		s.recorder.RecordPersistenceFailure("temp_cart")
	}

	query := url.Values{
		"cart_id":    {cartID},
		"return_url": {s.returnOrigin},
	}
	return CheckoutHandoff{
		CartID:      cartID,
		RedirectURL: s.hubBaseURL + "/checkout?" + query.Encode(),
		ExpiresAt:   snapshot.ExpiresAt,
	}, nil
}

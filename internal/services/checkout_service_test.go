package services

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/onsiteclub/storefront/internal/domain"
	"github.com/onsiteclub/storefront/internal/repositories"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func newTestCheckoutService(t *testing.T, cart CartSnapshotter, temp repositories.TempCartRepository, opts func(*CheckoutServiceDeps)) CheckoutService {
	t.Helper()
	deps := CheckoutServiceDeps{
		Cart:         cart,
		TempCarts:    temp,
		HubBaseURL:   "https://auth.onsiteclub.ca",
		ReturnOrigin: "https://shop.onsiteclub.ca",
		Clock:        func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) },
	}
	if opts != nil {
		opts(&deps)
	}
	service, err := NewCheckoutService(deps)
	if err != nil {
		t.Fatalf("unexpected error constructing checkout service: %v", err)
	}
	return service
}

func TestCheckoutHandoffRedirectURL(t *testing.T) {
	cart := &stubCartSnapshotter{lines: []domain.CartLine{
		{ProductID: "p1", VariantID: "p1-M-Black", UnitPrice: decimal.RequireFromString("29.99"), Quantity: 1},
		{ProductID: "p2", VariantID: "p2-L-Navy", UnitPrice: decimal.RequireFromString("59.99"), Quantity: 2},
	}}
	temp := &stubTempCartRepository{}
	service := newTestCheckoutService(t, cart, temp, nil)

	result, err := service.Handoff(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !uuidPattern.MatchString(result.CartID) {
		t.Fatalf("expected UUID cart id, got %q", result.CartID)
	}
	if !strings.HasPrefix(result.RedirectURL, "https://auth.onsiteclub.ca/checkout?") {
		t.Fatalf("expected hub checkout endpoint, got %q", result.RedirectURL)
	}

	parsed, err := url.Parse(result.RedirectURL)
	if err != nil {
		t.Fatalf("redirect url does not parse: %v", err)
	}
	query := parsed.Query()
	if got := query.Get("cart_id"); got != result.CartID {
		t.Fatalf("expected cart_id %q in query, got %q", result.CartID, got)
	}
	if got := query.Get("return_url"); got != "https://shop.onsiteclub.ca" {
		t.Fatalf("expected return_url to equal the storefront origin, got %q", got)
	}
	if !strings.Contains(result.RedirectURL, "return_url=https%3A%2F%2Fshop.onsiteclub.ca") {
		t.Fatalf("expected url-encoded return_url, got %q", result.RedirectURL)
	}
}

func TestCheckoutHandoffPersistsSnapshotWithExpiry(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	cart := &stubCartSnapshotter{lines: []domain.CartLine{
		{ProductID: "p1", VariantID: "p1-M-Black", UnitPrice: decimal.RequireFromString("29.99"), Quantity: 1},
	}}
	temp := &stubTempCartRepository{}
	service := newTestCheckoutService(t, cart, temp, nil)

	result, err := service.Handoff(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(temp.puts) != 1 {
		t.Fatalf("expected one temp cart write, got %d", len(temp.puts))
	}
	snapshot := temp.puts[0]
	if snapshot.ID != result.CartID {
		t.Fatalf("expected snapshot keyed by cart id %q, got %q", result.CartID, snapshot.ID)
	}
	if len(snapshot.Items) != 1 {
		t.Fatalf("expected snapshot of the current lines, got %d items", len(snapshot.Items))
	}
	if !snapshot.CreatedAt.Equal(now) {
		t.Fatalf("expected created_at %s, got %s", now, snapshot.CreatedAt)
	}
	if want := now.Add(30 * time.Minute); !snapshot.ExpiresAt.Equal(want) {
		t.Fatalf("expected 30 minute expiry window (%s), got %s", want, snapshot.ExpiresAt)
	}
	if !result.ExpiresAt.Equal(snapshot.ExpiresAt) {
		t.Fatalf("expected handoff expiry to match snapshot expiry")
	}
}

func TestCheckoutHandoffHonoursConfiguredTTL(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	temp := &stubTempCartRepository{}
	service := newTestCheckoutService(t, &stubCartSnapshotter{}, temp, func(deps *CheckoutServiceDeps) {
		deps.TempCartTTL = 10 * time.Minute
	})

	result, err := service.Handoff(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := now.Add(10 * time.Minute)
	if !result.ExpiresAt.Equal(want) {
		t.Fatalf("expected configured expiry %s, got %s", want, result.ExpiresAt)
	}
	if len(temp.puts) != 1 || !temp.puts[0].ExpiresAt.Equal(want) {
		t.Fatalf("expected snapshot expiry to carry the configured window")
	}
}

func TestCheckoutHandoffSafeOnEmptyCart(t *testing.T) {
	service := newTestCheckoutService(t, &stubCartSnapshotter{}, &stubTempCartRepository{}, nil)

	result, err := service.Handoff(context.Background())
	if err != nil {
		t.Fatalf("expected empty-cart handoff to succeed, got %v", err)
	}
	if !strings.Contains(result.RedirectURL, "cart_id=") {
		t.Fatalf("expected valid checkout url, got %q", result.RedirectURL)
	}
}

func TestCheckoutHandoffSurvivesPersistFailure(t *testing.T) {
	temp := &stubTempCartRepository{
		putFunc: func(ctx context.Context, cart domain.TempCart) error {
			return repositories.NewUnavailable("stub", errors.New("store down"))
		},
	}
	recorder := &recordedMutations{}
	service := newTestCheckoutService(t, &stubCartSnapshotter{}, temp, func(deps *CheckoutServiceDeps) {
		deps.Recorder = recorder
	})

	result, err := service.Handoff(context.Background())
	if err != nil {
		t.Fatalf("expected persist failure to degrade gracefully, got %v", err)
	}
	if result.RedirectURL == "" {
		t.Fatalf("expected redirect url despite persist failure")
	}
	if len(recorder.failures) != 1 || recorder.failures[0] != "temp_cart" {
		t.Fatalf("expected recorded temp_cart failure, got %v", recorder.failures)
	}
}

func TestCheckoutHandoffBoundsPersistLatency(t *testing.T) {
	temp := &stubTempCartRepository{
		putFunc: func(ctx context.Context, cart domain.TempCart) error {
			// A hung external store must be cut off by the deadline, not
			// waited on indefinitely.
			<-ctx.Done()
			return ctx.Err()
		},
	}
	service := newTestCheckoutService(t, &stubCartSnapshotter{}, temp, func(deps *CheckoutServiceDeps) {
		deps.PersistTimeout = 10 * time.Millisecond
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := service.Handoff(context.Background()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("handoff blocked on the temp cart store")
	}
}

func TestCheckoutHandoffGeneratesFreshIDs(t *testing.T) {
	service := newTestCheckoutService(t, &stubCartSnapshotter{}, &stubTempCartRepository{}, nil)

	first, err := service.Handoff(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := service.Handoff(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.CartID == second.CartID {
		t.Fatalf("expected globally unique cart ids, got %q twice", first.CartID)
	}
}

func TestNewCheckoutServiceValidatesHubURL(t *testing.T) {
	_, err := NewCheckoutService(CheckoutServiceDeps{
		Cart:         &stubCartSnapshotter{},
		TempCarts:    &stubTempCartRepository{},
		HubBaseURL:   "not a url",
		ReturnOrigin: "https://shop.onsiteclub.ca",
	})
	if err == nil {
		t.Fatalf("expected invalid hub url to be rejected")
	}
}

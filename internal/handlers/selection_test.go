package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/onsiteclub/storefront/internal/domain"
	"github.com/onsiteclub/storefront/internal/services"
)

func newSelectionRouter(t *testing.T, catalog services.CatalogService, carts services.CartService) chi.Router {
	t.Helper()
	selections, err := services.NewSelectionService(services.SelectionServiceDeps{
		Catalog: catalog,
		Cart:    carts,
	})
	if err != nil {
		t.Fatalf("unexpected error constructing selection service: %v", err)
	}
	r := chi.NewRouter()
	NewSelectionHandlers(selections).Routes(r)
	return r
}

func selectionCatalog() *stubCatalogService {
	product := sampleProduct("tee-1", domain.CategoryMens)
	return &stubCatalogService{byID: map[string]domain.Product{product.ID: product}}
}

func doSelectionRequest(t *testing.T, router chi.Router, method, path, payload string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if payload == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(payload))
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestSelectionHandlersOpenDefaults(t *testing.T) {
	router := newSelectionRouter(t, selectionCatalog(), &stubCartService{})

	rr := doSelectionRequest(t, router, http.MethodPost, "/", `{"product_id":"tee-1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Product    map[string]any `json:"product"`
		Size       string         `json:"size"`
		Color      string         `json:"color"`
		ImageIndex int            `json:"image_index"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Product["id"] != "tee-1" {
		t.Fatalf("expected product tee-1, got %v", body.Product["id"])
	}
	if body.Size != "S" || body.Color != "Black" || body.ImageIndex != 0 {
		t.Fatalf("expected first-option defaults, got size=%q color=%q image=%d", body.Size, body.Color, body.ImageIndex)
	}
}

func TestSelectionHandlersOpenUnknownProduct(t *testing.T) {
	router := newSelectionRouter(t, selectionCatalog(), &stubCartService{})

	rr := doSelectionRequest(t, router, http.MethodPost, "/", `{"product_id":"nope"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "product_not_found" {
		t.Fatalf("unexpected error code %v", body["error"])
	}
}

func TestSelectionHandlersOpenRequiresProductID(t *testing.T) {
	router := newSelectionRouter(t, selectionCatalog(), &stubCartService{})

	rr := doSelectionRequest(t, router, http.MethodPost, "/", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestSelectionHandlersSelectChoices(t *testing.T) {
	router := newSelectionRouter(t, selectionCatalog(), &stubCartService{})

	if rr := doSelectionRequest(t, router, http.MethodPost, "/", `{"product_id":"tee-1"}`); rr.Code != http.StatusOK {
		t.Fatalf("open failed with status %d", rr.Code)
	}

	rr := doSelectionRequest(t, router, http.MethodPatch, "/size", `{"size":"L"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 for size change, got %d: %s", rr.Code, rr.Body.String())
	}
	rr = doSelectionRequest(t, router, http.MethodPatch, "/color", `{"color":"White"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 for color change, got %d", rr.Code)
	}

	var body struct {
		Size  string `json:"size"`
		Color string `json:"color"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Size != "L" || body.Color != "White" {
		t.Fatalf("expected size L color White, got size=%q color=%q", body.Size, body.Color)
	}

	rr = doSelectionRequest(t, router, http.MethodPatch, "/size", `{"size":"XXL"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for size outside the product's options, got %d", rr.Code)
	}
	rr = doSelectionRequest(t, router, http.MethodPatch, "/image", `{"index":5}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for image index out of range, got %d", rr.Code)
	}
	rr = doSelectionRequest(t, router, http.MethodPatch, "/size", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for missing size, got %d", rr.Code)
	}
}

func TestSelectionHandlersSelectBeforeOpen(t *testing.T) {
	router := newSelectionRouter(t, selectionCatalog(), &stubCartService{})

	rr := doSelectionRequest(t, router, http.MethodPatch, "/size", `{"size":"L"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409 before a product is open, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "selection_closed" {
		t.Fatalf("unexpected error code %v", body["error"])
	}
}

func TestSelectionHandlersAddToBag(t *testing.T) {
	carts := &stubCartService{}
	router := newSelectionRouter(t, selectionCatalog(), carts)

	doSelectionRequest(t, router, http.MethodPost, "/", `{"product_id":"tee-1"}`)
	doSelectionRequest(t, router, http.MethodPatch, "/size", `{"size":"L"}`)

	rr := doSelectionRequest(t, router, http.MethodPost, "/bag", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(carts.added) != 1 {
		t.Fatalf("expected 1 cart line, got %d", len(carts.added))
	}
	line := carts.added[0]
	if line.VariantID != "tee-1-L-Black" {
		t.Fatalf("expected variant tee-1-L-Black, got %q", line.VariantID)
	}
	if line.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", line.Quantity)
	}

	// The commit closes the modal.
	rr = doSelectionRequest(t, router, http.MethodGet, "/", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 after commit, got %d", rr.Code)
	}
}

func TestSelectionHandlersCheckout(t *testing.T) {
	carts := &stubCartService{}
	router := newSelectionRouter(t, selectionCatalog(), carts)

	doSelectionRequest(t, router, http.MethodPost, "/", `{"product_id":"tee-1"}`)

	rr := doSelectionRequest(t, router, http.MethodPost, "/checkout", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body checkoutCommitResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.ReviewPath != "/cart" {
		t.Fatalf("expected review path /cart, got %q", body.ReviewPath)
	}
	if len(carts.added) != 1 {
		t.Fatalf("expected the checkout commit to add a cart line, got %d", len(carts.added))
	}
}

func TestSelectionHandlersClose(t *testing.T) {
	router := newSelectionRouter(t, selectionCatalog(), &stubCartService{})

	doSelectionRequest(t, router, http.MethodPost, "/", `{"product_id":"tee-1"}`)
	rr := doSelectionRequest(t, router, http.MethodDelete, "/", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	rr = doSelectionRequest(t, router, http.MethodGet, "/", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 after close, got %d", rr.Code)
	}
}

func TestSelectionHandlersNilService(t *testing.T) {
	r := chi.NewRouter()
	NewSelectionHandlers(nil).Routes(r)

	rr := doSelectionRequest(t, r, http.MethodGet, "/", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	domain "github.com/onsiteclub/storefront/internal/domain"
	"github.com/onsiteclub/storefront/internal/platform/httpx"
	"github.com/onsiteclub/storefront/internal/services"
)

// CartHandlers exposes the shopping bag endpoints.
type CartHandlers struct {
	carts services.CartService
}

const maxCartBodySize = 16 * 1024

// NewCartHandlers constructs handlers backed by the cart service.
func NewCartHandlers(carts services.CartService) *CartHandlers {
	return &CartHandlers{carts: carts}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Patch("/items/{variantID}", h.updateItem)
	r.Delete("/items/{variantID}", h.removeItem)
}

type cartResponse struct {
	Items []domain.CartLine `json:"items"`
	Count int               `json:"count"`
	Total decimal.Decimal   `json:"total"`
}

type addItemRequest struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id"`
	Name      string          `json:"name"`
	Color     string          `json:"color"`
	Size      string          `json:"size"`
	Price     decimal.Decimal `json:"price"`
	Quantity  *int            `json:"quantity"`
	Image     string          `json:"image"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		writeCartUnavailable(ctx, w)
		return
	}
	writeJSONResponse(w, http.StatusOK, h.buildCartResponse(ctx))
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		writeCartUnavailable(ctx, w)
		return
	}
	if err := h.carts.Clear(ctx); err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, h.buildCartResponse(ctx))
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req addItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	// Only an omitted quantity defaults; an explicit value, zero included,
	// reaches the cart as sent.
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	line := domain.CartLine{
		ProductID: strings.TrimSpace(req.ProductID),
		VariantID: strings.TrimSpace(req.VariantID),
		Name:      req.Name,
		Color:     req.Color,
		Size:      req.Size,
		UnitPrice: req.Price,
		Quantity:  quantity,
		Image:     req.Image,
	}
	if line.VariantID == "" && line.ProductID != "" {
		line.VariantID = domain.VariantID(line.ProductID, line.Size, line.Color)
	}

	if err := h.carts.AddItem(ctx, line); err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, h.buildCartResponse(ctx))
}

func (h *CartHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	variantID := strings.TrimSpace(chi.URLParam(r, "variantID"))

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req updateItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
		return
	}
	if req.Quantity == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "quantity is required", http.StatusBadRequest))
		return
	}

	if err := h.carts.UpdateQuantity(ctx, variantID, *req.Quantity); err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, h.buildCartResponse(ctx))
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		writeCartUnavailable(ctx, w)
		return
	}

	variantID := strings.TrimSpace(chi.URLParam(r, "variantID"))
	if err := h.carts.RemoveItem(ctx, variantID); err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, h.buildCartResponse(ctx))
}

func (h *CartHandlers) buildCartResponse(ctx context.Context) cartResponse {
	lines := h.carts.Lines(ctx)
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return cartResponse{
		Items: lines,
		Count: h.carts.Count(ctx),
		Total: h.carts.Total(ctx),
	}
}

func (h *CartHandlers) writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
	}
}

func writeCartUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

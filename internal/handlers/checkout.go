package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/onsiteclub/storefront/internal/platform/httpx"
	"github.com/onsiteclub/storefront/internal/services"
)

// HandoffRecorder counts successful checkout handoffs.
type HandoffRecorder interface {
	RecordHandoff()
}

type nopHandoffRecorder struct{}

func (nopHandoffRecorder) RecordHandoff() {}

// CheckoutHandlers exposes the checkout handoff endpoint.
type CheckoutHandlers struct {
	checkout services.CheckoutService
	recorder HandoffRecorder
}

// NewCheckoutHandlers constructs handlers backed by the checkout service.
func NewCheckoutHandlers(checkout services.CheckoutService, recorder HandoffRecorder) *CheckoutHandlers {
	if recorder == nil {
		recorder = nopHandoffRecorder{}
	}
	return &CheckoutHandlers{checkout: checkout, recorder: recorder}
}

// Routes wires the /checkout endpoint onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.startHandoff)
}

type handoffResponse struct {
	CartID      string    `json:"cart_id"`
	RedirectURL string    `json:"redirect_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *CheckoutHandlers) startHandoff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return
	}

	handoff, err := h.checkout.Handoff(ctx)
	if err != nil {
		if errors.Is(err, services.ErrCheckoutUnavailable) {
			httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout is unavailable", http.StatusServiceUnavailable))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
		return
	}

	h.recorder.RecordHandoff()
	writeJSONResponse(w, http.StatusCreated, handoffResponse{
		CartID:      handoff.CartID,
		RedirectURL: handoff.RedirectURL,
		ExpiresAt:   handoff.ExpiresAt,
	})
}

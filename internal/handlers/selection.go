package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/onsiteclub/storefront/internal/domain"
	"github.com/onsiteclub/storefront/internal/platform/httpx"
	"github.com/onsiteclub/storefront/internal/services"
)

// SelectionHandlers exposes the product detail modal: open a product, adjust
// the size/color/image choices, and commit the selection into the cart.
type SelectionHandlers struct {
	selections services.SelectionService
}

const maxSelectionBodySize = 4 * 1024

// NewSelectionHandlers constructs handlers backed by the selection service.
func NewSelectionHandlers(selections services.SelectionService) *SelectionHandlers {
	return &SelectionHandlers{selections: selections}
}

// Routes wires the /selection endpoints onto the provided router.
func (h *SelectionHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.current)
	r.Post("/", h.open)
	r.Delete("/", h.close)
	r.Patch("/size", h.selectSize)
	r.Patch("/color", h.selectColor)
	r.Patch("/image", h.selectImage)
	r.Post("/bag", h.addToBag)
	r.Post("/checkout", h.checkout)
}

type openSelectionRequest struct {
	ProductID string `json:"product_id"`
}

type selectChoiceRequest struct {
	Size  *string `json:"size"`
	Color *string `json:"color"`
	Index *int    `json:"index"`
}

type selectionResponse struct {
	Product    domain.Product `json:"product"`
	Size       string         `json:"size"`
	Color      string         `json:"color"`
	ImageIndex int            `json:"image_index"`
}

type checkoutCommitResponse struct {
	ReviewPath string `json:"review_path"`
}

func (h *SelectionHandlers) current(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.selections == nil {
		writeSelectionUnavailable(ctx, w)
		return
	}
	selection, ok := h.selections.Current()
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("selection_closed", "no product is open", http.StatusNotFound))
		return
	}
	writeJSONResponse(w, http.StatusOK, buildSelectionResponse(selection))
}

func (h *SelectionHandlers) open(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.selections == nil {
		writeSelectionUnavailable(ctx, w)
		return
	}

	body, err := readLimitedBody(r, maxSelectionBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req openSelectionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
		return
	}
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product_id is required", http.StatusBadRequest))
		return
	}

	selection, err := h.selections.Open(ctx, productID)
	if err != nil {
		h.writeSelectionError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildSelectionResponse(selection))
}

func (h *SelectionHandlers) close(w http.ResponseWriter, r *http.Request) {
	if h.selections == nil {
		writeSelectionUnavailable(r.Context(), w)
		return
	}
	h.selections.Close()
	w.WriteHeader(http.StatusNoContent)
}

func (h *SelectionHandlers) selectSize(w http.ResponseWriter, r *http.Request) {
	h.applyChoice(w, r, func(req selectChoiceRequest) (services.Selection, error) {
		if req.Size == nil {
			return services.Selection{}, errMissingChoice("size")
		}
		return h.selections.SelectSize(*req.Size)
	})
}

func (h *SelectionHandlers) selectColor(w http.ResponseWriter, r *http.Request) {
	h.applyChoice(w, r, func(req selectChoiceRequest) (services.Selection, error) {
		if req.Color == nil {
			return services.Selection{}, errMissingChoice("color")
		}
		return h.selections.SelectColor(*req.Color)
	})
}

func (h *SelectionHandlers) selectImage(w http.ResponseWriter, r *http.Request) {
	h.applyChoice(w, r, func(req selectChoiceRequest) (services.Selection, error) {
		if req.Index == nil {
			return services.Selection{}, errMissingChoice("index")
		}
		return h.selections.SelectImage(*req.Index)
	})
}

func (h *SelectionHandlers) applyChoice(w http.ResponseWriter, r *http.Request, apply func(selectChoiceRequest) (services.Selection, error)) {
	ctx := r.Context()
	if h.selections == nil {
		writeSelectionUnavailable(ctx, w)
		return
	}

	body, err := readLimitedBody(r, maxSelectionBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req selectChoiceRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	selection, err := apply(req)
	if err != nil {
		h.writeSelectionError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildSelectionResponse(selection))
}

func (h *SelectionHandlers) addToBag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.selections == nil {
		writeSelectionUnavailable(ctx, w)
		return
	}
	if err := h.selections.AddToBag(ctx); err != nil {
		h.writeSelectionError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SelectionHandlers) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.selections == nil {
		writeSelectionUnavailable(ctx, w)
		return
	}
	commit, err := h.selections.Checkout(ctx)
	if err != nil {
		h.writeSelectionError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, checkoutCommitResponse{ReviewPath: commit.ReviewPath})
}

func buildSelectionResponse(selection services.Selection) selectionResponse {
	return selectionResponse{
		Product:    selection.Product,
		Size:       selection.Size,
		Color:      selection.Color,
		ImageIndex: selection.ImageIndex,
	}
}

var errChoiceRequired = errors.New("choice is required")

func errMissingChoice(field string) error {
	return fmt.Errorf("%w: %s", errChoiceRequired, field)
}

func (h *SelectionHandlers) writeSelectionError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errChoiceRequired):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrSelectionClosed):
		httpx.WriteError(ctx, w, httpx.NewError("selection_closed", "no product is open", http.StatusConflict))
	case errors.Is(err, services.ErrSelectionInvalidChoice):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_choice", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog is unavailable", http.StatusServiceUnavailable))
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
	}
}

func writeSelectionUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("selection_unavailable", "selection service is unavailable", http.StatusServiceUnavailable))
}

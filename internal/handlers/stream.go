package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	domain "github.com/onsiteclub/storefront/internal/domain"
	"github.com/onsiteclub/storefront/internal/float"
	"github.com/onsiteclub/storefront/internal/platform/httpx"
	"github.com/onsiteclub/storefront/internal/services"
)

const (
	streamWriteTimeout = 5 * time.Second
	maxStreamMessage   = 4 * 1024
)

// StreamHandlers pushes layout frames over a websocket and feeds client
// scroll and category events back into the engine.
type StreamHandlers struct {
	engine   *float.Engine
	catalog  services.CatalogService
	interval time.Duration
	logger   func(ctx context.Context, event string, fields map[string]any)
	upgrader websocket.Upgrader
}

// StreamDeps carries the collaborators for the stream handlers.
type StreamDeps struct {
	Engine   *float.Engine
	Catalog  services.CatalogService
	Interval time.Duration
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewStreamHandlers constructs the websocket layout stream.
func NewStreamHandlers(deps StreamDeps) *StreamHandlers {
	interval := deps.Interval
	if interval <= 0 {
		interval = float.DefaultFrameInterval
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &StreamHandlers{
		engine:   deps.Engine,
		catalog:  deps.Catalog,
		interval: interval,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The storefront serves browsers on arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Routes wires the stream endpoint onto the provided router.
func (h *StreamHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.serve)
}

type streamFrame struct {
	Type       string       `json:"type"`
	Multiplier float64      `json:"multiplier"`
	Cards      []float.Card `json:"cards"`
}

type streamMessage struct {
	Type     string  `json:"type"`
	Delta    float64 `json:"delta,omitempty"`
	Category string  `json:"category,omitempty"`
}

func (h *StreamHandlers) serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.engine == nil {
		httpx.WriteError(ctx, w, httpx.NewError("stream_unavailable", "layout stream is unavailable", http.StatusServiceUnavailable))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger(ctx, "stream.upgrade_failed", map[string]any{"error": err.Error()})
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxStreamMessage)
	h.logger(ctx, "stream.client_connected", nil)

	done := make(chan struct{})
	go h.writeFrames(ctx, conn, done)

	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		h.handleMessage(ctx, msg)
	}

	close(done)
	h.logger(ctx, "stream.client_disconnected", nil)
}

func (h *StreamHandlers) writeFrames(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			frame := streamFrame{
				Type:       "frame",
				Multiplier: h.engine.Multiplier(),
				Cards:      h.engine.Snapshot(),
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(frame); err != nil {
				h.logger(ctx, "stream.write_failed", map[string]any{"error": err.Error()})
				return
			}
		}
	}
}

func (h *StreamHandlers) handleMessage(ctx context.Context, msg streamMessage) {
	switch msg.Type {
	case "scroll":
		h.engine.Scroll(msg.Delta)
	case "category":
		if h.catalog == nil {
			return
		}
		category := domain.Category(strings.TrimSpace(msg.Category))
		products, err := h.catalog.ListProducts(ctx, category)
		if err != nil {
			h.logger(ctx, "stream.category_failed", map[string]any{
				"category": string(category),
				"error":    err.Error(),
			})
			return
		}
		h.engine.Reset(products)
	default:
		h.logger(ctx, "stream.unknown_message", map[string]any{"type": msg.Type})
	}
}

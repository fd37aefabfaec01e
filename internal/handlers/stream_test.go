package handlers

import (
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	domain "github.com/onsiteclub/storefront/internal/domain"
	"github.com/onsiteclub/storefront/internal/float"
)

func newStreamServer(t *testing.T, engine *float.Engine, catalog *stubCatalogService) (*httptest.Server, *websocket.Conn) {
	t.Helper()

	r := chi.NewRouter()
	NewStreamHandlers(StreamDeps{
		Engine:   engine,
		Catalog:  catalog,
		Interval: 5 * time.Millisecond,
	}).Routes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial stream: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return server, conn
}

func newStreamEngine(t *testing.T) *float.Engine {
	t.Helper()
	engine := float.NewEngine(float.EngineDeps{
		Rand: rand.New(rand.NewSource(7)),
	})
	engine.Reset([]domain.Product{sampleProduct("tee-1", domain.CategoryMens)})
	return engine
}

func TestStreamHandlersPushesFrames(t *testing.T) {
	engine := newStreamEngine(t)
	_, conn := newStreamServer(t, engine, &stubCatalogService{})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var frame struct {
		Type       string  `json:"type"`
		Multiplier float64 `json:"multiplier"`
		Cards      []struct {
			Key  string `json:"key"`
			Zone string `json:"zone"`
		} `json:"cards"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	if frame.Type != "frame" {
		t.Fatalf("expected frame message, got %q", frame.Type)
	}
	if len(frame.Cards) != 11 {
		t.Fatalf("expected 11 cards, got %d", len(frame.Cards))
	}
	if frame.Multiplier != 1.0 {
		t.Fatalf("expected baseline multiplier, got %v", frame.Multiplier)
	}
}

func TestStreamHandlersScrollBoostsMultiplier(t *testing.T) {
	engine := newStreamEngine(t)
	_, conn := newStreamServer(t, engine, &stubCatalogService{})

	if err := conn.WriteJSON(map[string]any{"type": "scroll", "delta": 200}); err != nil {
		t.Fatalf("failed to send scroll: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if engine.Multiplier() > 1.0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected scroll message to boost the multiplier")
}

func TestStreamHandlersCategorySwapsDeck(t *testing.T) {
	engine := newStreamEngine(t)
	catalog := &stubCatalogService{
		products: map[domain.Category][]domain.Product{
			domain.CategoryWomens: {sampleProduct("dress-1", domain.CategoryWomens)},
		},
	}
	_, conn := newStreamServer(t, engine, catalog)

	if err := conn.WriteJSON(map[string]any{"type": "category", "category": "womens"}); err != nil {
		t.Fatalf("failed to send category switch: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		cards := engine.Snapshot()
		if len(cards) > 0 && cards[0].Product.ID == "dress-1" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected category switch to repopulate the deck")
}

func TestStreamHandlersRejectsWithoutEngine(t *testing.T) {
	r := chi.NewRouter()
	NewStreamHandlers(StreamDeps{}).Routes(r)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

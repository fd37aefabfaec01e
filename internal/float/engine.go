// Package float runs the floating-products layout: a continuous positional
// simulation that streams a bounded set of product cards upward through three
// horizontal zones, recycling cards that leave the viewport.
package float

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/onsiteclub/storefront/internal/domain"
)

// Zone identifies one of the three horizontal bands of the layout.
type Zone string

const (
	// ZoneLeft is the left band.
	ZoneLeft Zone = "left"
	// ZoneCenter is the center band; its cards render larger and move slower.
	ZoneCenter Zone = "center"
	// ZoneRight is the right band.
	ZoneRight Zone = "right"
)

const (
	multiplierBaseline = 1.0
	multiplierCeiling  = 8.0
	multiplierDecay    = 0.02
	scrollGain         = 0.01
	scrollThrottle     = 16 * time.Millisecond

	// Cards recycle once fully above the viewport and respawn below it.
	recycleBelow = -15.0
	respawnAt    = 115.0

	// Initial vertical placement spans [-10, 110] so the stream is already
	// mid-flow when a category activates.
	entryMin  = -10.0
	entrySpan = 120.0

	// DefaultFrameInterval approximates a 60fps frame callback.
	DefaultFrameInterval = 16 * time.Millisecond
)

type zoneSpec struct {
	zone  Zone
	min   float64 // horizontal band, percent of viewport width
	max   float64
	count int
	scale float64
	speed float64 // percent of viewport height per tick
}

// Side cards are smaller and faster than center cards, which produces the
// parallax illusion.
var zoneSpecs = []zoneSpec{
	{zone: ZoneLeft, min: 5, max: 30, count: 4, scale: 0.9, speed: 0.025},
	{zone: ZoneCenter, min: 35, max: 65, count: 3, scale: 1.1, speed: 0.015},
	{zone: ZoneRight, min: 70, max: 95, count: 4, scale: 0.9, speed: 0.025},
}

// ZoneBand returns the horizontal band for a zone. Unknown zones report ok=false.
func ZoneBand(zone Zone) (min, max float64, ok bool) {
	for _, spec := range zoneSpecs {
		if spec.zone == zone {
			return spec.min, spec.max, true
		}
	}
	return 0, 0, false
}

// Card couples a product with its ephemeral placement state. The Key is
// distinct from the product identifier because the same product may float as
// several simultaneous cards.
type Card struct {
	Key     string         `json:"key"`
	Product domain.Product `json:"product"`
	Zone    Zone           `json:"zone"`
	X       float64        `json:"x"`
	Y       float64        `json:"y"`
	Scale   float64        `json:"scale"`
	Speed   float64        `json:"speed"`
}

// RecycleRecorder receives a signal whenever a card wraps around.
type RecycleRecorder interface {
	RecordRecycle(zone string)
}

type nopRecycleRecorder struct{}

func (nopRecycleRecorder) RecordRecycle(string) {}

// EngineDeps wires the clock, random source, and observability collaborators.
type EngineDeps struct {
	// Rand drives sampling and placement. Tests inject a seeded source;
	// production uses a time-seeded one.
	Rand          *rand.Rand
	Clock         func() time.Time
	Logger        func(ctx context.Context, event string, fields map[string]any)
	Recorder      RecycleRecorder
	FrameInterval time.Duration
}

// Engine owns all floating-card state. The frame loop, the scroll input, and
// snapshot readers are serialised by a single lock, so a scroll event's effect
// on the speed multiplier is visible to the very next tick.
type Engine struct {
	rnd           *rand.Rand
	now           func() time.Time
	logger        func(context.Context, string, map[string]any)
	recorder      RecycleRecorder
	frameInterval time.Duration

	mu         sync.Mutex
	cards      []Card
	multiplier float64
	lastScroll time.Time
}

// NewEngine constructs an engine with no cards; call Reset to populate it.
func NewEngine(deps EngineDeps) *Engine {
	rnd := deps.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = nopRecycleRecorder{}
	}
	interval := deps.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Engine{
		rnd:           rnd,
		now:           clock,
		logger:        logger,
		recorder:      recorder,
		frameInterval: interval,
		multiplier:    multiplierBaseline,
	}
}

// Reset rebuilds every zone's card pool from the given product set, sampling
// with replacement for visual variety. The previous cards are discarded; an
// empty product set empties the layout.
func (e *Engine) Reset(products []domain.Product) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cards = e.cards[:0]
	if len(products) == 0 {
		return
	}

	for _, spec := range zoneSpecs {
		for i := 0; i < spec.count; i++ {
			product := products[e.rnd.Intn(len(products))]
			e.cards = append(e.cards, Card{
				Key:     fmt.Sprintf("%s-%d-%s", spec.zone, i, ulid.Make()),
				Product: product,
				Zone:    spec.zone,
				X:       spec.min + e.rnd.Float64()*(spec.max-spec.min),
				Y:       entryMin + e.rnd.Float64()*entrySpan,
				Scale:   spec.scale,
				Speed:   spec.speed,
			})
		}
	}
}

// Tick advances the simulation by one frame: every card drifts upward by its
// speed scaled with the shared multiplier, cards past the recycle threshold
// wrap around to the bottom with a fresh horizontal position, and the
// multiplier decays toward baseline.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.cards {
		card := &e.cards[i]
		card.Y -= card.Speed * e.multiplier
		if card.Y < recycleBelow {
			card.Y = respawnAt
			if min, max, ok := ZoneBand(card.Zone); ok {
				card.X = min + e.rnd.Float64()*(max-min)
			}
			e.recorder.RecordRecycle(string(card.Zone))
		}
	}

	if e.multiplier > multiplierBaseline {
		e.multiplier -= multiplierDecay
		if e.multiplier < multiplierBaseline {
			e.multiplier = multiplierBaseline
		}
	}
}

// Scroll feeds scroll input into the speed multiplier, synchronously so the
// effect reaches the next tick. Events arriving within the throttle window of
// the previous accepted one are dropped.
func (e *Engine) Scroll(delta float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if !e.lastScroll.IsZero() && now.Sub(e.lastScroll) <= scrollThrottle {
		return
	}
	e.lastScroll = now

	if delta < 0 {
		delta = -delta
	}
	e.multiplier += delta * scrollGain
	if e.multiplier > multiplierCeiling {
		e.multiplier = multiplierCeiling
	}
}

// Multiplier reports the current speed multiplier.
func (e *Engine) Multiplier() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.multiplier
}

// Snapshot returns a copy of the current cards for rendering.
func (e *Engine) Snapshot() []Card {
	e.mu.Lock()
	defer e.mu.Unlock()

	dup := make([]Card, len(e.cards))
	copy(dup, e.cards)
	return dup
}

// FrameInterval reports the engine's configured frame spacing.
func (e *Engine) FrameInterval() time.Duration {
	return e.frameInterval
}

// Run drives the simulation until the context is cancelled. The caller owns
// the lifecycle: start it when the view becomes active, cancel the context on
// teardown so no recurring work leaks.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.frameInterval)
	defer ticker.Stop()

	e.logger(ctx, "float.run_started", map[string]any{
		"frameInterval": e.frameInterval.String(),
	})
	for {
		select {
		case <-ctx.Done():
			e.logger(ctx, "float.run_stopped", map[string]any{
				"reason": ctx.Err().Error(),
			})
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

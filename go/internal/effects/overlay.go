package effects

import (
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/bwpl/auctioneer/go/internal/auction"
)

// OverlayKind distinguishes the two result banners.
type OverlayKind string

const (
	OverlaySold   OverlayKind = "sold"
	OverlayUnsold OverlayKind = "unsold"
)

// Overlay is one visible result banner. It renders off the event payload,
// not current state, because the lot may be cleared while it is on screen.
type Overlay struct {
	Kind     OverlayKind
	EventID  string
	PlayerID uuid.UUID
	TeamID   uuid.UUID // zero for unsold
	Price    int64     // zero for unsold
}

// OverlayConfig sets how long each banner stays up.
type OverlayConfig struct {
	SoldDuration   time.Duration
	UnsoldDuration time.Duration
}

// DefaultOverlayConfig matches the presentation's celebration timings.
func DefaultOverlayConfig() OverlayConfig {
	return OverlayConfig{
		SoldDuration:   4500 * time.Millisecond,
		UnsoldDuration: 3500 * time.Millisecond,
	}
}

// OverlayController shows a result banner when a lot resolves and hides it
// after a fixed duration. Hiding a sold banner also clears the lot, which is
// why the sold event must outlive the clear. A newer event supersedes the
// running timer; the stale timer's expiry is ignored by event id.
type OverlayController struct {
	store  *auction.Store
	clock  clockwork.Clock
	config OverlayConfig

	mu          stdsync.Mutex
	current     *Overlay
	lastEventID string
	onChange    func(*Overlay)
	unsubscribe func()
	pendingStop func() // stops the armed hide timer and releases its goroutine
}

// OverlayOption configures an OverlayController.
type OverlayOption func(*OverlayController)

// WithOverlayClock replaces the wall clock; tests inject a fake.
func WithOverlayClock(c clockwork.Clock) OverlayOption {
	return func(o *OverlayController) { o.clock = c }
}

// WithOverlayConfig overrides the banner durations.
func WithOverlayConfig(cfg OverlayConfig) OverlayOption {
	return func(o *OverlayController) { o.config = cfg }
}

// WithOverlayListener registers a callback fired on every show and hide. The
// hide call passes nil.
func WithOverlayListener(fn func(*Overlay)) OverlayOption {
	return func(o *OverlayController) { o.onChange = fn }
}

// NewOverlayController creates a controller with default timings.
func NewOverlayController(store *auction.Store, opts ...OverlayOption) *OverlayController {
	o := &OverlayController{
		store:  store,
		clock:  clockwork.NewRealClock(),
		config: DefaultOverlayConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Attach subscribes to the store. Idempotent.
func (o *OverlayController) Attach() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.unsubscribe != nil {
		return
	}
	o.unsubscribe = o.store.Subscribe(func(prev, next auction.State) {
		o.onTransition(next)
	})
}

// Detach unsubscribes, dismisses any visible banner, and stops its armed
// hide timer. Idempotent.
func (o *OverlayController) Detach() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.unsubscribe != nil {
		o.unsubscribe()
		o.unsubscribe = nil
	}
	if o.pendingStop != nil {
		o.pendingStop()
		o.pendingStop = nil
	}
	o.current = nil
}

// Current returns the visible banner, or nil.
func (o *OverlayController) Current() *Overlay {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return nil
	}
	cp := *o.current
	return &cp
}

func (o *OverlayController) onTransition(next auction.State) {
	evt := next.LastEvent
	if evt == nil {
		return
	}

	o.mu.Lock()
	if evt.ID == o.lastEventID {
		o.mu.Unlock()
		return
	}
	o.lastEventID = evt.ID
	o.mu.Unlock()

	switch evt.Type {
	case auction.EventPlayerSold:
		playerID, _ := evt.PayloadUUID("playerId")
		teamID, _ := evt.PayloadUUID("teamId")
		price, _ := evt.PayloadInt64("price")
		o.show(&Overlay{
			Kind:     OverlaySold,
			EventID:  evt.ID,
			PlayerID: playerID,
			TeamID:   teamID,
			Price:    price,
		}, o.config.SoldDuration)
	case auction.EventPlayerUnsold:
		playerID, _ := evt.PayloadUUID("playerId")
		o.show(&Overlay{
			Kind:     OverlayUnsold,
			EventID:  evt.ID,
			PlayerID: playerID,
		}, o.config.UnsoldDuration)
	}
}

// show replaces any visible banner and stops the superseded banner's timer.
// The event id guard in hide covers the window where a stale timer has
// already fired but not yet run.
func (o *OverlayController) show(ov *Overlay, dur time.Duration) {
	o.mu.Lock()
	if o.pendingStop != nil {
		o.pendingStop()
	}
	o.current = ov
	timer := o.clock.NewTimer(dur)
	cancel := make(chan struct{})
	o.pendingStop = func() {
		timer.Stop()
		close(cancel)
	}
	notify := o.onChange
	o.mu.Unlock()

	if notify != nil {
		notify(ov)
	}

	go func(eventID string, kind OverlayKind, t clockwork.Timer) {
		select {
		case <-t.Chan():
			o.hide(eventID, kind)
		case <-cancel:
		}
	}(ov.EventID, ov.Kind, timer)
}

// hide dismisses the banner only if it is still the one the timer was armed
// for. A stale expiry after a newer event is a no-op.
func (o *OverlayController) hide(eventID string, kind OverlayKind) {
	o.mu.Lock()
	if o.current == nil || o.current.EventID != eventID {
		o.mu.Unlock()
		return
	}
	o.current = nil
	o.pendingStop = nil
	notify := o.onChange
	o.mu.Unlock()

	if notify != nil {
		notify(nil)
	}
	if kind == OverlaySold {
		o.store.ClearCurrentPlayer()
	}
}

package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/bwpl/auctioneer/go/internal/auction"
)

// DataFetcher re-reads teams/players/config from the persisted record store.
// The presentation side calls it when a DATA_UPDATED signal arrives and on a
// fixed fallback poll; the admin side never does, because it performed the
// mutation that triggered the broadcast in the first place.
type DataFetcher interface {
	Refresh(ctx context.Context) error
}

// DefaultPollInterval is the presentation side's fallback re-fetch cadence
// when the transport is unavailable. Polling is fixed and cheap, so there is
// no backoff.
const DefaultPollInterval = 30 * time.Second

// Adapter bridges one context's Store to the cross-context channel. It owns
// the channel for the context's lifetime: Attach opens and subscribes,
// Detach releases on every exit path.
type Adapter struct {
	role      Role
	store     *auction.Store
	transport Transport // nil means the channel never opened: degraded mode
	fetcher   DataFetcher
	clock     clockwork.Clock
	pollEvery time.Duration

	mu                   stdsync.Mutex
	lastProcessedEventID string
	attached             bool
	runCtx               context.Context
	cancelRun            context.CancelFunc

	unsubscribe func()
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithFetcher wires the record-store re-fetch hook.
func WithFetcher(f DataFetcher) AdapterOption {
	return func(a *Adapter) { a.fetcher = f }
}

// WithAdapterClock replaces the wall clock; tests inject a fake.
func WithAdapterClock(c clockwork.Clock) AdapterOption {
	return func(a *Adapter) { a.clock = c }
}

// WithPollInterval overrides the degraded-mode poll cadence.
func WithPollInterval(d time.Duration) AdapterOption {
	return func(a *Adapter) { a.pollEvery = d }
}

// NewAdapter creates an adapter for one context. A nil transport is allowed
// and degrades the adapter to poll-only operation; this is the documented
// fallback when the channel cannot be opened, not an error.
func NewAdapter(role Role, store *auction.Store, transport Transport, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		role:      role,
		store:     store,
		transport: transport,
		clock:     clockwork.NewRealClock(),
		pollEvery: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Attach opens the channel for this context: registers the inbound handler,
// starts the role-specific behavior, and (for followers) requests an initial
// snapshot. Safe to call once per adapter; Detach releases everything.
func (a *Adapter) Attach(ctx context.Context) {
	a.mu.Lock()
	if a.attached {
		a.mu.Unlock()
		return
	}
	a.attached = true
	// Inbound handlers and the poll loop run on this context; Detach cancels
	// it so a detached adapter can never issue a late fetch.
	a.runCtx, a.cancelRun = context.WithCancel(ctx)
	ctx = a.runCtx
	a.mu.Unlock()

	if a.transport == nil {
		log.Warn().Str("role", string(a.role)).Msg("sync channel unavailable, falling back to polling")
		if a.role == RolePresentation {
			a.startPolling(ctx)
		}
		return
	}

	a.transport.SetHandler(a.handle)

	switch a.role {
	case RoleAdmin:
		// The authority rebroadcasts on every sync-worthy change, detected
		// by field comparison rather than event type.
		a.unsubscribe = a.store.Subscribe(func(prev, next auction.State) {
			if auction.SyncWorthyChange(prev, next) {
				a.BroadcastState()
			}
		})
	case RolePresentation:
		if err := a.transport.Send(NewRequestSync(a.role, a.now())); err != nil {
			log.Warn().Err(err).Msg("request sync failed")
		}
		if a.fetcher != nil {
			if err := a.fetcher.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("initial record fetch failed")
			}
		}
	}
}

// Detach unsubscribes and closes the channel. Idempotent.
func (a *Adapter) Detach() {
	a.mu.Lock()
	attached := a.attached
	a.attached = false
	cancel := a.cancelRun
	a.cancelRun = nil
	a.mu.Unlock()
	if !attached {
		return
	}

	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if cancel != nil {
		cancel()
	}
	if a.transport != nil {
		if err := a.transport.Close(); err != nil {
			log.Warn().Err(err).Msg("transport close failed")
		}
	}
}

// BroadcastState sends the full reconciliation snapshot tagged with this
// context's role.
func (a *Adapter) BroadcastState() {
	if a.transport == nil {
		return
	}
	msg, err := NewStateSync(a.role, a.store.Snapshot(), a.now())
	if err != nil {
		log.Error().Err(err).Msg("build state sync failed")
		return
	}
	if err := a.transport.Send(msg); err != nil {
		log.Warn().Err(err).Msg("broadcast state failed")
	}
}

// BroadcastDataUpdated tells peers to re-fetch persisted records. Called
// after the admin writes teams/players/config.
func (a *Adapter) BroadcastDataUpdated() {
	if a.transport == nil {
		return
	}
	if err := a.transport.Send(NewDataUpdated(a.role, a.now())); err != nil {
		log.Warn().Err(err).Msg("broadcast data update failed")
	}
}

// BroadcastEvent forwards one discrete event and installs it locally. An
// event without an id gets one minted here; follower dedup depends on it.
func (a *Adapter) BroadcastEvent(evt auction.Event) {
	if evt.ID == "" {
		evt.ID = a.store.NewEventID()
	}
	if evt.Timestamp == 0 {
		evt.Timestamp = a.now()
	}
	a.store.ApplyEvent(evt)
	if a.transport == nil {
		return
	}
	msg, err := NewEvent(a.role, evt, a.now())
	if err != nil {
		log.Error().Err(err).Msg("build event message failed")
		return
	}
	if err := a.transport.Send(msg); err != nil {
		log.Warn().Err(err).Msg("broadcast event failed")
	}
}

// handle classifies one inbound message. Order matters: self-echo rejection
// first, then per-type dedup and application.
func (a *Adapter) handle(msg Message) {
	if msg.Source == a.role {
		return
	}

	switch msg.Type {
	case MsgStateSync:
		snap, err := DecodeSnapshot(msg)
		if err != nil {
			log.Warn().Err(err).Msg("dropping malformed state sync")
			return
		}
		if snap.LastEventID != "" {
			if !a.markProcessed(snap.LastEventID) {
				log.Debug().Str("event_id", snap.LastEventID).Msg("duplicate state sync dropped")
				return
			}
			a.store.ApplySnapshot(snap)
			return
		}
		// No event id to dedupe on: legacy or degenerate payload. Apply
		// unconditionally rather than guess.
		a.store.ApplySnapshot(snap)

	case MsgEvent:
		evt, err := DecodeEvent(msg)
		if err != nil {
			log.Warn().Err(err).Msg("dropping malformed event")
			return
		}
		if evt.ID != "" && !a.markProcessed(evt.ID) {
			log.Debug().Str("event_id", evt.ID).Msg("duplicate event dropped")
			return
		}
		a.store.ApplyEvent(evt)

	case MsgDataUpdated:
		// Admin already has fresh data: it made the change.
		if a.role != RolePresentation || a.fetcher == nil {
			return
		}
		a.mu.Lock()
		ctx := a.runCtx
		a.mu.Unlock()
		if ctx == nil || ctx.Err() != nil {
			return
		}
		if err := a.fetcher.Refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("record re-fetch failed")
		}

	case MsgRequestSync:
		// Followers are not sources of truth.
		if a.role == RoleAdmin {
			a.BroadcastState()
		}
	}
}

// markProcessed records an event id and reports whether it was new.
func (a *Adapter) markProcessed(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastProcessedEventID == id {
		return false
	}
	a.lastProcessedEventID = id
	return true
}

// startPolling runs the degraded-mode fixed-interval re-fetch loop on the
// adapter's run context; Detach cancels it.
func (a *Adapter) startPolling(ctx context.Context) {
	if a.fetcher == nil {
		return
	}

	go func() {
		ticker := a.clock.NewTicker(a.pollEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if err := a.fetcher.Refresh(ctx); err != nil {
					log.Warn().Err(err).Msg("poll re-fetch failed")
				}
			}
		}
	}()
}

func (a *Adapter) now() int64 {
	return a.clock.Now().UnixMilli()
}

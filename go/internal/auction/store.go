// Package auction holds the canonical state machine for a live player
// auction: lifecycle flags, the current lot and bid, the active presentation
// view, and a one-deep event log used to trigger animations exactly once.
//
// One Store exists per browsing context. The admin context is the authority;
// presentation contexts mirror it by applying snapshots received over a
// transport (see the sync package). Mutators that represent auction-visible
// milestones stamp a fresh event id together with the field changes in one
// atomic update, so no observer can ever see a new bid with a stale event id
// or vice versa.
package auction

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/bwpl/auctioneer/go/internal/auction/rules"
	"github.com/bwpl/auctioneer/go/internal/models"
)

// Store is a subscribable state container. Mutators never fail: this layer is
// a pure reducer, and validity checks (affordability, squad limits) belong to
// the caller, which runs them before committing.
type Store struct {
	mu    sync.RWMutex
	state State

	subsMu  sync.Mutex
	subs    map[int]func(prev, next State)
	nextSub int

	ids   IDGenerator
	clock clockwork.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the default uuid-based event id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// WithClock replaces the wall clock; tests inject a fake.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithState seeds the store with a restored state instead of the defaults.
func WithState(st State) Option {
	return func(s *Store) { s.state = st }
}

// NewStore creates a store with the stock initial state.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state: newInitialState(),
		subs:  make(map[int]func(prev, next State)),
		ids:   UUIDGenerator{},
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// NewEventID mints an id from the store's generator without stamping
// anything. Used when an event is built outside a mutator.
func (s *Store) NewEventID() string {
	return s.ids.NewID()
}

// Snapshot returns the sync-worthy subset of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotOf(s.state)
}

// Subscribe registers a callback invoked after every state transition with
// the before and after copies. Returns an unsubscribe func. Callbacks run
// synchronously on the mutating goroutine, outside the state lock.
func (s *Store) Subscribe(fn func(prev, next State)) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// update applies mut atomically and notifies subscribers with value copies.
func (s *Store) update(mut func(st *State)) {
	s.mu.Lock()
	prev := s.state
	mut(&s.state)
	next := s.state
	s.mu.Unlock()

	s.subsMu.Lock()
	fns := make([]func(State, State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(prev, next)
	}
}

// stamp sets a fresh event on st. Must only be called inside an update.
func (s *Store) stamp(st *State, typ EventType, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	id := s.ids.NewID()
	st.LastEvent = &Event{
		ID:        id,
		Type:      typ,
		Payload:   payload,
		Timestamp: s.clock.Now().UnixMilli(),
	}
	st.LastEventID = id
}

// --- Lifecycle -------------------------------------------------------------

// StartAuction goes live and switches the presentation to the auction view.
func (s *Store) StartAuction() {
	s.update(func(st *State) {
		st.IsLive = true
		st.IsPaused = false
		st.AuctionStartedAt = s.clock.Now().UnixMilli()
		st.ActiveView = ViewAuction
		s.stamp(st, EventAuctionStart, nil)
	})
}

// PauseAuction sets the paused flag. Pausing while not live is a state-level
// no-op but still stamps a pause event; call sites rely on the event always
// firing, so the quirk is kept.
func (s *Store) PauseAuction() {
	s.update(func(st *State) {
		st.IsPaused = true
		s.stamp(st, EventAuctionPause, nil)
	})
}

// ResumeAuction clears the paused flag.
func (s *Store) ResumeAuction() {
	s.update(func(st *State) {
		st.IsPaused = false
		s.stamp(st, EventAuctionResume, nil)
	})
}

// EndAuction returns to the splash screen and clears the current lot.
func (s *Store) EndAuction() {
	s.update(func(st *State) {
		st.IsLive = false
		st.IsPaused = false
		st.ActiveView = ViewSplash
		st.CurrentPlayerID = nil
		st.CurrentBid = 0
		st.CurrentBiddingTeamID = nil
		s.stamp(st, EventAuctionEnd, nil)
	})
}

// --- Lot and bidding -------------------------------------------------------

// SelectPlayer puts a lot up for bidding at its base price.
func (s *Store) SelectPlayer(playerID uuid.UUID, basePrice int64) {
	s.update(func(st *State) {
		st.CurrentPlayerID = &playerID
		st.CurrentBid = basePrice
		st.CurrentBiddingTeamID = nil
		st.ActiveView = ViewAuction
		s.stamp(st, EventPlayerSelect, map[string]any{
			"playerId":  playerID,
			"basePrice": basePrice,
		})
	})
}

// UpdateBid sets the bid to an absolute amount. A nil teamID keeps whichever
// bidder currently holds the floor.
func (s *Store) UpdateBid(amount int64, teamID *uuid.UUID) {
	s.update(func(st *State) {
		st.CurrentBid = amount
		if teamID != nil {
			id := *teamID
			st.CurrentBiddingTeamID = &id
		}
		s.stamp(st, EventBidUpdate, map[string]any{
			"amount": amount,
			"teamId": effectiveTeam(teamID, st.CurrentBiddingTeamID),
		})
	})
}

// IncrementBid raises the bid by the given step. A nil teamID retains the
// previously highlighted bidder: a quick-bid button press must not clear
// whoever was last on the floor.
func (s *Store) IncrementBid(increment int64, teamID *uuid.UUID) {
	s.update(func(st *State) {
		st.CurrentBid += increment
		if teamID != nil {
			id := *teamID
			st.CurrentBiddingTeamID = &id
		}
		s.stamp(st, EventBidUpdate, map[string]any{
			"amount": st.CurrentBid,
			"teamId": effectiveTeam(teamID, st.CurrentBiddingTeamID),
		})
	})
}

// NextIncrement resolves the quick increment for the current bid from the
// configured auto-increment table.
func (s *Store) NextIncrement() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rules.ResolveIncrement(s.state.CurrentBid, s.state.AutoIncrementRules)
}

// HighlightTeam puts a bidder on the floor without changing the bid amount.
func (s *Store) HighlightTeam(teamID uuid.UUID) {
	s.update(func(st *State) {
		st.CurrentBiddingTeamID = &teamID
		s.stamp(st, EventBidHighlight, map[string]any{"teamId": teamID})
	})
}

// --- Sale outcome ----------------------------------------------------------

// MarkSold records the sale event. It deliberately does not clear the current
// lot: consumers render the sold overlay off the event payload while the
// departing lot is still fading out, so the event must land before any
// ClearCurrentPlayer call.
func (s *Store) MarkSold(playerID, teamID uuid.UUID, price int64) {
	s.update(func(st *State) {
		s.stamp(st, EventPlayerSold, map[string]any{
			"playerId": playerID,
			"teamId":   teamID,
			"price":    price,
		})
	})
}

// MarkUnsold records that the lot found no buyer. Same ordering contract as
// MarkSold.
func (s *Store) MarkUnsold(playerID uuid.UUID) {
	s.update(func(st *State) {
		s.stamp(st, EventPlayerUnsold, map[string]any{"playerId": playerID})
	})
}

// ClearCurrentPlayer returns the console to idle. No event: the presentation
// side has nothing to animate for this.
func (s *Store) ClearCurrentPlayer() {
	s.update(func(st *State) {
		st.CurrentPlayerID = nil
		st.CurrentBid = 0
		st.CurrentBiddingTeamID = nil
	})
}

// --- Presentation control --------------------------------------------------

// SetActiveView switches the presentation screen.
func (s *Store) SetActiveView(v View) {
	s.update(func(st *State) {
		st.ActiveView = v
		s.stamp(st, EventViewChange, map[string]any{"view": string(v)})
	})
}

// PlaySound requests an ad-hoc sound on the presentation side.
func (s *Store) PlaySound(soundID string) {
	s.update(func(st *State) {
		s.stamp(st, EventSoundPlay, map[string]any{"soundId": soundID})
	})
}

// --- Queue and round management (non-event mutators) -----------------------

// SetPlayerQueue replaces the manual lot ordering and rewinds the pointer.
func (s *Store) SetPlayerQueue(queue []uuid.UUID) {
	q := make([]uuid.UUID, len(queue))
	copy(q, queue)
	s.update(func(st *State) {
		st.PlayerQueue = q
		st.QueueIndex = 0
	})
}

// NextInQueue advances the queue pointer and returns the next player id.
func (s *Store) NextInQueue() (uuid.UUID, bool) {
	var id uuid.UUID
	var ok bool
	s.update(func(st *State) {
		if st.QueueIndex < len(st.PlayerQueue)-1 {
			st.QueueIndex++
			id = st.PlayerQueue[st.QueueIndex]
			ok = true
		}
	})
	return id, ok
}

// PrevInQueue rewinds the queue pointer and returns the previous player id.
func (s *Store) PrevInQueue() (uuid.UUID, bool) {
	var id uuid.UUID
	var ok bool
	s.update(func(st *State) {
		if st.QueueIndex > 0 {
			st.QueueIndex--
			id = st.PlayerQueue[st.QueueIndex]
			ok = true
		}
	})
	return id, ok
}

// SetCurrentRound updates the round counter.
func (s *Store) SetCurrentRound(round int) {
	s.update(func(st *State) { st.CurrentRound = round })
}

// SetCurrentTier updates the tier being auctioned.
func (s *Store) SetCurrentTier(tier string) {
	s.update(func(st *State) { st.CurrentTier = tier })
}

// --- Settings (non-event mutators) -----------------------------------------

// ToggleSound flips the sound flag.
func (s *Store) ToggleSound() {
	s.update(func(st *State) { st.SoundEnabled = !st.SoundEnabled })
}

// SetSound sets the sound flag.
func (s *Store) SetSound(enabled bool) {
	s.update(func(st *State) { st.SoundEnabled = enabled })
}

// SetPoolFilter updates the ephemeral pool status filter.
func (s *Store) SetPoolFilter(filter string) {
	s.update(func(st *State) { st.PoolFilter = filter })
}

// SetPoolTierFilter updates the ephemeral pool tier filter.
func (s *Store) SetPoolTierFilter(tier string) {
	s.update(func(st *State) { st.PoolTierFilter = tier })
}

// SetBidIncrements replaces the quick-bid button amounts.
func (s *Store) SetBidIncrements(increments []int64) {
	inc := make([]int64, len(increments))
	copy(inc, increments)
	s.update(func(st *State) { st.BidIncrements = inc })
}

// SetAutoIncrementRules replaces the auto-increment table. The table should
// be ordered ascending by ceiling with a nil-ceiling catch-all last; the
// resolver takes the first match and does not re-sort.
func (s *Store) SetAutoIncrementRules(table []models.AutoIncrementRule) {
	rulesCopy := make([]models.AutoIncrementRule, len(table))
	copy(rulesCopy, table)
	s.update(func(st *State) { st.AutoIncrementRules = rulesCopy })
}

// --- Reset -----------------------------------------------------------------

// ResetAuctionState restores the initial state and stamps a reset event so
// followers clear their screens too.
func (s *Store) ResetAuctionState() {
	s.update(func(st *State) {
		*st = newInitialState()
		s.stamp(st, EventAuctionReset, nil)
	})
}

// ResetAuction restores the initial state silently.
func (s *Store) ResetAuction() {
	s.update(func(st *State) {
		*st = newInitialState()
	})
}

// --- Follower-side application ---------------------------------------------

// ApplySnapshot overwrites the synced subset in one atomic update. Used by
// the presentation side when a STATE_SYNC arrives; pool filters are local and
// untouched.
func (s *Store) ApplySnapshot(snap Snapshot) {
	s.update(func(st *State) {
		st.IsLive = snap.IsLive
		st.IsPaused = snap.IsPaused
		st.CurrentPlayerID = snap.CurrentPlayerID
		st.CurrentBid = snap.CurrentBid
		st.CurrentBiddingTeamID = snap.CurrentBiddingTeamID
		st.ActiveView = snap.ActiveView
		st.PlayerQueue = snap.PlayerQueue
		st.QueueIndex = snap.QueueIndex
		st.CurrentRound = snap.CurrentRound
		st.CurrentTier = snap.CurrentTier
		st.SoundEnabled = snap.SoundEnabled
		st.LastEvent = snap.LastEvent
		st.LastEventID = snap.LastEventID
		if snap.BidIncrements != nil {
			st.BidIncrements = snap.BidIncrements
		}
		if snap.AutoIncrementRules != nil {
			st.AutoIncrementRules = snap.AutoIncrementRules
		}
	})
}

// ApplyEvent installs a forwarded discrete event without touching other
// fields. Used for direct EVENT dispatch.
func (s *Store) ApplyEvent(evt Event) {
	s.update(func(st *State) {
		e := evt
		st.LastEvent = &e
		st.LastEventID = e.ID
	})
}

func effectiveTeam(explicit, current *uuid.UUID) any {
	if explicit != nil {
		return *explicit
	}
	if current != nil {
		return *current
	}
	return nil
}

package auction

import (
	"github.com/google/uuid"

	"github.com/bwpl/auctioneer/go/internal/models"
)

// View identifies which presentation screen is shown.
type View string

const (
	ViewAuction View = "auction"
	ViewTeams   View = "teams"
	ViewPool    View = "pool"
	ViewSplash  View = "splash"
	ViewBreak   View = "break"
)

// PoolFilter values for the pool view.
const (
	PoolFilterAll       = "all"
	PoolFilterAvailable = "available"
	PoolFilterSold      = "sold"
	PoolFilterUnsold    = "unsold"
)

// State is one browsing context's copy of the auction. Each context owns its
// own instance; copies are reconciled only through serialized messages, never
// shared memory. Slice fields are replaced wholesale by mutators, never
// mutated in place, so value copies of State are safe to hand out.
type State struct {
	// Lifecycle. IsPaused is only meaningful while IsLive.
	IsLive           bool
	IsPaused         bool
	AuctionStartedAt int64 // unix milliseconds, zero until the auction starts

	// Current lot.
	CurrentPlayerID      *uuid.UUID
	CurrentBid           int64
	CurrentBiddingTeamID *uuid.UUID

	// Presentation control.
	ActiveView View

	// Most recent event. LastEventID exists separately so change detection
	// never depends on deep equality of the payload.
	LastEvent   *Event
	LastEventID string

	// Manual lot ordering.
	PlayerQueue []uuid.UUID
	QueueIndex  int

	// Round tracking.
	CurrentRound int
	CurrentTier  string

	SoundEnabled bool

	// Pool view filters; ephemeral, never synced or persisted.
	PoolFilter     string
	PoolTierFilter string

	// Operator-configurable bidding tables.
	BidIncrements      []int64
	AutoIncrementRules []models.AutoIncrementRule
}

func newInitialState() State {
	cfg := models.DefaultAuctionConfig()
	return State{
		ActiveView:         ViewSplash,
		CurrentRound:       1,
		SoundEnabled:       true,
		PoolFilter:         PoolFilterAll,
		BidIncrements:      cfg.BidIncrements,
		AutoIncrementRules: cfg.AutoIncrementRules,
	}
}

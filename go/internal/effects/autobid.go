package effects

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bwpl/auctioneer/go/internal/auction"
	"github.com/bwpl/auctioneer/go/internal/auction/rules"
	"github.com/bwpl/auctioneer/go/internal/models"
)

// ErrNoCurrentLot is returned when a bid action fires with no lot on the block.
var ErrNoCurrentLot = errors.New("no player on the block")

// TeamDirectory resolves team records for affordability checks.
type TeamDirectory interface {
	Team(id uuid.UUID) (models.Team, bool)
	Teams() []models.Team
}

// AutoBidder implements the operator's one-click flow: clicking a team
// highlights it and, if the team can carry the stepped-up bid, raises the
// bid on its behalf in the same action. An unaffordable step still
// highlights, so the operator sees who was clicked.
type AutoBidder struct {
	store *auction.Store
	teams TeamDirectory

	mu     sync.RWMutex
	config models.AuctionConfig
}

// NewAutoBidder wires the assisted-bid flow.
func NewAutoBidder(store *auction.Store, teams TeamDirectory, cfg models.AuctionConfig) *AutoBidder {
	return &AutoBidder{store: store, teams: teams, config: cfg}
}

// SetConfig swaps in new league rules, e.g. after a config import.
func (a *AutoBidder) SetConfig(cfg models.AuctionConfig) {
	a.mu.Lock()
	a.config = cfg
	a.mu.Unlock()
}

func (a *AutoBidder) leagueConfig() models.AuctionConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// ClickTeam raises the bid for a team if it can afford the next step.
// Returns the applied increment, or 0 with a nil error when the team was
// highlighted without a raise.
func (a *AutoBidder) ClickTeam(teamID uuid.UUID) (int64, error) {
	st := a.store.State()
	if st.CurrentPlayerID == nil {
		return 0, ErrNoCurrentLot
	}
	team, ok := a.teams.Team(teamID)
	if !ok {
		return 0, fmt.Errorf("unknown team %s", teamID)
	}

	increment := a.store.NextIncrement()
	newBid := st.CurrentBid + increment

	cfg := a.leagueConfig()
	if err := rules.CanAfford(&team, newBid, &cfg); err != nil {
		log.Debug().
			Str("team_id", teamID.String()).
			Int64("bid", newBid).
			Err(err).
			Msg("highlight without raise")
		a.store.HighlightTeam(teamID)
		return 0, nil
	}

	a.store.HighlightTeam(teamID)
	a.store.IncrementBid(increment, &teamID)
	return increment, nil
}

// QuickBid raises the bid by a fixed amount on behalf of whichever team is
// currently highlighted, or with no team at all.
func (a *AutoBidder) QuickBid(amount int64) error {
	st := a.store.State()
	if st.CurrentPlayerID == nil {
		return ErrNoCurrentLot
	}
	a.store.IncrementBid(amount, st.CurrentBiddingTeamID)
	return nil
}

// CheckSale verifies the highlighted team can actually pay the hammer price
// before the sale is committed to storage.
func (a *AutoBidder) CheckSale() error {
	st := a.store.State()
	if st.CurrentPlayerID == nil {
		return ErrNoCurrentLot
	}
	if st.CurrentBiddingTeamID == nil {
		return errors.New("no team highlighted for sale")
	}
	team, ok := a.teams.Team(*st.CurrentBiddingTeamID)
	if !ok {
		return fmt.Errorf("unknown team %s", *st.CurrentBiddingTeamID)
	}
	cfg := a.leagueConfig()
	return rules.CanAfford(&team, st.CurrentBid, &cfg)
}

// Affordability reports which teams could match the current bid, for the
// operator's side panel.
func (a *AutoBidder) Affordability() rules.AffordabilityReport {
	st := a.store.State()
	cfg := a.leagueConfig()
	return rules.AggregateAffordability(a.teams.Teams(), st.CurrentBid, &cfg)
}

package effects

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bwpl/auctioneer/go/internal/auction"
)

// KeyActions are the operator hooks a keystroke can reach. Sold and Unsold
// involve storage writes, so the host wires them; everything else acts on
// the store directly. BasePrice resolves a queued player's opening bid.
// InputFocused, when set, suppresses all dispatch while the operator is
// typing into a form field.
type KeyActions struct {
	Sold         func() error
	Unsold       func() error
	BasePrice    func(playerID uuid.UUID) int64
	InputFocused func() bool
}

// Keymap dispatches operator keystrokes to auction actions. The admin UI
// forwards raw key values.
type Keymap struct {
	store   *auction.Store
	bidder  *AutoBidder
	actions KeyActions
}

// NewKeymap wires the operator shortcut table.
func NewKeymap(store *auction.Store, bidder *AutoBidder, actions KeyActions) *Keymap {
	return &Keymap{store: store, bidder: bidder, actions: actions}
}

// Handle dispatches one keystroke. Returns true when the key was consumed.
func (k *Keymap) Handle(key string) bool {
	if k.actions.InputFocused != nil && k.actions.InputFocused() {
		return false
	}
	st := k.store.State()

	switch key {
	case " ":
		// Space toggles pause, but only while live.
		if !st.IsLive {
			return false
		}
		if st.IsPaused {
			k.store.ResumeAuction()
		} else {
			k.store.PauseAuction()
		}
		return true

	case "Enter":
		if st.CurrentPlayerID == nil || st.CurrentBiddingTeamID == nil {
			return false
		}
		if k.actions.Sold != nil {
			if err := k.actions.Sold(); err != nil {
				log.Warn().Err(err).Msg("sold shortcut failed")
			}
		}
		return true

	case "Escape":
		if st.CurrentPlayerID == nil {
			return false
		}
		k.store.ClearCurrentPlayer()
		return true

	case "u", "U":
		if st.CurrentPlayerID == nil {
			return false
		}
		if k.actions.Unsold != nil {
			if err := k.actions.Unsold(); err != nil {
				log.Warn().Err(err).Msg("unsold shortcut failed")
			}
		}
		return true

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if st.CurrentPlayerID == nil || k.bidder == nil {
			return false
		}
		idx := int(key[0] - '1')
		teams := k.bidder.teams.Teams()
		if idx >= len(teams) {
			return false
		}
		if _, err := k.bidder.ClickTeam(teams[idx].ID); err != nil {
			log.Warn().Err(err).Msg("team shortcut failed")
		}
		return true

	case "ArrowDown":
		return k.selectFromQueue(k.store.NextInQueue)

	case "ArrowUp":
		return k.selectFromQueue(k.store.PrevInQueue)

	case "+", "=":
		if st.CurrentPlayerID == nil || len(st.BidIncrements) == 0 {
			return false
		}
		k.store.IncrementBid(st.BidIncrements[0], st.CurrentBiddingTeamID)
		return true
	}
	return false
}

func (k *Keymap) selectFromQueue(step func() (uuid.UUID, bool)) bool {
	id, ok := step()
	if !ok {
		return false
	}
	var base int64
	if k.actions.BasePrice != nil {
		base = k.actions.BasePrice(id)
	}
	k.store.SelectPlayer(id, base)
	return true
}

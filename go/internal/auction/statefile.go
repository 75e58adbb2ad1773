package auction

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"

	"github.com/bwpl/auctioneer/go/internal/models"
)

// persistedState is the subset of State that survives a restart. The last
// event is deliberately absent: a reload is a legitimate reason to lose
// "replay the last animation".
type persistedState struct {
	IsLive               bool                       `json:"isLive"`
	IsPaused             bool                       `json:"isPaused"`
	AuctionStartedAt     int64                      `json:"auctionStartedAt"`
	CurrentPlayerID      *uuid.UUID                 `json:"currentPlayerId"`
	CurrentBid           int64                      `json:"currentBid"`
	CurrentBiddingTeamID *uuid.UUID                 `json:"currentBiddingTeamId"`
	ActiveView           View                       `json:"activeView"`
	PlayerQueue          []uuid.UUID                `json:"playerQueue"`
	QueueIndex           int                        `json:"queueIndex"`
	CurrentRound         int                        `json:"currentRound"`
	CurrentTier          string                     `json:"currentTier"`
	SoundEnabled         bool                       `json:"soundEnabled"`
	BidIncrements        []int64                    `json:"bidIncrements"`
	AutoIncrementRules   []models.AutoIncrementRule `json:"autoIncrementRules"`
}

// SaveState writes the persistable subset of the store's state to path.
func SaveState(path string, s *Store) error {
	st := s.State()
	p := persistedState{
		IsLive:               st.IsLive,
		IsPaused:             st.IsPaused,
		AuctionStartedAt:     st.AuctionStartedAt,
		CurrentPlayerID:      st.CurrentPlayerID,
		CurrentBid:           st.CurrentBid,
		CurrentBiddingTeamID: st.CurrentBiddingTeamID,
		ActiveView:           st.ActiveView,
		PlayerQueue:          st.PlayerQueue,
		QueueIndex:           st.QueueIndex,
		CurrentRound:         st.CurrentRound,
		CurrentTier:          st.CurrentTier,
		SoundEnabled:         st.SoundEnabled,
		BidIncrements:        st.BidIncrements,
		AutoIncrementRules:   st.AutoIncrementRules,
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// LoadState reads a previously saved state. The returned state always has an
// empty last event. The second return is false when no state file exists.
func LoadState(path string) (State, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("read state file: %w", err)
	}

	var p persistedState
	if err := json.Unmarshal(data, &p); err != nil {
		return State{}, false, fmt.Errorf("parse state file: %w", err)
	}

	st := newInitialState()
	st.IsLive = p.IsLive
	st.IsPaused = p.IsPaused
	st.AuctionStartedAt = p.AuctionStartedAt
	st.CurrentPlayerID = p.CurrentPlayerID
	st.CurrentBid = p.CurrentBid
	st.CurrentBiddingTeamID = p.CurrentBiddingTeamID
	if p.ActiveView != "" {
		st.ActiveView = p.ActiveView
	}
	st.PlayerQueue = p.PlayerQueue
	st.QueueIndex = p.QueueIndex
	if p.CurrentRound > 0 {
		st.CurrentRound = p.CurrentRound
	}
	st.CurrentTier = p.CurrentTier
	st.SoundEnabled = p.SoundEnabled
	if p.BidIncrements != nil {
		st.BidIncrements = p.BidIncrements
	}
	if p.AutoIncrementRules != nil {
		st.AutoIncrementRules = p.AutoIncrementRules
	}
	return st, true, nil
}

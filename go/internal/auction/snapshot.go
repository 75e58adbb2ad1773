package auction

import (
	"github.com/google/uuid"

	"github.com/bwpl/auctioneer/go/internal/models"
)

// Snapshot is the reconciliation-relevant subset of State carried by a
// STATE_SYNC message: everything a follower needs to mirror the auction,
// minus the ephemeral pool filters. JSON field names match the original
// browser wire format.
type Snapshot struct {
	IsLive               bool                       `json:"isLive"`
	IsPaused             bool                       `json:"isPaused"`
	CurrentPlayerID      *uuid.UUID                 `json:"currentPlayerId"`
	CurrentBid           int64                      `json:"currentBid"`
	CurrentBiddingTeamID *uuid.UUID                 `json:"currentBiddingTeamId"`
	ActiveView           View                       `json:"activeView"`
	PlayerQueue          []uuid.UUID                `json:"playerQueue"`
	QueueIndex           int                        `json:"queueIndex"`
	CurrentRound         int                        `json:"currentRound"`
	CurrentTier          string                     `json:"currentTier"`
	SoundEnabled         bool                       `json:"soundEnabled"`
	LastEvent            *Event                     `json:"lastEvent"`
	LastEventID          string                     `json:"lastEventId"`
	BidIncrements        []int64                    `json:"bidIncrements"`
	AutoIncrementRules   []models.AutoIncrementRule `json:"autoIncrementRules"`
}

func snapshotOf(st State) Snapshot {
	return Snapshot{
		IsLive:               st.IsLive,
		IsPaused:             st.IsPaused,
		CurrentPlayerID:      st.CurrentPlayerID,
		CurrentBid:           st.CurrentBid,
		CurrentBiddingTeamID: st.CurrentBiddingTeamID,
		ActiveView:           st.ActiveView,
		PlayerQueue:          st.PlayerQueue,
		QueueIndex:           st.QueueIndex,
		CurrentRound:         st.CurrentRound,
		CurrentTier:          st.CurrentTier,
		SoundEnabled:         st.SoundEnabled,
		LastEvent:            st.LastEvent,
		LastEventID:          st.LastEventID,
		BidIncrements:        st.BidIncrements,
		AutoIncrementRules:   st.AutoIncrementRules,
	}
}

// SyncWorthyChange reports whether a state transition should trigger a full
// broadcast from the authority side. This is change detection by field
// comparison, not by event type: it catches fields changed through paths that
// did not stamp a new event.
func SyncWorthyChange(prev, next State) bool {
	return prev.LastEventID != next.LastEventID ||
		!uuidPtrEqual(prev.CurrentPlayerID, next.CurrentPlayerID) ||
		prev.CurrentBid != next.CurrentBid ||
		!uuidPtrEqual(prev.CurrentBiddingTeamID, next.CurrentBiddingTeamID) ||
		prev.ActiveView != next.ActiveView ||
		prev.IsLive != next.IsLive ||
		prev.IsPaused != next.IsPaused
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

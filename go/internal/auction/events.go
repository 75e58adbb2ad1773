package auction

import (
	"github.com/google/uuid"
)

// EventType identifies an auction-visible milestone. The slash-separated
// values double as the wire representation.
type EventType string

const (
	EventAuctionStart  EventType = "auction/start"
	EventAuctionPause  EventType = "auction/pause"
	EventAuctionResume EventType = "auction/resume"
	EventAuctionEnd    EventType = "auction/end"
	EventAuctionReset  EventType = "auction/reset"
	EventPlayerSelect  EventType = "player/select"
	EventPlayerSold    EventType = "player/sold"
	EventPlayerUnsold  EventType = "player/unsold"
	EventBidUpdate     EventType = "bid/update"
	EventBidHighlight  EventType = "bid/highlight"
	EventViewChange    EventType = "view/change"
	EventSoundPlay     EventType = "sound/play"
)

// Event is the immutable record of a single state-mutating action. Exactly
// one event is kept in state at a time; the next event supersedes it, it is
// never mutated. Two events with identical payloads still differ by ID, which
// is what change detection keys off.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Payload   map[string]any `json:"payload"`
	Timestamp int64          `json:"timestamp"` // unix milliseconds
}

// PayloadUUID reads a uuid-valued payload field. Payload values arrive as
// uuid.UUID in-process and as strings after a wire round trip; both decode.
func (e *Event) PayloadUUID(key string) (uuid.UUID, bool) {
	if e == nil || e.Payload == nil {
		return uuid.Nil, false
	}
	switch v := e.Payload[key].(type) {
	case uuid.UUID:
		return v, true
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, false
		}
		return id, true
	default:
		return uuid.Nil, false
	}
}

// PayloadInt64 reads a numeric payload field, tolerating the float64 that
// encoding/json produces for numbers.
func (e *Event) PayloadInt64(key string) (int64, bool) {
	if e == nil || e.Payload == nil {
		return 0, false
	}
	switch v := e.Payload[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// PayloadString reads a string payload field.
func (e *Event) PayloadString(key string) (string, bool) {
	if e == nil || e.Payload == nil {
		return "", false
	}
	s, ok := e.Payload[key].(string)
	return s, ok
}

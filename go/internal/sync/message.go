// Package sync keeps independently-running auction contexts consistent. The
// admin context is the authority and rebroadcasts a full snapshot on every
// sync-worthy change; presentation contexts are followers that request a
// snapshot on attach and otherwise only apply what arrives. Contexts share no
// memory: everything crosses a Transport as a serialized Message.
package sync

import (
	"encoding/json"
	"fmt"

	"github.com/bwpl/auctioneer/go/internal/auction"
)

// Role identifies which side of the auction a context plays. It is used only
// to reject self-originated echoes, never for authority arbitration.
type Role string

const (
	RoleAdmin        Role = "admin"
	RolePresentation Role = "presentation"
)

// MessageType discriminates the wire union.
type MessageType string

const (
	// MsgStateSync carries a full snapshot for reconciliation.
	MsgStateSync MessageType = "STATE_SYNC"
	// MsgEvent forwards one discrete event without surrounding state.
	MsgEvent MessageType = "EVENT"
	// MsgDataUpdated signals "re-fetch records from storage"; it carries no data.
	MsgDataUpdated MessageType = "DATA_UPDATED"
	// MsgRequestSync is a follower's request for a fresh snapshot.
	MsgRequestSync MessageType = "REQUEST_SYNC"
)

// Message is the JSON-serializable envelope passed over the channel.
type Message struct {
	Type      MessageType     `json:"type"`
	Source    Role            `json:"source"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// NewStateSync builds a STATE_SYNC message from a snapshot.
func NewStateSync(source Role, snap auction.Snapshot, ts int64) (Message, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return Message{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	return Message{Type: MsgStateSync, Source: source, Payload: payload, Timestamp: ts}, nil
}

// NewEvent builds an EVENT message from a discrete event.
func NewEvent(source Role, evt auction.Event, ts int64) (Message, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return Message{}, fmt.Errorf("marshal event: %w", err)
	}
	return Message{Type: MsgEvent, Source: source, Payload: payload, Timestamp: ts}, nil
}

// NewDataUpdated builds a DATA_UPDATED signal.
func NewDataUpdated(source Role, ts int64) Message {
	return Message{Type: MsgDataUpdated, Source: source, Timestamp: ts}
}

// NewRequestSync builds a follower's REQUEST_SYNC.
func NewRequestSync(source Role, ts int64) Message {
	return Message{Type: MsgRequestSync, Source: source, Timestamp: ts}
}

// DecodeSnapshot parses a STATE_SYNC payload.
func DecodeSnapshot(msg Message) (auction.Snapshot, error) {
	var snap auction.Snapshot
	if err := json.Unmarshal(msg.Payload, &snap); err != nil {
		return auction.Snapshot{}, fmt.Errorf("decode snapshot payload: %w", err)
	}
	return snap, nil
}

// DecodeEvent parses an EVENT payload.
func DecodeEvent(msg Message) (auction.Event, error) {
	var evt auction.Event
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return auction.Event{}, fmt.Errorf("decode event payload: %w", err)
	}
	return evt, nil
}

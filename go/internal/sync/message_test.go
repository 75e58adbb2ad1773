package sync

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bwpl/auctioneer/go/internal/auction"
	"github.com/bwpl/auctioneer/go/internal/models"
)

func TestStateSyncRoundTrip(t *testing.T) {
	lot := uuid.New()
	team := uuid.New()
	snap := auction.Snapshot{
		IsLive:                true,
		CurrentPlayerID:       &lot,
		CurrentBid:            1_500_000,
		CurrentBiddingTeamID:  &team,
		ActiveView:            auction.ViewAuction,
		LastEventID:           "evt_42",
		CurrentRound:          2,
		SoundEnabled:          true,
		AutoIncrementRules: []models.AutoIncrementRule{
			{UpTo: models.Int64Ptr(2_000_000), Increment: 100_000},
			{UpTo: nil, Increment: 250_000},
		},
	}

	msg, err := NewStateSync(RoleAdmin, snap, 123)
	require.NoError(t, err)

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, MsgStateSync, decoded.Type)
	assert.Equal(t, RoleAdmin, decoded.Source)

	got, err := DecodeSnapshot(decoded)
	require.NoError(t, err)
	assert.Equal(t, snap.CurrentBid, got.CurrentBid)
	require.NotNil(t, got.CurrentPlayerID)
	assert.Equal(t, lot, *got.CurrentPlayerID)

	// The open-ended rule keeps its nil bound across the wire.
	require.Len(t, got.AutoIncrementRules, 2)
	require.NotNil(t, got.AutoIncrementRules[0].UpTo)
	assert.Equal(t, int64(2_000_000), *got.AutoIncrementRules[0].UpTo)
	assert.Nil(t, got.AutoIncrementRules[1].UpTo)
}

func TestOpenEndedRuleSerializesAsNull(t *testing.T) {
	data, err := json.Marshal(models.AutoIncrementRule{UpTo: nil, Increment: 250_000})
	require.NoError(t, err)
	assert.JSONEq(t, `{"upTo":null,"increment":250000}`, string(data))
}

func TestEventRoundTrip(t *testing.T) {
	lot := uuid.New()
	evt := auction.Event{
		ID:        "evt_7",
		Type:      auction.EventPlayerSold,
		Payload:   map[string]any{"playerId": lot.String(), "price": float64(80_000)},
		Timestamp: 456,
	}

	msg, err := NewEvent(RolePresentation, evt, 456)
	require.NoError(t, err)

	got, err := DecodeEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, evt.ID, got.ID)
	assert.Equal(t, evt.Type, got.Type)

	gotLot, ok := got.PayloadUUID("playerId")
	require.True(t, ok)
	assert.Equal(t, lot, gotLot)
	price, ok := got.PayloadInt64("price")
	require.True(t, ok)
	assert.Equal(t, int64(80_000), price)
}

func TestSignalMessagesCarryNoPayload(t *testing.T) {
	for _, msg := range []Message{
		NewDataUpdated(RoleAdmin, 1),
		NewRequestSync(RolePresentation, 2),
	} {
		data, err := json.Marshal(msg)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "payload")
	}
}

func TestDecodeMalformedPayloadFails(t *testing.T) {
	bad := Message{Type: MsgStateSync, Source: RoleAdmin, Payload: json.RawMessage(`{"isLive":"yes"`)}
	_, err := DecodeSnapshot(bad)
	assert.Error(t, err)

	_, err = DecodeEvent(Message{Type: MsgEvent, Payload: json.RawMessage(`[1,2]`)})
	assert.Error(t, err)
}

package sync

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bwpl/auctioneer/go/internal/auction"
)

type countingFetcher struct {
	calls int
}

func (f *countingFetcher) Refresh(ctx context.Context) error {
	f.calls++
	return nil
}

func newSyncedPair(t *testing.T) (admin, follower *auction.Store, adminAd, followerAd *Adapter) {
	t.Helper()
	bus := NewMemBus()

	admin = auction.NewStore(
		auction.WithIDGenerator(&auction.SequenceGenerator{}),
		auction.WithClock(clockwork.NewFakeClock()),
	)
	follower = auction.NewStore(
		auction.WithIDGenerator(&auction.SequenceGenerator{}),
		auction.WithClock(clockwork.NewFakeClock()),
	)

	adminAd = NewAdapter(RoleAdmin, admin, bus.Endpoint())
	followerAd = NewAdapter(RolePresentation, follower, bus.Endpoint())

	ctx := context.Background()
	adminAd.Attach(ctx)
	followerAd.Attach(ctx)
	t.Cleanup(adminAd.Detach)
	t.Cleanup(followerAd.Detach)
	return admin, follower, adminAd, followerAd
}

func TestAdminChangePropagatesToFollower(t *testing.T) {
	admin, follower, _, _ := newSyncedPair(t)

	lot := uuid.New()
	admin.StartAuction()
	admin.SelectPlayer(lot, 50_000)

	st := follower.State()
	assert.True(t, st.IsLive)
	require.NotNil(t, st.CurrentPlayerID)
	assert.Equal(t, lot, *st.CurrentPlayerID)
	assert.Equal(t, int64(50_000), st.CurrentBid)
	assert.Equal(t, admin.State().LastEventID, st.LastEventID)
}

func TestDuplicateSnapshotAppliedOnce(t *testing.T) {
	_, follower, _, followerAd := newSyncedPair(t)

	lot := uuid.New()
	snap := auction.Snapshot{
		IsLive:          true,
		CurrentPlayerID: &lot,
		CurrentBid:      30_000,
		LastEventID:     "evt_dup_1",
	}
	msg, err := NewStateSync(RoleAdmin, snap, 1)
	require.NoError(t, err)

	followerAd.handle(msg)
	require.Equal(t, int64(30_000), follower.State().CurrentBid)

	// Redelivery with the same id must not reapply after local divergence.
	follower.UpdateBid(99_000, nil)
	followerAd.handle(msg)
	assert.Equal(t, int64(99_000), follower.State().CurrentBid)
}

func TestSelfEchoDropped(t *testing.T) {
	_, follower, _, followerAd := newSyncedPair(t)

	snap := auction.Snapshot{IsLive: true, LastEventID: "evt_echo_1"}
	msg, err := NewStateSync(RolePresentation, snap, 1)
	require.NoError(t, err)

	followerAd.handle(msg)
	assert.False(t, follower.State().IsLive, "own messages must never be applied")
}

func TestSelfEchoCheckedBeforeDedup(t *testing.T) {
	_, follower, _, followerAd := newSyncedPair(t)

	echo, err := NewStateSync(RolePresentation, auction.Snapshot{LastEventID: "evt_shared"}, 1)
	require.NoError(t, err)
	followerAd.handle(echo)

	// The echoed id must not poison dedup for the real message.
	real, err := NewStateSync(RoleAdmin, auction.Snapshot{IsLive: true, LastEventID: "evt_shared"}, 2)
	require.NoError(t, err)
	followerAd.handle(real)

	assert.True(t, follower.State().IsLive)
}

func TestSnapshotWithoutEventIDAppliesUnconditionally(t *testing.T) {
	_, follower, _, followerAd := newSyncedPair(t)

	msg, err := NewStateSync(RoleAdmin, auction.Snapshot{CurrentBid: 10_000}, 1)
	require.NoError(t, err)

	followerAd.handle(msg)
	followerAd.handle(msg)
	assert.Equal(t, int64(10_000), follower.State().CurrentBid)
}

func TestRequestSyncAnsweredOnlyByAdmin(t *testing.T) {
	bus := NewMemBus()
	admin := auction.NewStore(auction.WithIDGenerator(&auction.SequenceGenerator{}))
	admin.StartAuction()

	adminAd := NewAdapter(RoleAdmin, admin, bus.Endpoint())
	adminAd.Attach(context.Background())
	defer adminAd.Detach()

	follower := auction.NewStore(auction.WithIDGenerator(&auction.SequenceGenerator{}))
	followerAd := NewAdapter(RolePresentation, follower, bus.Endpoint())

	// Attach sends REQUEST_SYNC, which the admin answers synchronously on
	// the in-memory bus.
	followerAd.Attach(context.Background())
	defer followerAd.Detach()

	assert.True(t, follower.State().IsLive)
}

func TestFollowerDoesNotAnswerRequestSync(t *testing.T) {
	bus := NewMemBus()
	follower := auction.NewStore(auction.WithIDGenerator(&auction.SequenceGenerator{}))
	follower.StartAuction()
	followerAd := NewAdapter(RolePresentation, follower, bus.Endpoint())
	followerAd.Attach(context.Background())
	defer followerAd.Detach()

	probe := bus.Endpoint()
	var got []Message
	probe.SetHandler(func(m Message) { got = append(got, m) })

	require.NoError(t, probe.Send(NewRequestSync(RoleAdmin, 1)))
	assert.Empty(t, got, "followers are not sources of truth")
}

func TestDataUpdatedRefreshesOnlyPresentation(t *testing.T) {
	bus := NewMemBus()

	adminFetch := &countingFetcher{}
	admin := auction.NewStore(auction.WithIDGenerator(&auction.SequenceGenerator{}))
	adminAd := NewAdapter(RoleAdmin, admin, bus.Endpoint(), WithFetcher(adminFetch))
	adminAd.Attach(context.Background())
	defer adminAd.Detach()

	followerFetch := &countingFetcher{}
	follower := auction.NewStore(auction.WithIDGenerator(&auction.SequenceGenerator{}))
	followerAd := NewAdapter(RolePresentation, follower, bus.Endpoint(), WithFetcher(followerFetch))
	followerAd.Attach(context.Background())
	defer followerAd.Detach()
	followerFetch.calls = 0 // discard the attach-time fetch

	adminAd.BroadcastDataUpdated()

	assert.Equal(t, 1, followerFetch.calls)
	assert.Zero(t, adminFetch.calls, "the writer already has fresh data")
}

func TestEphemeralChangeNotBroadcast(t *testing.T) {
	bus := NewMemBus()
	admin := auction.NewStore(auction.WithIDGenerator(&auction.SequenceGenerator{}))
	adminAd := NewAdapter(RoleAdmin, admin, bus.Endpoint())
	adminAd.Attach(context.Background())
	defer adminAd.Detach()

	probe := bus.Endpoint()
	var got []Message
	probe.SetHandler(func(m Message) { got = append(got, m) })

	admin.SetPoolFilter(auction.PoolFilterSold)
	admin.ToggleSound()
	assert.Empty(t, got, "local-only fields do not cross the channel")

	admin.StartAuction()
	require.Len(t, got, 1)
	assert.Equal(t, MsgStateSync, got[0].Type)
}

func TestEventBroadcastAppliedWithDedup(t *testing.T) {
	admin, follower, adminAd, _ := newSyncedPair(t)

	evt := auction.Event{ID: "evt_sound_1", Type: auction.EventSoundPlay, Payload: map[string]any{"soundId": "gavel"}}
	adminAd.BroadcastEvent(evt)

	assert.Equal(t, "evt_sound_1", admin.State().LastEventID)
	assert.Equal(t, "evt_sound_1", follower.State().LastEventID)
}

func TestEventBroadcastFillsMissingID(t *testing.T) {
	admin, follower, adminAd, _ := newSyncedPair(t)

	adminAd.BroadcastEvent(auction.Event{Type: auction.EventSoundPlay, Payload: map[string]any{"soundId": "gavel"}})

	id := admin.State().LastEventID
	require.NotEmpty(t, id, "a forwarded event must always carry an id")
	assert.Equal(t, id, follower.State().LastEventID)
	assert.NotZero(t, follower.State().LastEvent.Timestamp)
}

func TestDetachedAdapterSkipsDataRefetch(t *testing.T) {
	bus := NewMemBus()
	fetch := &countingFetcher{}
	follower := auction.NewStore(auction.WithIDGenerator(&auction.SequenceGenerator{}))
	followerAd := NewAdapter(RolePresentation, follower, bus.Endpoint(), WithFetcher(fetch))
	followerAd.Attach(context.Background())
	followerAd.Detach()
	fetch.calls = 0

	followerAd.handle(NewDataUpdated(RoleAdmin, 1))
	assert.Zero(t, fetch.calls, "a detached adapter must not fetch")
}

func TestNilTransportDegradesToPolling(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fetch := &countingFetcher{}
	store := auction.NewStore(auction.WithIDGenerator(&auction.SequenceGenerator{}))

	a := NewAdapter(RolePresentation, store, nil,
		WithFetcher(fetch),
		WithAdapterClock(clock),
	)
	a.Attach(context.Background())
	defer a.Detach()

	clock.BlockUntilContext(context.Background(), 1)
	clock.Advance(DefaultPollInterval)
	clock.BlockUntilContext(context.Background(), 1)

	assert.GreaterOrEqual(t, fetch.calls, 1)
	a.BroadcastState() // must be a no-op, not a panic
}

func TestDetachStopsBroadcasting(t *testing.T) {
	bus := NewMemBus()
	admin := auction.NewStore(auction.WithIDGenerator(&auction.SequenceGenerator{}))
	adminAd := NewAdapter(RoleAdmin, admin, bus.Endpoint())
	adminAd.Attach(context.Background())

	probe := bus.Endpoint()
	var got int
	probe.SetHandler(func(Message) { got++ })

	admin.StartAuction()
	require.Equal(t, 1, got)

	adminAd.Detach()
	admin.PauseAuction()
	assert.Equal(t, 1, got)
}

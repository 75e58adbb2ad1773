package effects

import (
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bwpl/auctioneer/go/internal/auction"
	"github.com/bwpl/auctioneer/go/internal/models"
)

func newTestStore() *auction.Store {
	return auction.NewStore(
		auction.WithIDGenerator(&auction.SequenceGenerator{}),
		auction.WithClock(clockwork.NewFakeClock()),
	)
}

type memDirectory struct {
	teams []models.Team
}

func (d *memDirectory) Team(id uuid.UUID) (models.Team, bool) {
	for _, t := range d.teams {
		if t.ID == id {
			return t, true
		}
	}
	return models.Team{}, false
}

func (d *memDirectory) Teams() []models.Team { return d.teams }

func roster(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func TestSoundBridgeFiresOncePerEvent(t *testing.T) {
	store := newTestStore()
	var cues []string
	b := NewSoundBridge(store, PlayerFunc(func(id string) { cues = append(cues, id) }))
	b.Attach()
	defer b.Detach()

	store.SelectPlayer(uuid.New(), 10_000)
	require.Equal(t, []string{"playerSelect"}, cues)

	// Non-event mutators must not replay the last cue.
	store.SetCurrentRound(2)
	store.SetPoolFilter(auction.PoolFilterSold)
	assert.Equal(t, []string{"playerSelect"}, cues)
}

func TestSoundBridgeHonorsMute(t *testing.T) {
	store := newTestStore()
	var cues []string
	b := NewSoundBridge(store, PlayerFunc(func(id string) { cues = append(cues, id) }))
	b.Attach()
	defer b.Detach()

	store.SetSound(false)
	store.SelectPlayer(uuid.New(), 10_000)
	assert.Empty(t, cues)

	store.SetSound(true)
	store.IncrementBid(5_000, nil)
	assert.Equal(t, []string{"bidUpdate"}, cues)
}

func TestSoundBridgeAdHocCue(t *testing.T) {
	store := newTestStore()
	var cues []string
	b := NewSoundBridge(store, PlayerFunc(func(id string) { cues = append(cues, id) }))
	b.Attach()
	defer b.Detach()

	store.PlaySound("success")
	assert.Equal(t, []string{"success"}, cues)
}

func TestOverlayShowsAndHidesSold(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := newTestStore()
	o := NewOverlayController(store, WithOverlayClock(clock))
	o.Attach()
	defer o.Detach()

	lot := uuid.New()
	team := uuid.New()
	store.SelectPlayer(lot, 50_000)
	store.MarkSold(lot, team, 80_000)

	ov := o.Current()
	require.NotNil(t, ov)
	assert.Equal(t, OverlaySold, ov.Kind)
	assert.Equal(t, lot, ov.PlayerID)
	assert.Equal(t, int64(80_000), ov.Price)

	// The lot stays on the block while the banner is up.
	require.NotNil(t, store.State().CurrentPlayerID)

	clock.BlockUntilContext(t.Context(), 1)
	clock.Advance(DefaultOverlayConfig().SoldDuration)

	require.Eventually(t, func() bool { return o.Current() == nil }, time.Second, time.Millisecond)
	assert.Nil(t, store.State().CurrentPlayerID, "hiding a sold banner clears the lot")
}

func TestOverlayUnsoldDoesNotClearLot(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := newTestStore()
	o := NewOverlayController(store, WithOverlayClock(clock))
	o.Attach()
	defer o.Detach()

	lot := uuid.New()
	store.SelectPlayer(lot, 50_000)
	store.MarkUnsold(lot)

	ov := o.Current()
	require.NotNil(t, ov)
	assert.Equal(t, OverlayUnsold, ov.Kind)

	clock.BlockUntilContext(t.Context(), 1)
	clock.Advance(DefaultOverlayConfig().UnsoldDuration)

	require.Eventually(t, func() bool { return o.Current() == nil }, time.Second, time.Millisecond)
	assert.NotNil(t, store.State().CurrentPlayerID, "unsold leaves the lot for the operator")
}

func TestOverlaySupersededTimerStopped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := newTestStore()
	o := NewOverlayController(store, WithOverlayClock(clock))
	o.Attach()
	defer o.Detach()

	lotA, lotB := uuid.New(), uuid.New()
	store.SelectPlayer(lotA, 10_000)
	store.MarkUnsold(lotA)
	firstID := o.Current().EventID

	// A second result lands before the first banner expires; the first
	// banner's timer is stopped, leaving only the second timer armed.
	store.SelectPlayer(lotB, 20_000)
	store.MarkUnsold(lotB)

	clock.BlockUntilContext(t.Context(), 1)
	clock.Advance(DefaultOverlayConfig().UnsoldDuration)

	require.Eventually(t, func() bool { return o.Current() == nil }, time.Second, time.Millisecond)
	assert.NotEqual(t, firstID, o.lastEventID)
}

func TestDetachReleasesArmedOverlayTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := newTestStore()
	o := NewOverlayController(store, WithOverlayClock(clock))
	o.Attach()

	baseline := runtime.NumGoroutine()
	lot := uuid.New()
	store.SelectPlayer(lot, 10_000)
	store.MarkSold(lot, uuid.New(), 20_000)
	require.NotNil(t, o.Current())

	o.Detach()

	// The armed hide goroutine exits on detach instead of waiting out the
	// banner duration.
	require.Eventually(t, func() bool { return runtime.NumGoroutine() <= baseline }, time.Second, time.Millisecond)

	clock.Advance(DefaultOverlayConfig().SoldDuration)
	assert.NotNil(t, store.State().CurrentPlayerID, "a stopped timer must not clear the lot")
}

func TestAutoBidderRaisesForAffordableTeam(t *testing.T) {
	store := newTestStore()
	cfg := models.DefaultAuctionConfig()
	team := models.Team{
		ID:             uuid.New(),
		Name:           "Strikers",
		InitialPurse:   cfg.TotalPursePerTeam,
		RemainingPurse: cfg.TotalPursePerTeam,
	}
	bidder := NewAutoBidder(store, &memDirectory{teams: []models.Team{team}}, cfg)

	store.SelectPlayer(uuid.New(), 100_000)
	inc, err := bidder.ClickTeam(team.ID)
	require.NoError(t, err)
	assert.Positive(t, inc)

	st := store.State()
	assert.Equal(t, 100_000+inc, st.CurrentBid)
	require.NotNil(t, st.CurrentBiddingTeamID)
	assert.Equal(t, team.ID, *st.CurrentBiddingTeamID)
}

func TestAutoBidderHighlightsWithoutRaiseWhenBroke(t *testing.T) {
	store := newTestStore()
	cfg := models.DefaultAuctionConfig()
	team := models.Team{
		ID:             uuid.New(),
		Name:           "Paupers",
		InitialPurse:   cfg.TotalPursePerTeam,
		RemainingPurse: 1_000, // cannot carry any raise
		Players:        roster(5),
	}
	bidder := NewAutoBidder(store, &memDirectory{teams: []models.Team{team}}, cfg)

	store.SelectPlayer(uuid.New(), 100_000)
	before := store.State().CurrentBid

	inc, err := bidder.ClickTeam(team.ID)
	require.NoError(t, err)
	assert.Zero(t, inc)

	st := store.State()
	assert.Equal(t, before, st.CurrentBid, "bid unchanged")
	require.NotNil(t, st.CurrentBiddingTeamID)
	assert.Equal(t, team.ID, *st.CurrentBiddingTeamID, "team still highlighted")
}

func TestAutoBidderNoCurrentLot(t *testing.T) {
	store := newTestStore()
	bidder := NewAutoBidder(store, &memDirectory{}, models.DefaultAuctionConfig())

	_, err := bidder.ClickTeam(uuid.New())
	assert.ErrorIs(t, err, ErrNoCurrentLot)
	assert.ErrorIs(t, bidder.QuickBid(10_000), ErrNoCurrentLot)
}

func TestKeymapSpaceTogglesPauseOnlyWhileLive(t *testing.T) {
	store := newTestStore()
	k := NewKeymap(store, nil, KeyActions{})

	assert.False(t, k.Handle(" "), "space is inert before the auction starts")

	store.StartAuction()
	assert.True(t, k.Handle(" "))
	assert.True(t, store.State().IsPaused)
	assert.True(t, k.Handle(" "))
	assert.False(t, store.State().IsPaused)
}

func TestKeymapNumberKeySelectsTeam(t *testing.T) {
	store := newTestStore()
	cfg := models.DefaultAuctionConfig()
	teams := []models.Team{
		{ID: uuid.New(), Name: "One", InitialPurse: cfg.TotalPursePerTeam, RemainingPurse: cfg.TotalPursePerTeam},
		{ID: uuid.New(), Name: "Two", InitialPurse: cfg.TotalPursePerTeam, RemainingPurse: cfg.TotalPursePerTeam},
	}
	bidder := NewAutoBidder(store, &memDirectory{teams: teams}, cfg)
	k := NewKeymap(store, bidder, KeyActions{})

	store.SelectPlayer(uuid.New(), 50_000)
	require.True(t, k.Handle("2"))

	st := store.State()
	require.NotNil(t, st.CurrentBiddingTeamID)
	assert.Equal(t, teams[1].ID, *st.CurrentBiddingTeamID)

	assert.False(t, k.Handle("9"), "index past the table is ignored")
}

func TestKeymapQueueNavigation(t *testing.T) {
	store := newTestStore()
	a, b := uuid.New(), uuid.New()
	store.SetPlayerQueue([]uuid.UUID{a, b})

	prices := map[uuid.UUID]int64{b: 75_000}
	k := NewKeymap(store, nil, KeyActions{
		BasePrice: func(id uuid.UUID) int64 { return prices[id] },
	})

	require.True(t, k.Handle("ArrowDown"))
	st := store.State()
	require.NotNil(t, st.CurrentPlayerID)
	assert.Equal(t, b, *st.CurrentPlayerID)
	assert.Equal(t, int64(75_000), st.CurrentBid)
}

func TestKeymapSoldRequiresHighlightedTeam(t *testing.T) {
	store := newTestStore()
	called := false
	k := NewKeymap(store, nil, KeyActions{Sold: func() error { called = true; return nil }})

	store.SelectPlayer(uuid.New(), 10_000)
	assert.False(t, k.Handle("Enter"), "no team highlighted")
	assert.False(t, called)

	team := uuid.New()
	store.HighlightTeam(team)
	assert.True(t, k.Handle("Enter"))
	assert.True(t, called)
}

func TestKeymapIgnoredWhileTyping(t *testing.T) {
	store := newTestStore()
	focused := true
	k := NewKeymap(store, nil, KeyActions{
		InputFocused: func() bool { return focused },
	})

	store.StartAuction()
	assert.False(t, k.Handle(" "), "keystrokes in a form field are not shortcuts")
	assert.False(t, store.State().IsPaused)

	focused = false
	assert.True(t, k.Handle(" "))
	assert.True(t, store.State().IsPaused)
}

func TestKeymapEscapeClearsLot(t *testing.T) {
	store := newTestStore()
	k := NewKeymap(store, nil, KeyActions{})

	assert.False(t, k.Handle("Escape"))

	store.SelectPlayer(uuid.New(), 10_000)
	assert.True(t, k.Handle("Escape"))
	assert.Nil(t, store.State().CurrentPlayerID)
}

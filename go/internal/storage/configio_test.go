package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bwpl/auctioneer/go/internal/models"
)

func TestConfigExportRoundTrip(t *testing.T) {
	cfg := models.DefaultAuctionConfig()
	teams := []models.Team{
		{ID: uuid.New(), Name: "Titans", ShortName: "TTN", InitialPurse: cfg.TotalPursePerTeam},
		{ID: uuid.New(), Name: "Royals", ShortName: "RYL", InitialPurse: cfg.TotalPursePerTeam},
	}

	doc := BuildConfigExport(cfg, teams)
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	parsed, err := ParseConfigExport(data)
	require.NoError(t, err)

	got := parsed.ToAuctionConfig()
	assert.Equal(t, cfg.LeagueName, got.LeagueName)
	assert.Equal(t, cfg.TotalPursePerTeam, got.TotalPursePerTeam)
	assert.Equal(t, cfg.Tiers, got.Tiers)
	assert.Equal(t, cfg.BidIncrements, got.BidIncrements)

	// The open-ended auto-increment rule keeps its nil bound.
	rules := got.AutoIncrementRules
	require.NotEmpty(t, rules)
	assert.Nil(t, rules[len(rules)-1].UpTo)

	seeds := parsed.TeamSeeds()
	require.Len(t, seeds, 2)
	assert.Equal(t, "Titans", seeds[0].Name)
	assert.Equal(t, cfg.TotalPursePerTeam, seeds[0].RemainingPurse)
}

func TestConfigExportValidation(t *testing.T) {
	doc := ConfigExport{
		Tournament:    TournamentSection{},
		PurseSettings: PurseSection{DefaultPurse: -1},
		Tiers:         []models.Tier{{ID: "", Name: "", BasePrice: 0}},
		Teams:         []TeamSeed{{Name: "", ShortName: ""}},
	}
	errs := doc.Validate()

	assert.Contains(t, errs, "tournament name is required")
	assert.Contains(t, errs, "default purse must be a positive number")
	assert.Contains(t, errs, "tier 1: missing id")
	assert.Contains(t, errs, "team 1: missing name")
}

func TestParseConfigExportRejectsInvalid(t *testing.T) {
	_, err := ParseConfigExport([]byte(`{"tournament":{"name":"X"}}`))
	assert.Error(t, err)

	_, err = ParseConfigExport([]byte(`not json`))
	assert.Error(t, err)
}

func TestTeamSeedsInheritDefaultPurse(t *testing.T) {
	doc := ConfigExport{
		PurseSettings: PurseSection{DefaultPurse: 5_000_000},
		Teams: []TeamSeed{
			{Name: "Cheap", ShortName: "CHP"},
			{Name: "Rich", ShortName: "RCH", InitialPurse: 12_000_000},
		},
	}
	seeds := doc.TeamSeeds()
	assert.Equal(t, int64(5_000_000), seeds[0].InitialPurse)
	assert.Equal(t, int64(12_000_000), seeds[1].InitialPurse)
}

type fakeSource struct {
	teams   []models.Team
	players []models.Player
	config  models.AuctionConfig
	fail    error
}

func (f *fakeSource) ListTeams(ctx context.Context) ([]models.Team, error) {
	return f.teams, f.fail
}

func (f *fakeSource) ListPlayers(ctx context.Context) ([]models.Player, error) {
	return f.players, f.fail
}

func (f *fakeSource) GetConfig(ctx context.Context) (models.AuctionConfig, error) {
	return f.config, f.fail
}

func TestCacheRefreshAndLookups(t *testing.T) {
	teamID := uuid.New()
	src := &fakeSource{
		teams: []models.Team{{ID: teamID, Name: "Titans"}},
		players: []models.Player{
			{ID: uuid.New(), Name: "A", Status: models.PlayerAvailable},
			{ID: uuid.New(), Name: "B", Status: models.PlayerSold},
			{ID: uuid.New(), Name: "C", Status: models.PlayerUnsold},
			{ID: uuid.New(), Name: "D", Status: models.PlayerRetained, IsRetained: true},
		},
		config: models.DefaultAuctionConfig(),
	}
	cache := NewCache(src)
	assert.False(t, cache.Loaded())

	require.NoError(t, cache.Refresh(context.Background()))
	assert.True(t, cache.Loaded())

	team, ok := cache.Team(teamID)
	require.True(t, ok)
	assert.Equal(t, "Titans", team.Name)

	// Available and unsold players can go back on the block; sold and
	// retained cannot.
	auctionable := cache.AuctionablePlayers()
	require.Len(t, auctionable, 2)

	_, ok = cache.Team(uuid.New())
	assert.False(t, ok)
}

func TestCacheKeepsContentsOnFailedRefresh(t *testing.T) {
	src := &fakeSource{
		teams:  []models.Team{{ID: uuid.New(), Name: "Titans"}},
		config: models.DefaultAuctionConfig(),
	}
	cache := NewCache(src)
	require.NoError(t, cache.Refresh(context.Background()))

	src.fail = assert.AnError
	require.Error(t, cache.Refresh(context.Background()))
	assert.Len(t, cache.Teams(), 1, "stale data beats no data")
}

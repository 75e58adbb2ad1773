package storage

import (
	"context"
	"fmt"
	stdsync "sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bwpl/auctioneer/go/internal/models"
)

// RecordSource is the read surface the cache refreshes from. *Repository
// satisfies it.
type RecordSource interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	ListPlayers(ctx context.Context) ([]models.Player, error)
	GetConfig(ctx context.Context) (models.AuctionConfig, error)
}

// Cache is an in-memory view of the persisted records. The presentation side
// refreshes it on DATA_UPDATED signals; the admin side refreshes it after its
// own writes. Reads never touch the database.
type Cache struct {
	source RecordSource

	mu      stdsync.RWMutex
	teams   []models.Team
	players []models.Player
	config  models.AuctionConfig
	loaded  bool
}

// NewCache creates an empty cache. Call Refresh before first use.
func NewCache(source RecordSource) *Cache {
	return &Cache{source: source, config: models.DefaultAuctionConfig()}
}

// Refresh reloads all three record sets. On partial failure the previous
// contents are kept.
func (c *Cache) Refresh(ctx context.Context) error {
	teams, err := c.source.ListTeams(ctx)
	if err != nil {
		return fmt.Errorf("refresh teams: %w", err)
	}
	players, err := c.source.ListPlayers(ctx)
	if err != nil {
		return fmt.Errorf("refresh players: %w", err)
	}
	cfg, err := c.source.GetConfig(ctx)
	if err != nil {
		return fmt.Errorf("refresh config: %w", err)
	}

	c.mu.Lock()
	c.teams = teams
	c.players = players
	c.config = cfg
	c.loaded = true
	c.mu.Unlock()

	log.Debug().Int("teams", len(teams)).Int("players", len(players)).Msg("record cache refreshed")
	return nil
}

// Loaded reports whether at least one refresh has succeeded.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Team looks up one team.
func (c *Cache) Team(id uuid.UUID) (models.Team, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.teams {
		if t.ID == id {
			return t, true
		}
	}
	return models.Team{}, false
}

// Teams returns all teams.
func (c *Cache) Teams() []models.Team {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Team, len(c.teams))
	copy(out, c.teams)
	return out
}

// Player looks up one player.
func (c *Cache) Player(id uuid.UUID) (models.Player, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.players {
		if p.ID == id {
			return p, true
		}
	}
	return models.Player{}, false
}

// Players returns all players.
func (c *Cache) Players() []models.Player {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Player, len(c.players))
	copy(out, c.players)
	return out
}

// AuctionablePlayers returns the players that can still go on the block.
func (c *Cache) AuctionablePlayers() []models.Player {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Player
	for _, p := range c.players {
		if p.Auctionable() {
			out = append(out, p)
		}
	}
	return out
}

// Config returns the league configuration.
func (c *Cache) Config() models.AuctionConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

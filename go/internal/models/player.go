package models

import (
	"time"

	"github.com/google/uuid"
)

// PlayerStatus tracks where a player is in the auction lifecycle.
type PlayerStatus string

const (
	PlayerAvailable PlayerStatus = "available"
	PlayerSold      PlayerStatus = "sold"
	PlayerUnsold    PlayerStatus = "unsold"
	PlayerRetained  PlayerStatus = "retained"
)

// Player represents a cricketer in the auction pool.
type Player struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Role         string       `json:"role"` // Batsman, Bowler, All-Rounder, Wicket-keeper, ...
	BattingStyle string       `json:"batting_style"`
	BowlingStyle string       `json:"bowling_style"`
	Tier         string       `json:"tier"` // tier id, e.g. "s-class"
	Status       PlayerStatus `json:"status"`

	SoldPrice    *int64     `json:"sold_price,omitempty"`
	SoldToTeamID *uuid.UUID `json:"sold_to_team_id,omitempty"`
	SoldAt       *time.Time `json:"sold_at,omitempty"`

	IsRetained       bool       `json:"is_retained"`
	RetainedByTeamID *uuid.UUID `json:"retained_by_team_id,omitempty"`
	RetainedPrice    *int64     `json:"retained_price,omitempty"`

	ExternalID *string `json:"external_id,omitempty"` // import id, used for photo matching
	Photo      *string `json:"photo,omitempty"`
	Notes      *string `json:"notes,omitempty"`

	Stats PlayerStats `json:"stats"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlayerStats holds the career numbers shown on the presentation view.
type PlayerStats struct {
	Matches           int     `json:"matches"`
	Runs              int     `json:"runs"`
	HighestScore      int     `json:"highest_score"`
	Average           float64 `json:"average"`
	StrikeRate        float64 `json:"strike_rate"`
	Thirties          int     `json:"thirties"`
	Fifties           int     `json:"fifties"`
	Hundreds          int     `json:"hundreds"`
	Wickets           int     `json:"wickets"`
	Economy           float64 `json:"economy"`
	BowlingStrikeRate float64 `json:"bowling_strike_rate"`
	BowlingAverage    float64 `json:"bowling_average"`
	Dismissals        int     `json:"dismissals"`
}

// Auctionable reports whether the player can be put up for bidding.
// Unsold players stay auctionable so they can be re-auctioned in a later round.
func (p *Player) Auctionable() bool {
	return !p.IsRetained && (p.Status == PlayerAvailable || p.Status == PlayerUnsold)
}

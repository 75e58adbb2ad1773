package models

import (
	"time"

	"github.com/google/uuid"
)

// Team represents a franchise bidding in the auction.
type Team struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	ShortName       string      `json:"short_name"`
	PrimaryColor    *string     `json:"primary_color,omitempty"`
	SecondaryColor  *string     `json:"secondary_color,omitempty"`
	Logo            *string     `json:"logo,omitempty"`
	InitialPurse    int64       `json:"initial_purse"`
	RemainingPurse  int64       `json:"remaining_purse"`
	Players         []uuid.UUID `json:"players"`          // acquired squad, retained players included
	RetainedPlayers []uuid.UUID `json:"retained_players"` // subset of Players held back before the auction
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// SquadSize returns the number of players currently on the team's roster.
func (t *Team) SquadSize() int {
	return len(t.Players)
}

// Spent returns how much of the initial purse has been consumed.
func (t *Team) Spent() int64 {
	return t.InitialPurse - t.RemainingPurse
}

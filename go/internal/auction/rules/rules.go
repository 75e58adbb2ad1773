// Package rules holds the pure affordability and bidding math that gates
// whether a bid or sale may be accepted. Nothing here does I/O or mutates
// state; callers check these before committing a mutation so the store never
// has to roll back.
package rules

import (
	"errors"

	"github.com/bwpl/auctioneer/go/internal/models"
)

var (
	// ErrSquadFull means the team's roster is already at the configured maximum.
	ErrSquadFull = errors.New("squad full")
	// ErrExceedsMaxBid means the bid would leave the team unable to fill its
	// minimum roster from the remaining purse.
	ErrExceedsMaxBid = errors.New("bid exceeds max affordable bid")
)

// MaxAffordableBid returns the most a team can bid on the current lot while
// still being able to fill its minimum roster at the cheapest tier base
// price. Never negative.
func MaxAffordableBid(team *models.Team, cfg *models.AuctionConfig) int64 {
	if team == nil || cfg == nil {
		return 0
	}

	needed := cfg.MinPlayersPerTeam - team.SquadSize() - 1
	if needed < 0 {
		needed = 0
	}
	reserve := int64(needed) * cfg.CheapestTierBasePrice()

	maxBid := team.RemainingPurse - reserve
	if maxBid < 0 {
		return 0
	}
	return maxBid
}

// CanAfford reports whether the team may place the given bid. Returns
// ErrSquadFull or ErrExceedsMaxBid, or nil when the bid is acceptable.
func CanAfford(team *models.Team, bid int64, cfg *models.AuctionConfig) error {
	if team == nil {
		return ErrExceedsMaxBid
	}
	if cfg != nil && team.SquadSize() >= cfg.MaxPlayersPerTeam {
		return ErrSquadFull
	}
	if bid > MaxAffordableBid(team, cfg) {
		return ErrExceedsMaxBid
	}
	return nil
}

// Affordability is one team's verdict for a proposed bid amount.
type Affordability struct {
	Team   models.Team
	MaxBid int64
	Err    error // nil when the team can afford the bid
}

// AffordabilityReport summarizes which teams could take the current bid.
type AffordabilityReport struct {
	Results        []Affordability
	CanAffordCount int
	NoneCanAfford  bool
}

// AggregateAffordability evaluates every team against the bid amount. The
// operator console uses NoneCanAfford to warn that the lot may need to go
// unsold or the bid lowered.
func AggregateAffordability(teams []models.Team, bid int64, cfg *models.AuctionConfig) AffordabilityReport {
	report := AffordabilityReport{
		Results: make([]Affordability, 0, len(teams)),
	}
	for _, team := range teams {
		t := team
		verdict := Affordability{
			Team:   t,
			MaxBid: MaxAffordableBid(&t, cfg),
			Err:    CanAfford(&t, bid, cfg),
		}
		if verdict.Err == nil {
			report.CanAffordCount++
		}
		report.Results = append(report.Results, verdict)
	}
	report.NoneCanAfford = report.CanAffordCount == 0
	return report
}

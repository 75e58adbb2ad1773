package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwpl/auctioneer/go/internal/models"
)

// ConfigExport is the shareable tournament setup document: league identity,
// purse rules, tiers, teams, and bidding tables. It deliberately excludes
// players and sale results so one season's setup can seed the next.
type ConfigExport struct {
	Tournament    TournamentSection `json:"tournament"`
	PurseSettings PurseSection      `json:"purseSettings"`
	Tiers         []models.Tier     `json:"tiers"`
	Teams         []TeamSeed        `json:"teams"`
	AuctionRules  RulesSection      `json:"auctionRules"`
	Meta          MetaSection       `json:"_meta"`
}

type TournamentSection struct {
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Year     int    `json:"year"`
	ClubName string `json:"clubName"`
}

type PurseSection struct {
	DefaultPurse         int64  `json:"defaultPurse"`
	Currency             string `json:"currency"`
	MinPlayersPerTeam    int    `json:"minPlayersPerTeam"`
	MaxPlayersPerTeam    int    `json:"maxPlayersPerTeam"`
	MaxRetentionsPerTeam int    `json:"maxRetentionsPerTeam"`
}

// TeamSeed is a team as carried in a config document: identity and purse,
// no roster.
type TeamSeed struct {
	Name           string  `json:"name"`
	ShortName      string  `json:"shortName"`
	PrimaryColor   *string `json:"primaryColor,omitempty"`
	SecondaryColor *string `json:"secondaryColor,omitempty"`
	Logo           *string `json:"logo,omitempty"`
	InitialPurse   int64   `json:"initialPurse"`
}

type RulesSection struct {
	MinBidIncrement    int64                      `json:"minBidIncrement"`
	BidIncrements      []int64                    `json:"bidIncrements"`
	AutoIncrementRules []models.AutoIncrementRule `json:"autoIncrementRules"`
}

type MetaSection struct {
	Version     string    `json:"version"`
	ExportedAt  time.Time `json:"exportedAt"`
	Description string    `json:"description"`
}

// BuildConfigExport assembles the export document from the saved config and
// team list.
func BuildConfigExport(cfg models.AuctionConfig, teams []models.Team) ConfigExport {
	seeds := make([]TeamSeed, len(teams))
	for i, t := range teams {
		seeds[i] = TeamSeed{
			Name:           t.Name,
			ShortName:      t.ShortName,
			PrimaryColor:   t.PrimaryColor,
			SecondaryColor: t.SecondaryColor,
			Logo:           t.Logo,
			InitialPurse:   t.InitialPurse,
		}
	}
	return ConfigExport{
		Tournament: TournamentSection{
			Name:     cfg.LeagueName,
			FullName: cfg.LeagueFullName,
			Year:     cfg.SeasonYear,
			ClubName: cfg.ClubName,
		},
		PurseSettings: PurseSection{
			DefaultPurse:         cfg.TotalPursePerTeam,
			Currency:             cfg.Currency,
			MinPlayersPerTeam:    cfg.MinPlayersPerTeam,
			MaxPlayersPerTeam:    cfg.MaxPlayersPerTeam,
			MaxRetentionsPerTeam: cfg.MaxRetentionsPerTeam,
		},
		Tiers: cfg.Tiers,
		Teams: seeds,
		AuctionRules: RulesSection{
			MinBidIncrement:    cfg.MinBidIncrement,
			BidIncrements:      cfg.BidIncrements,
			AutoIncrementRules: cfg.AutoIncrementRules,
		},
		Meta: MetaSection{
			Version:     "1.0",
			ExportedAt:  time.Now().UTC(),
			Description: "BWPL Auction Configuration",
		},
	}
}

// Validate checks the document's structural requirements and returns every
// problem found, not just the first.
func (e *ConfigExport) Validate() []string {
	var errs []string
	if e.Tournament.Name == "" {
		errs = append(errs, "tournament name is required")
	}
	if e.PurseSettings.DefaultPurse <= 0 {
		errs = append(errs, "default purse must be a positive number")
	}
	if len(e.Tiers) == 0 {
		errs = append(errs, "at least one tier is required")
	}
	for i, t := range e.Tiers {
		if t.ID == "" {
			errs = append(errs, fmt.Sprintf("tier %d: missing id", i+1))
		}
		if t.Name == "" {
			errs = append(errs, fmt.Sprintf("tier %d: missing name", i+1))
		}
		if t.BasePrice <= 0 {
			errs = append(errs, fmt.Sprintf("tier %d: invalid base price", i+1))
		}
	}
	if len(e.Teams) == 0 {
		errs = append(errs, "at least one team is required")
	}
	for i, t := range e.Teams {
		if t.Name == "" {
			errs = append(errs, fmt.Sprintf("team %d: missing name", i+1))
		}
		if t.ShortName == "" {
			errs = append(errs, fmt.Sprintf("team %d: missing short name", i+1))
		}
	}
	return errs
}

// ParseConfigExport decodes and validates a config document.
func ParseConfigExport(data []byte) (*ConfigExport, error) {
	var e ConfigExport
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode config export: %w", err)
	}
	if errs := e.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %s", strings.Join(errs, ", "))
	}
	return &e, nil
}

// ToAuctionConfig converts the document into the stored configuration,
// filling defaults for optional rule fields.
func (e *ConfigExport) ToAuctionConfig() models.AuctionConfig {
	cfg := models.AuctionConfig{
		LeagueName:           e.Tournament.Name,
		LeagueFullName:       e.Tournament.FullName,
		SeasonYear:           e.Tournament.Year,
		ClubName:             e.Tournament.ClubName,
		TotalPursePerTeam:    e.PurseSettings.DefaultPurse,
		Currency:             e.PurseSettings.Currency,
		MinPlayersPerTeam:    e.PurseSettings.MinPlayersPerTeam,
		MaxPlayersPerTeam:    e.PurseSettings.MaxPlayersPerTeam,
		MaxRetentionsPerTeam: e.PurseSettings.MaxRetentionsPerTeam,
		Tiers:                e.Tiers,
		MinBidIncrement:      e.AuctionRules.MinBidIncrement,
		BidIncrements:        e.AuctionRules.BidIncrements,
		AutoIncrementRules:   e.AuctionRules.AutoIncrementRules,
	}
	defaults := models.DefaultAuctionConfig()
	if cfg.LeagueFullName == "" {
		cfg.LeagueFullName = cfg.LeagueName
	}
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	if cfg.MinPlayersPerTeam == 0 {
		cfg.MinPlayersPerTeam = defaults.MinPlayersPerTeam
	}
	if cfg.MaxPlayersPerTeam == 0 {
		cfg.MaxPlayersPerTeam = defaults.MaxPlayersPerTeam
	}
	if cfg.MaxRetentionsPerTeam == 0 {
		cfg.MaxRetentionsPerTeam = defaults.MaxRetentionsPerTeam
	}
	if cfg.MinBidIncrement == 0 {
		cfg.MinBidIncrement = defaults.MinBidIncrement
	}
	if len(cfg.BidIncrements) == 0 {
		cfg.BidIncrements = defaults.BidIncrements
	}
	if len(cfg.AutoIncrementRules) == 0 {
		cfg.AutoIncrementRules = defaults.AutoIncrementRules
	}
	return cfg
}

// TeamSeeds converts the document's teams into insertable records. Teams
// without their own purse inherit the default.
func (e *ConfigExport) TeamSeeds() []models.Team {
	teams := make([]models.Team, len(e.Teams))
	for i, s := range e.Teams {
		purse := s.InitialPurse
		if purse == 0 {
			purse = e.PurseSettings.DefaultPurse
		}
		teams[i] = models.Team{
			Name:           s.Name,
			ShortName:      s.ShortName,
			PrimaryColor:   s.PrimaryColor,
			SecondaryColor: s.SecondaryColor,
			Logo:           s.Logo,
			InitialPurse:   purse,
			RemainingPurse: purse,
		}
	}
	return teams
}

package models

// Tier is a price/quality bucket for auction lots. Tiers are ordered from
// most to least expensive; the last tier's base price is the floor used for
// purse reserve math.
type Tier struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	BasePrice   int64  `json:"base_price"`
	Color       string `json:"color,omitempty"`
	AccentColor string `json:"accent_color,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// AutoIncrementRule maps a bid ceiling to the quick-increment applied below
// it. UpTo == nil means unbounded (the catch-all rule); JSON has no Infinity,
// so nil is the wire representation of "no ceiling".
type AutoIncrementRule struct {
	UpTo      *int64 `json:"upTo"`
	Increment int64  `json:"increment"`
}

// AuctionConfig holds league-wide auction settings.
type AuctionConfig struct {
	LeagueName     string `json:"league_name"`
	LeagueFullName string `json:"league_full_name"`
	SeasonYear     int    `json:"season_year"`
	ClubName       string `json:"club_name"`

	TotalPursePerTeam    int64  `json:"total_purse_per_team"`
	Currency             string `json:"currency"`
	MinPlayersPerTeam    int    `json:"min_players_per_team"`
	MaxPlayersPerTeam    int    `json:"max_players_per_team"`
	MaxRetentionsPerTeam int    `json:"max_retentions_per_team"`

	Tiers []Tier `json:"tiers"`

	MinBidIncrement    int64               `json:"min_bid_increment"`
	BidIncrements      []int64             `json:"bid_increments"`
	AutoIncrementRules []AutoIncrementRule `json:"auto_increment_rules"`
}

// CheapestTierBasePrice returns the base price of the last (cheapest) tier,
// or zero when no tiers are configured.
func (c *AuctionConfig) CheapestTierBasePrice() int64 {
	if len(c.Tiers) == 0 {
		return 0
	}
	return c.Tiers[len(c.Tiers)-1].BasePrice
}

// TierByID looks up a tier by its id.
func (c *AuctionConfig) TierByID(id string) (Tier, bool) {
	for _, t := range c.Tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// DefaultAuctionConfig returns the stock BWPL configuration.
func DefaultAuctionConfig() AuctionConfig {
	return AuctionConfig{
		LeagueName:           "BWPL",
		LeagueFullName:       "Bangalore Willows Premier League",
		SeasonYear:           2025,
		ClubName:             "Bangalore Willows",
		TotalPursePerTeam:    10_000_000,
		Currency:             "₹",
		MinPlayersPerTeam:    11,
		MaxPlayersPerTeam:    15,
		MaxRetentionsPerTeam: 3,
		Tiers: []Tier{
			{ID: "s-class", Name: "S Class", BasePrice: 500_000, Color: "#FFD700", AccentColor: "#FFA500", Icon: "crown"},
			{ID: "a-class", Name: "A Class", BasePrice: 300_000, Color: "#C0C0C0", AccentColor: "#A8A8A8", Icon: "star"},
			{ID: "b-class", Name: "B Class", BasePrice: 200_000, Color: "#CD7F32", AccentColor: "#DDA15E", Icon: "shield"},
			{ID: "c-class", Name: "C Class", BasePrice: 100_000, Color: "#60A5FA", AccentColor: "#3B82F6", Icon: "zap"},
			{ID: "d-class", Name: "D Class", BasePrice: 50_000, Color: "#34D399", AccentColor: "#10B981", Icon: "user"},
		},
		MinBidIncrement: 10_000,
		BidIncrements:   []int64{10_000, 25_000, 50_000, 100_000, 500_000},
		AutoIncrementRules: []AutoIncrementRule{
			{UpTo: Int64Ptr(400_000), Increment: 10_000},
			{UpTo: Int64Ptr(750_000), Increment: 25_000},
			{UpTo: Int64Ptr(1_400_000), Increment: 50_000},
			{UpTo: Int64Ptr(2_500_000), Increment: 100_000},
			{UpTo: nil, Increment: 250_000},
		},
	}
}

// Int64Ptr is a small helper for building rule tables and test fixtures.
func Int64Ptr(v int64) *int64 { return &v }

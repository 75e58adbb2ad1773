package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bwpl/auctioneer/go/internal/models"
)

// ParsePlayerCSV reads player records from exported registration sheets. The
// header row is matched loosely: several spellings are accepted per column,
// and unknown columns are ignored. Rows without a name are skipped.
func ParsePlayerCSV(r io.Reader) ([]models.Player, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var players []models.Player
	skipped := 0
	for _, row := range rows[1:] {
		p := playerFromRow(headers, row)
		if p.Name == "" {
			skipped++
			continue
		}
		players = append(players, p)
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("csv rows without a name were skipped")
	}
	return players, nil
}

func playerFromRow(headers, row []string) models.Player {
	p := models.Player{
		Status:       models.PlayerAvailable,
		BattingStyle: "Right-hand bat",
		BowlingStyle: "-",
		Tier:         "c-class",
	}
	for i, header := range headers {
		if i >= len(row) {
			break
		}
		value := strings.TrimSpace(strings.TrimRight(row[i], "\r"))

		switch header {
		case "name", "full name", "fullname", "player name", "playername":
			p.Name = value
		case "role", "preferred skill", "preferredskill", "skill", "type":
			p.Role = mapRole(value)
		case "batting_style", "battingstyle", "batting style":
			if value != "" {
				p.BattingStyle = value
			}
		case "bowling_style", "bowlingstyle", "bowling style":
			if value != "" {
				p.BowlingStyle = value
			}
		case "tier", "category":
			p.Tier = mapTier(value)
		case "id", "external_id", "externalid":
			if value != "" {
				v := value
				p.ExternalID = &v
			}
		case "photo", "image":
			if value != "" {
				v := value
				p.Photo = &v
			}
		case "matches", "match", "games":
			p.Stats.Matches = atoi(value)
		case "runs", "total runs":
			p.Stats.Runs = atoi(value)
		case "average", "avg", "bat avg", "batting avg", "batting average":
			p.Stats.Average = atof(value)
		case "strike_rate", "strikerate", "sr", "bat sr", "batting sr", "batting strike rate":
			p.Stats.StrikeRate = atof(value)
		case "highest_score", "highestscore", "hs", "highest":
			p.Stats.HighestScore = atoi(value)
		case "thirties", "30s":
			p.Stats.Thirties = atoi(value)
		case "fifties", "50s":
			p.Stats.Fifties = atoi(value)
		case "hundreds", "100s":
			p.Stats.Hundreds = atoi(value)
		case "30s/50s/100s", "milestones":
			p.Stats.Thirties, p.Stats.Fifties, p.Stats.Hundreds = parseMilestones(value)
		case "wickets", "wkts":
			p.Stats.Wickets = atoi(value)
		case "economy", "econ", "eco":
			p.Stats.Economy = atof(value)
		case "bowl sr", "bowling sr", "bowling_strike_rate", "bowling strike rate":
			p.Stats.BowlingStrikeRate = atof(value)
		case "bowl avg", "bowling avg", "bowling_average", "bowling average":
			p.Stats.BowlingAverage = atof(value)
		case "dismissals", "catches":
			p.Stats.Dismissals = atoi(value)
		}
	}
	return p
}

func mapRole(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "batting all-rounder", "batting allrounder", "bat all-rounder":
		return "Batting All-Rounder"
	case "bowling all-rounder", "bowling allrounder", "bowl all-rounder":
		return "Bowling All-Rounder"
	case "all-rounder", "allrounder":
		return "All-Rounder"
	case "batsman", "batter":
		return "Batsman"
	case "bowler":
		return "Bowler"
	case "wicket keeper", "wicket-keeper", "wicketkeeper", "wk", "keeper":
		return "Wicket-keeper"
	default:
		return "All-Rounder"
	}
}

func mapTier(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s", "s-class", "sclass", "elite":
		return "s-class"
	case "a", "a-class", "aclass":
		return "a-class"
	case "b", "b-class", "bclass":
		return "b-class"
	case "c", "c-class", "cclass":
		return "c-class"
	case "d", "d-class", "dclass", "regular":
		return "d-class"
	default:
		return "c-class"
	}
}

// parseMilestones splits the "19/2/0" shorthand into thirties, fifties,
// hundreds. Missing or dashed values read as zero.
func parseMilestones(value string) (thirties, fifties, hundreds int) {
	if value == "" || value == "-" {
		return 0, 0, 0
	}
	parts := strings.Split(value, "/")
	nums := make([]int, 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		nums[i] = atoi(strings.TrimSpace(parts[i]))
	}
	return nums[0], nums[1], nums[2]
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

// PlayerCSVTemplate returns the header row plus one example row, in the
// format registration sheets are exported in.
func PlayerCSVTemplate() string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Write([]string{
		"Full Name", "Preferred Skill", "Tier", "Matches", "Runs",
		"Bat Avg", "Bat SR", "30s/50s/100s", "Wickets", "Eco",
		"Bowl SR", "Bowl Avg", "Dismissals", "id",
	})
	w.Write([]string{
		"Rahul Sharma", "Batting All-Rounder", "A", "45", "1250",
		"32.5", "128.5", "8/5/1", "12", "7.2",
		"24.5", "28.3", "15", "BWPL001",
	})
	w.Flush()
	return b.String()
}

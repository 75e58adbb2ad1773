package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlayerCSVFlexibleHeaders(t *testing.T) {
	input := strings.Join([]string{
		"Full Name,Preferred Skill,Tier,Matches,Runs,Bat Avg,Bat SR,30s/50s/100s,Wickets,Eco,Bowl SR,Bowl Avg,Dismissals,id",
		`"Rahul Sharma",Batting All-Rounder,A,45,1250,32.5,128.5,8/5/1,12,7.2,24.5,28.3,15,BWPL001`,
		"Vik Iyer,wk,S,60,2100,41.0,135.2,12/9/2,0,0,0,0,48,BWPL002",
	}, "\n")

	players, err := ParsePlayerCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, players, 2)

	p := players[0]
	assert.Equal(t, "Rahul Sharma", p.Name)
	assert.Equal(t, "Batting All-Rounder", p.Role)
	assert.Equal(t, "a-class", p.Tier)
	assert.Equal(t, 45, p.Stats.Matches)
	assert.Equal(t, 1250, p.Stats.Runs)
	assert.InDelta(t, 32.5, p.Stats.Average, 0.001)
	assert.Equal(t, 8, p.Stats.Thirties)
	assert.Equal(t, 5, p.Stats.Fifties)
	assert.Equal(t, 1, p.Stats.Hundreds)
	assert.Equal(t, 15, p.Stats.Dismissals)
	require.NotNil(t, p.ExternalID)
	assert.Equal(t, "BWPL001", *p.ExternalID)

	// Shorthand role and tier spellings normalize.
	assert.Equal(t, "Wicket-keeper", players[1].Role)
	assert.Equal(t, "s-class", players[1].Tier)
}

func TestParsePlayerCSVDefaults(t *testing.T) {
	input := "name,role,tier\nAnil Kumar,mystery spinner,x-tier\n"

	players, err := ParsePlayerCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, players, 1)

	p := players[0]
	// Unknown role and tier fall back rather than fail the import.
	assert.Equal(t, "All-Rounder", p.Role)
	assert.Equal(t, "c-class", p.Tier)
	assert.Equal(t, "Right-hand bat", p.BattingStyle)
	assert.Equal(t, "-", p.BowlingStyle)
}

func TestParsePlayerCSVSkipsNamelessRows(t *testing.T) {
	input := "name,tier\nSunil Rao,b\n,a\n"

	players, err := ParsePlayerCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Sunil Rao", players[0].Name)
}

func TestParsePlayerCSVNoData(t *testing.T) {
	_, err := ParsePlayerCSV(strings.NewReader("name,tier\n"))
	assert.Error(t, err)
}

func TestParseMilestonesShorthand(t *testing.T) {
	th, fi, hu := parseMilestones("19/2/0")
	assert.Equal(t, 19, th)
	assert.Equal(t, 2, fi)
	assert.Equal(t, 0, hu)

	th, fi, hu = parseMilestones("-")
	assert.Zero(t, th)
	assert.Zero(t, fi)
	assert.Zero(t, hu)

	th, fi, hu = parseMilestones("7")
	assert.Equal(t, 7, th)
	assert.Zero(t, fi)
	assert.Zero(t, hu)
}

func TestPlayerCSVTemplateRoundTrips(t *testing.T) {
	players, err := ParsePlayerCSV(strings.NewReader(PlayerCSVTemplate()))
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Rahul Sharma", players[0].Name)
	assert.Equal(t, "a-class", players[0].Tier)
}

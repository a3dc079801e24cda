package service

import (
	"context"
	"testing"

	"github.com/bettorstats/analytics-services/shared/models"
	"github.com/bettorstats/analytics-services/shared/sports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindStat_NumericTokenMatchesIDOnly(t *testing.T) {
	t.Parallel()

	stats := []NamedStat{
		{StatID: StatWins, Name: "wins", DisplayName: "Wins"},
		{StatID: StatWinPct, Name: "win_pct", DisplayName: "Winning Percentage"},
	}

	stat, ok := FindStat(stats, "3")
	require.True(t, ok)
	assert.Equal(t, StatWinPct, stat.StatID)

	_, ok = FindStat(stats, "42")
	assert.False(t, ok)
}

func TestFindStat_NameSubstringBeatsDisplayName(t *testing.T) {
	t.Parallel()

	stats := []NamedStat{
		{StatID: StatPointsPerGame, Name: "points_per_game", DisplayName: "Points Per Game"},
		{StatID: StatAtsWins, Name: "ats_wins", DisplayName: "Against The Spread Wins"},
	}

	// "points" hits the internal name of the first stat before any
	// display-name scan happens.
	stat, ok := FindStat(stats, "points")
	require.True(t, ok)
	assert.Equal(t, StatPointsPerGame, stat.StatID)

	// "spread" appears only in a display name.
	stat, ok = FindStat(stats, "Spread")
	require.True(t, ok)
	assert.Equal(t, StatAtsWins, stat.StatID)
}

func TestFindStat_NoMatch(t *testing.T) {
	t.Parallel()

	stats := []NamedStat{{StatID: StatWins, Name: "wins", DisplayName: "Wins"}}
	_, ok := FindStat(stats, "turnovers")
	assert.False(t, ok)
	_, ok = FindStat(stats, "   ")
	assert.False(t, ok)
}

func TestTeamSeasonStats_DerivesFromFinals(t *testing.T) {
	t.Parallel()

	games := &fakeGameStore{games: []models.Game{
		finalGame("evt-1", 1, testTeam, testOpponent, 28, 14),
		finalGame("evt-2", 2, testOpponent, testTeam, 20, 24),
		finalGame("evt-3", 3, testTeam, testOpponent, 10, 30),
	}}
	svc := testService(games, nil)

	stats := svc.TeamSeasonStats(context.Background(), sports.NFL, testTeam, testSeason)
	byID := make(map[int]NamedStat, len(stats))
	for _, stat := range stats {
		byID[stat.StatID] = stat
	}

	assert.Equal(t, 2.0, byID[StatWins].Value)
	assert.Equal(t, 1.0, byID[StatLosses].Value)
	assert.InDelta(t, 2.0/3.0, byID[StatWinPct].Value, 1e-9)
	assert.InDelta(t, (28.0+24.0+10.0)/3.0, byID[StatPointsPerGame].Value, 1e-9)
	assert.InDelta(t, (14.0+20.0+30.0)/3.0, byID[StatOppPointsPerGame].Value, 1e-9)
}

func TestTeamSeasonStats_NoGames(t *testing.T) {
	t.Parallel()

	svc := testService(&fakeGameStore{}, nil)
	stats := svc.TeamSeasonStats(context.Background(), sports.NFL, testTeam, testSeason)

	require.NotEmpty(t, stats)
	for _, stat := range stats {
		assert.Zerof(t, stat.Value, "stat %s should be zero with no games", stat.Name)
	}
}

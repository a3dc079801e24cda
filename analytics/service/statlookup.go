// analytics/service/statlookup.go
package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bettorstats/analytics-services/shared/sports"
)

// NamedStat is one derived season statistic addressable by id or name.
type NamedStat struct {
	StatID      int     `json:"StatID"`
	Name        string  `json:"Name"`
	DisplayName string  `json:"DisplayName"`
	Value       float64 `json:"Value"`
}

// Stat ids for the derived season statistics.
const (
	StatWins = iota + 1
	StatLosses
	StatWinPct
	StatPointsPerGame
	StatOppPointsPerGame
	StatAtsWins
	StatAtsLosses
)

// FindStat resolves a stat token against a stat list with a prioritized
// strategy: exact numeric id first, then case-insensitive name substring,
// then display-name substring. The first match wins.
func FindStat(stats []NamedStat, token string) (NamedStat, bool) {
	if id, err := strconv.Atoi(token); err == nil {
		for _, stat := range stats {
			if stat.StatID == id {
				return stat, true
			}
		}
		return NamedStat{}, false
	}

	needle := strings.ToLower(strings.TrimSpace(token))
	if needle == "" {
		return NamedStat{}, false
	}
	for _, stat := range stats {
		if strings.Contains(strings.ToLower(stat.Name), needle) {
			return stat, true
		}
	}
	for _, stat := range stats {
		if strings.Contains(strings.ToLower(stat.DisplayName), needle) {
			return stat, true
		}
	}
	return NamedStat{}, false
}

// TeamSeasonStats derives a team's named season statistics (record splits
// and scoring averages, for and against) from its cached season games and
// ATS summary.
func (as *AggregationService) TeamSeasonStats(ctx context.Context, sport sports.Sport, teamID, seasonYear int) []NamedStat {
	games := as.TeamSeasonGames(ctx, sport, teamID, seasonYear)
	record := ComputeRecord(teamID, games)
	ats := as.TeamAtsSummary(ctx, sport, teamID, seasonYear)

	var pointsFor, pointsAgainst float64
	finals := 0
	for _, game := range games {
		if !game.IsFinal() || !game.InvolvesTeam(teamID) {
			continue
		}
		finals++
		if game.HomeTeamID == teamID {
			pointsFor += game.HomeScore
			pointsAgainst += game.AwayScore
		} else {
			pointsFor += game.AwayScore
			pointsAgainst += game.HomeScore
		}
	}

	var ppg, oppg, winPct float64
	if finals > 0 {
		ppg = pointsFor / float64(finals)
		oppg = pointsAgainst / float64(finals)
	}
	if record.Overall.GamesPlayed > 0 {
		winPct = float64(record.Overall.Wins) / float64(record.Overall.GamesPlayed)
	}

	return []NamedStat{
		{StatID: StatWins, Name: "wins", DisplayName: "Wins", Value: float64(record.Overall.Wins)},
		{StatID: StatLosses, Name: "losses", DisplayName: "Losses", Value: float64(record.Overall.Losses)},
		{StatID: StatWinPct, Name: "win_pct", DisplayName: "Winning Percentage", Value: winPct},
		{StatID: StatPointsPerGame, Name: "points_per_game", DisplayName: "Points Per Game", Value: ppg},
		{StatID: StatOppPointsPerGame, Name: "opp_points_per_game", DisplayName: "Opponent Points Per Game", Value: oppg},
		{StatID: StatAtsWins, Name: "ats_wins", DisplayName: "Against The Spread Wins", Value: float64(ats.Overall.Wins)},
		{StatID: StatAtsLosses, Name: "ats_losses", DisplayName: "Against The Spread Losses", Value: float64(ats.Overall.Losses)},
	}
}

// analytics/service/aggregation_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/bettorstats/analytics-services/analytics/cache"
	"github.com/bettorstats/analytics-services/shared/models"
	"github.com/bettorstats/analytics-services/shared/sports"
)

// lastTenWindow is the number of most-recent final games in the last-N
// record bucket.
const lastTenWindow = 10

// GameStore is the game lookup surface the aggregation engine needs.
type GameStore interface {
	TeamSeasonGames(ctx context.Context, sportID, teamID, seasonYear int) ([]models.Game, error)
	TeamsSeasonGames(ctx context.Context, sportID int, teamIDs []int, seasonYear int) ([]models.Game, error)
}

// AggregationService turns raw game and odds documents into derived team
// analytics. Public methods degrade to empty results with the error logged
// rather than propagating store failures; callers only ever see "no data."
// Computed results are cached per process with a TTL and recomputed lazily
// on the first read after expiry. Only successfully computed results enter
// the caches; a degraded result is recomputed on the next call.
type AggregationService struct {
	games GameStore
	odds  *OddsService

	gamesCache   *cache.TTLCache[[]models.Game]
	atsCache     *cache.TTLCache[models.TeamAtsSummary]
	matchupCache *cache.TTLCache[*models.MatchupSummary]
}

// NewAggregationService creates a new AggregationService with its own
// isolated cache state.
func NewAggregationService(games GameStore, odds *OddsService, cacheTTL time.Duration) *AggregationService {
	return &AggregationService{
		games:        games,
		odds:         odds,
		gamesCache:   cache.New[[]models.Game](cacheTTL),
		atsCache:     cache.New[models.TeamAtsSummary](cacheTTL),
		matchupCache: cache.New[*models.MatchupSummary](cacheTTL),
	}
}

// TeamSeasonGames returns a team's season games, most recent first. A
// cache entry younger than the TTL is returned verbatim with no re-query.
func (as *AggregationService) TeamSeasonGames(ctx context.Context, sport sports.Sport, teamID, seasonYear int) []models.Game {
	games, err := as.teamSeasonGames(ctx, sport, teamID, seasonYear)
	if err != nil {
		log.Printf("Warning: %v", err)
		return nil
	}
	return games
}

// teamSeasonGames is the error-returning core of TeamSeasonGames. Only
// successful loads are cached; a failed load is retried on the next call.
func (as *AggregationService) teamSeasonGames(ctx context.Context, sport sports.Sport, teamID, seasonYear int) ([]models.Game, error) {
	key := teamSeasonKey(sport, teamID, seasonYear)
	if games, ok := as.gamesCache.Get(key); ok {
		return games, nil
	}

	sportID, err := sport.ID()
	if err != nil {
		return nil, fmt.Errorf("season games requested for unknown sport %q: %w", sport, err)
	}

	games, err := as.games.TeamSeasonGames(ctx, sportID, teamID, seasonYear)
	if err != nil {
		return nil, fmt.Errorf("failed to load season games for team %d (%s %d): %w", teamID, sport, seasonYear, err)
	}

	as.gamesCache.Set(key, games)
	return games, nil
}

// TeamsSeasonGames returns season games for several teams using exactly
// one underlying query, partitioned per team id. For each id the partition
// equals what TeamSeasonGames would return independently; a game between
// two requested teams appears in both partitions. Each partition also
// primes the single-team cache.
func (as *AggregationService) TeamsSeasonGames(ctx context.Context, sport sports.Sport, teamIDs []int, seasonYear int) map[int][]models.Game {
	result := make(map[int][]models.Game, len(teamIDs))
	for _, id := range teamIDs {
		result[id] = nil
	}

	sportID, err := sport.ID()
	if err != nil {
		log.Printf("Warning: Season games requested for unknown sport %q: %v", sport, err)
		return result
	}

	games, err := as.games.TeamsSeasonGames(ctx, sportID, teamIDs, seasonYear)
	if err != nil {
		log.Printf("Warning: Failed to bulk load season games for teams %v (%s %d): %v", teamIDs, sport, seasonYear, err)
		return result
	}

	for _, game := range games {
		for _, id := range teamIDs {
			if game.InvolvesTeam(id) {
				result[id] = append(result[id], game)
			}
		}
	}
	for _, id := range teamIDs {
		as.gamesCache.Set(teamSeasonKey(sport, id, seasonYear), result[id])
	}
	return result
}

// ComputeRecord accumulates straight win/loss/push records for a team over
// its games. Only final games count. The result is independent of input
// order except the last-ten bucket, which covers the ten most recent
// finals by event date.
func ComputeRecord(teamID int, games []models.Game) models.TeamRecordSet {
	var set models.TeamRecordSet

	finalsSeen := 0
	for _, game := range sortedByDateDesc(games) {
		if !game.IsFinal() || !game.InvolvesTeam(teamID) {
			continue
		}
		finalsSeen++

		isHome := game.HomeTeamID == teamID
		teamScore, oppScore := game.HomeScore, game.AwayScore
		if !isHome {
			teamScore, oppScore = game.AwayScore, game.HomeScore
		}

		outcome := classify(teamScore, oppScore)
		apply(&set.Overall, outcome)
		if isHome {
			apply(&set.Home, outcome)
		} else {
			apply(&set.Road, outcome)
		}
		if finalsSeen <= lastTenWindow {
			apply(&set.LastTen, outcome)
		}
	}
	return set
}

// ComputeAtsSummary classifies each final game against the team's
// consensus spread. The team's score is adjusted by its spread before
// comparison; a final with no usable spread is skipped entirely, counting
// toward no outcome. When betting data carries score-by-period arrays,
// their sums override the game document's scores.
func ComputeAtsSummary(teamID int, games []models.Game, lines map[string]*models.ConsensusLine, betting map[string]*models.BettingData) models.TeamAtsSummary {
	var summary models.TeamAtsSummary

	finalsSeen := 0
	for _, game := range sortedByDateDesc(games) {
		if !game.IsFinal() || !game.InvolvesTeam(teamID) {
			continue
		}
		finalsSeen++

		consensus := lines[game.EventID]
		if consensus == nil {
			continue
		}
		isHome := game.HomeTeamID == teamID
		spread := consensus.SpreadForTeam(isHome)
		if spread == nil {
			continue
		}

		homeScore, awayScore := resolveFinalScore(&game, betting[game.EventID])
		teamScore, oppScore := homeScore, awayScore
		if !isHome {
			teamScore, oppScore = awayScore, homeScore
		}

		outcome := classify(teamScore+*spread, oppScore)
		apply(&summary.Overall, outcome)
		if isHome {
			apply(&summary.Home, outcome)
		} else {
			apply(&summary.Road, outcome)
		}
		if finalsSeen <= lastTenWindow {
			apply(&summary.LastTen, outcome)
		}
	}
	return summary
}

// TeamRecordSet computes a team's straight season record from its (cached)
// season games.
func (as *AggregationService) TeamRecordSet(ctx context.Context, sport sports.Sport, teamID, seasonYear int) models.TeamRecordSet {
	return ComputeRecord(teamID, as.TeamSeasonGames(ctx, sport, teamID, seasonYear))
}

// TeamAtsSummary computes (or returns the cached) against-the-spread
// summary for a team's season. Odds for every final game are fetched in
// one batched pass. A summary degraded by a store failure is never cached,
// so the next call within the TTL recomputes it.
func (as *AggregationService) TeamAtsSummary(ctx context.Context, sport sports.Sport, teamID, seasonYear int) models.TeamAtsSummary {
	key := teamSeasonKey(sport, teamID, seasonYear)
	if summary, ok := as.atsCache.Get(key); ok {
		return summary
	}

	games, err := as.teamSeasonGames(ctx, sport, teamID, seasonYear)
	if err != nil {
		log.Printf("Warning: %v", err)
		return models.TeamAtsSummary{}
	}
	lines, betting, err := as.oddsForGames(ctx, games)
	if err != nil {
		log.Printf("Warning: Failed to load betting data for team %d (%s %d): %v", teamID, sport, seasonYear, err)
		return models.TeamAtsSummary{}
	}
	summary := ComputeAtsSummary(teamID, games, lines, betting)

	as.atsCache.Set(key, summary)
	return summary
}

// BuildMatchupSummary composes both teams' records and ATS summaries for a
// head-to-head pairing. One bulk games query covers both teams and one
// batched odds pass covers the union of their final games, so no per-game
// odds queries are ever issued. Returns nil when the underlying data
// cannot be loaded.
func (as *AggregationService) BuildMatchupSummary(ctx context.Context, sport sports.Sport, homeTeamID, awayTeamID, seasonYear int) *models.MatchupSummary {
	key := matchupKey(sport, seasonYear, homeTeamID, awayTeamID)
	if summary, ok := as.matchupCache.Get(key); ok {
		return summary
	}

	sportID, err := sport.ID()
	if err != nil {
		log.Printf("Warning: Matchup requested for unknown sport %q: %v", sport, err)
		return nil
	}

	gamesByTeam := as.TeamsSeasonGames(ctx, sport, []int{homeTeamID, awayTeamID}, seasonYear)
	homeGames := gamesByTeam[homeTeamID]
	awayGames := gamesByTeam[awayTeamID]
	if len(homeGames) == 0 && len(awayGames) == 0 {
		return nil
	}

	// One batched odds pass over the union of both teams' finals plus the
	// upcoming head-to-head game, shared by every computation below.
	upcoming := findUpcomingMatchup(homeGames, homeTeamID, awayTeamID)
	eventIDs := unionEventIDs(homeGames, awayGames, upcoming)
	lines, betting, oddsErr := as.oddsForEvents(ctx, eventIDs)
	if oddsErr != nil {
		log.Printf("Warning: Failed to load betting data for matchup %d vs %d (%s %d): %v", homeTeamID, awayTeamID, sport, seasonYear, oddsErr)
	}

	summary := &models.MatchupSummary{
		SportID:    sportID,
		SeasonYear: seasonYear,
		Home: models.TeamSummary{
			TeamID: homeTeamID,
			Record: ComputeRecord(homeTeamID, homeGames),
			Ats:    ComputeAtsSummary(homeTeamID, homeGames, lines, betting),
		},
		Away: models.TeamSummary{
			TeamID: awayTeamID,
			Record: ComputeRecord(awayTeamID, awayGames),
			Ats:    ComputeAtsSummary(awayTeamID, awayGames, lines, betting),
		},
	}

	if upcoming != nil {
		if consensus := lines[upcoming.EventID]; consensus != nil {
			summary.Home.WinProbability, summary.Away.WinProbability = ImpliedWinProbability(consensus.MoneylineHome, consensus.MoneylineAway)
		}
	}

	// A summary built without betting data is served but not cached, so the
	// next call retries the odds fetch.
	if oddsErr == nil {
		as.atsCache.Set(teamSeasonKey(sport, homeTeamID, seasonYear), summary.Home.Ats)
		as.atsCache.Set(teamSeasonKey(sport, awayTeamID, seasonYear), summary.Away.Ats)
		as.matchupCache.Set(key, summary)
	}
	return summary
}

// oddsForGames resolves consensus lines and betting documents for every
// final game in one batched pass. The caller decides whether a failure
// degrades the result or aborts it; either way nothing is cached for it.
func (as *AggregationService) oddsForGames(ctx context.Context, games []models.Game) (map[string]*models.ConsensusLine, map[string]*models.BettingData, error) {
	var eventIDs []string
	for _, game := range games {
		if game.IsFinal() {
			eventIDs = append(eventIDs, game.EventID)
		}
	}
	return as.oddsForEvents(ctx, eventIDs)
}

func (as *AggregationService) oddsForEvents(ctx context.Context, eventIDs []string) (map[string]*models.ConsensusLine, map[string]*models.BettingData, error) {
	if len(eventIDs) == 0 {
		return map[string]*models.ConsensusLine{}, map[string]*models.BettingData{}, nil
	}

	betting, err := as.odds.EventsBettingData(ctx, eventIDs)
	if err != nil {
		return nil, nil, err
	}

	lines := make(map[string]*models.ConsensusLine, len(betting))
	for id, data := range betting {
		lines[id] = ComputeConsensus(data)
	}
	return lines, betting, nil
}

// resolveFinalScore prefers summed score-by-period arrays from betting
// data over the raw game document's scores.
func resolveFinalScore(game *models.Game, betting *models.BettingData) (home, away float64) {
	home, away = game.HomeScore, game.AwayScore
	if betting == nil {
		return home, away
	}
	if h, ok := betting.HomePeriodTotal(); ok {
		home = h
	}
	if a, ok := betting.AwayPeriodTotal(); ok {
		away = a
	}
	return home, away
}

// findUpcomingMatchup returns the earliest scheduled game between the two
// teams with the given home side, or nil when none is on the schedule.
func findUpcomingMatchup(games []models.Game, homeTeamID, awayTeamID int) *models.Game {
	var upcoming *models.Game
	for i := range games {
		game := &games[i]
		if game.EventStatus != models.StatusScheduled {
			continue
		}
		if game.HomeTeamID != homeTeamID || game.AwayTeamID != awayTeamID {
			continue
		}
		if upcoming == nil || game.DateEvent.Before(upcoming.DateEvent) {
			upcoming = game
		}
	}
	return upcoming
}

func unionEventIDs(homeGames, awayGames []models.Game, extra *models.Game) []string {
	seen := make(map[string]bool)
	var ids []string
	collect := func(games []models.Game) {
		for _, game := range games {
			if game.IsFinal() && !seen[game.EventID] {
				seen[game.EventID] = true
				ids = append(ids, game.EventID)
			}
		}
	}
	collect(homeGames)
	collect(awayGames)
	if extra != nil && !seen[extra.EventID] {
		ids = append(ids, extra.EventID)
	}
	return ids
}

type outcome int

const (
	outcomeWin outcome = iota
	outcomeLoss
	outcomePush
)

func classify(teamScore, oppScore float64) outcome {
	switch {
	case teamScore > oppScore:
		return outcomeWin
	case teamScore < oppScore:
		return outcomeLoss
	default:
		return outcomePush
	}
}

func apply(record *models.TeamRecord, o outcome) {
	switch o {
	case outcomeWin:
		record.AddWin()
	case outcomeLoss:
		record.AddLoss()
	case outcomePush:
		record.AddPush()
	}
}

// sortedByDateDesc returns a copy of games ordered most-recent-first. The
// copy keeps record computation free of side effects on cached slices.
func sortedByDateDesc(games []models.Game) []models.Game {
	sorted := make([]models.Game, len(games))
	copy(sorted, games)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DateEvent.After(sorted[j].DateEvent)
	})
	return sorted
}

func teamSeasonKey(sport sports.Sport, teamID, seasonYear int) string {
	return fmt.Sprintf("%s:%d:%d", sport, teamID, seasonYear)
}

func matchupKey(sport sports.Sport, seasonYear, homeTeamID, awayTeamID int) string {
	return fmt.Sprintf("%s:%d:%d:%d", sport, seasonYear, homeTeamID, awayTeamID)
}

package models

import (
	"time"
)

// Event status values as stored on game documents.
const (
	StatusScheduled = "STATUS_SCHEDULED"
	StatusLive      = "STATUS_LIVE"
	StatusFinal     = "STATUS_FINAL"
	StatusPostponed = "STATUS_POSTPONED"
	StatusCancelled = "STATUS_CANCELED"
)

// Game represents a single scheduled or completed game stored in MongoDB.
// Scores on the game document are the raw feed values; when the event's
// betting data carries a score-by-period array, the summed periods are
// treated as the authoritative final score instead.
type Game struct {
	EventID     string    `bson:"_id" json:"EventID"`
	SportID     int       `bson:"sport_id" json:"SportID"`
	SeasonYear  int       `bson:"season_year" json:"SeasonYear"`
	DateEvent   time.Time `bson:"date_event" json:"DateEvent"`
	HomeTeamID  int       `bson:"home_team_id" json:"HomeTeamID"`
	AwayTeamID  int       `bson:"away_team_id" json:"AwayTeamID"`
	EventStatus string    `bson:"event_status" json:"EventStatus"`
	HomeScore   float64   `bson:"home_score" json:"HomeScore"`
	AwayScore   float64   `bson:"away_score" json:"AwayScore"`
}

// IsFinal reports whether the game has reached a final, aggregatable state.
func (g *Game) IsFinal() bool {
	return g.EventStatus == StatusFinal
}

// InvolvesTeam reports whether the team played in this game on either side.
func (g *Game) InvolvesTeam(teamID int) bool {
	return g.HomeTeamID == teamID || g.AwayTeamID == teamID
}

// TeamRecord accumulates straight win/loss/push results for one scope
// (overall, home-only, road-only, last ten). Derived on demand, never
// persisted.
type TeamRecord struct {
	Wins        int `json:"Wins"`
	Losses      int `json:"Losses"`
	Pushes      int `json:"Pushes"`
	GamesPlayed int `json:"GamesPlayed"`
}

// AddWin records a win.
func (tr *TeamRecord) AddWin() {
	tr.Wins++
	tr.GamesPlayed++
}

// AddLoss records a loss.
func (tr *TeamRecord) AddLoss() {
	tr.Losses++
	tr.GamesPlayed++
}

// AddPush records a push (tie).
func (tr *TeamRecord) AddPush() {
	tr.Pushes++
	tr.GamesPlayed++
}

// TeamRecordSet groups the four record scopes computed for a team's season.
type TeamRecordSet struct {
	Overall TeamRecord `json:"Overall"`
	Home    TeamRecord `json:"Home"`
	Road    TeamRecord `json:"Road"`
	LastTen TeamRecord `json:"LastTen"`
}

// TeamAtsSummary has the same shape as TeamRecordSet, but each game is
// classified against the consensus spread rather than the raw score.
type TeamAtsSummary struct {
	Overall TeamRecord `json:"Overall"`
	Home    TeamRecord `json:"Home"`
	Road    TeamRecord `json:"Road"`
	LastTen TeamRecord `json:"LastTen"`
}

// TeamSummary is one side of a matchup summary: the straight record set,
// the against-the-spread summary, and the implied win probability from the
// upcoming matchup's consensus moneyline when one exists.
type TeamSummary struct {
	TeamID         int            `json:"TeamID"`
	Record         TeamRecordSet  `json:"Record"`
	Ats            TeamAtsSummary `json:"Ats"`
	WinProbability *float64       `json:"WinProbability,omitempty"`
}

// MatchupSummary is the symmetric head-to-head analytics structure.
type MatchupSummary struct {
	SportID    int         `json:"SportID"`
	SeasonYear int         `json:"SeasonYear"`
	Home       TeamSummary `json:"Home"`
	Away       TeamSummary `json:"Away"`
}

package models

// Spread holds one sportsbook's point spread for an event. Points are from
// the home/away team's perspective; juice is the price on each side in
// American odds. Nil means the book did not post that leg.
type Spread struct {
	PointSpreadHome      *float64 `bson:"point_spread_home,omitempty" json:"PointSpreadHome"`
	PointSpreadAway      *float64 `bson:"point_spread_away,omitempty" json:"PointSpreadAway"`
	PointSpreadHomeMoney *float64 `bson:"point_spread_home_money,omitempty" json:"PointSpreadHomeMoney"`
	PointSpreadAwayMoney *float64 `bson:"point_spread_away_money,omitempty" json:"PointSpreadAwayMoney"`
}

// Moneyline holds one sportsbook's straight-up prices in American odds.
type Moneyline struct {
	MoneylineHome *float64 `bson:"moneyline_home,omitempty" json:"MoneylineHome"`
	MoneylineAway *float64 `bson:"moneyline_away,omitempty" json:"MoneylineAway"`
}

// Total holds one sportsbook's over/under line and prices.
type Total struct {
	TotalOver       *float64 `bson:"total_over,omitempty" json:"TotalOver"`
	TotalUnder      *float64 `bson:"total_under,omitempty" json:"TotalUnder"`
	TotalOverMoney  *float64 `bson:"total_over_money,omitempty" json:"TotalOverMoney"`
	TotalUnderMoney *float64 `bson:"total_under_money,omitempty" json:"TotalUnderMoney"`
}

// Affiliate describes the sportsbook that posted a line.
type Affiliate struct {
	AffiliateID   int    `bson:"affiliate_id" json:"AffiliateID"`
	AffiliateName string `bson:"affiliate_name" json:"AffiliateName"`
	AffiliateURL  string `bson:"affiliate_url,omitempty" json:"AffiliateURL"`
}

// SportsbookLine is one book's full set of lines for an event.
type SportsbookLine struct {
	Spread    Spread    `bson:"spread" json:"Spread"`
	Moneyline Moneyline `bson:"moneyline" json:"Moneyline"`
	Total     Total     `bson:"total" json:"Total"`
	Affiliate Affiliate `bson:"affiliate" json:"Affiliate"`
}

// EventScore is the optional authoritative score object attached to an
// event's betting data. When present, summed score_by_period arrays take
// precedence over the raw game document's scores.
type EventScore struct {
	EventStatus       string    `bson:"event_status,omitempty" json:"EventStatus"`
	ScoreHomeByPeriod []float64 `bson:"score_home_by_period,omitempty" json:"ScoreHomeByPeriod"`
	ScoreAwayByPeriod []float64 `bson:"score_away_by_period,omitempty" json:"ScoreAwayByPeriod"`
}

// BettingData is one event's betting document: every book's lines keyed by
// sportsbook id, plus the optional score object.
type BettingData struct {
	EventID string                    `bson:"_id" json:"EventID"`
	SportID int                       `bson:"sport_id" json:"SportID"`
	Lines   map[string]SportsbookLine `bson:"lines" json:"Lines"`
	Score   *EventScore               `bson:"score,omitempty" json:"Score,omitempty"`
}

// HomePeriodTotal sums the home score-by-period array. Returns false when
// no array is present.
func (bd *BettingData) HomePeriodTotal() (float64, bool) {
	if bd.Score == nil || len(bd.Score.ScoreHomeByPeriod) == 0 {
		return 0, false
	}
	return sumPeriods(bd.Score.ScoreHomeByPeriod), true
}

// AwayPeriodTotal sums the away score-by-period array. Returns false when
// no array is present.
func (bd *BettingData) AwayPeriodTotal() (float64, bool) {
	if bd.Score == nil || len(bd.Score.ScoreAwayByPeriod) == 0 {
		return 0, false
	}
	return sumPeriods(bd.Score.ScoreAwayByPeriod), true
}

func sumPeriods(periods []float64) float64 {
	var total float64
	for _, p := range periods {
		total += p
	}
	return total
}

// ConsensusLine is the arithmetic mean of each betting field across every
// sportsbook line posted for an event. A nil field means no book supplied a
// finite value for it. Derived, never persisted.
type ConsensusLine struct {
	SpreadHome    *float64 `json:"SpreadHome"`
	SpreadAway    *float64 `json:"SpreadAway"`
	TotalPoints   *float64 `json:"TotalPoints"`
	MoneylineHome *float64 `json:"MoneylineHome"`
	MoneylineAway *float64 `json:"MoneylineAway"`
}

// SpreadForTeam returns the consensus spread from the given team's
// perspective, or nil when the side has no consensus value.
func (cl *ConsensusLine) SpreadForTeam(isHome bool) *float64 {
	if isHome {
		return cl.SpreadHome
	}
	return cl.SpreadAway
}

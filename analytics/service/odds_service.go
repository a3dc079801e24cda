// analytics/service/odds_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/bettorstats/analytics-services/analytics/store"
	"github.com/bettorstats/analytics-services/shared/models"
)

// BettingStore is the betting-data surface the odds service needs.
type BettingStore interface {
	EventBettingData(ctx context.Context, eventID string) (*models.BettingData, error)
	EventsBettingData(ctx context.Context, eventIDs []string) (map[string]*models.BettingData, error)
}

// OddsService derives consensus lines and implied win probabilities from
// per-sportsbook betting data. All computation is pure over fetched
// documents; nothing here is cached or persisted.
type OddsService struct {
	betting BettingStore
}

// NewOddsService creates a new OddsService instance.
func NewOddsService(betting BettingStore) *OddsService {
	return &OddsService{
		betting: betting,
	}
}

// ConsensusLine fetches an event's betting data and averages every field
// across the books that posted it. An event with no betting document yields
// an all-nil line rather than an error.
func (osv *OddsService) ConsensusLine(ctx context.Context, eventID string) (*models.ConsensusLine, error) {
	data, err := osv.betting.EventBettingData(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrBettingDataNotFound) {
			return &models.ConsensusLine{}, nil
		}
		return nil, fmt.Errorf("failed to resolve consensus for event %s: %w", eventID, err)
	}
	return ComputeConsensus(data), nil
}

// ConsensusLines resolves consensus lines for many events with a single
// underlying query. Events without betting data map to all-nil lines.
func (osv *OddsService) ConsensusLines(ctx context.Context, eventIDs []string) (map[string]*models.ConsensusLine, error) {
	dataByEvent, err := osv.betting.EventsBettingData(ctx, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve consensus for %d events: %w", len(eventIDs), err)
	}

	lines := make(map[string]*models.ConsensusLine, len(eventIDs))
	for _, id := range eventIDs {
		lines[id] = ComputeConsensus(dataByEvent[id])
	}
	return lines, nil
}

// EventsBettingData exposes the bulk betting fetch for callers that also
// need the score-by-period overrides alongside consensus lines.
func (osv *OddsService) EventsBettingData(ctx context.Context, eventIDs []string) (map[string]*models.BettingData, error) {
	return osv.betting.EventsBettingData(ctx, eventIDs)
}

// ComputeConsensus averages each betting field independently across every
// sportsbook line in the document. A book missing one side of a market is
// excluded from that side's average only. Fields with zero contributing
// books stay nil. A nil document yields an all-nil line.
func ComputeConsensus(data *models.BettingData) *models.ConsensusLine {
	consensus := &models.ConsensusLine{}
	if data == nil {
		return consensus
	}

	var spreadHome, spreadAway, total, moneyHome, moneyAway meanAccumulator
	for _, line := range data.Lines {
		spreadHome.add(line.Spread.PointSpreadHome)
		spreadAway.add(line.Spread.PointSpreadAway)
		moneyHome.add(line.Moneyline.MoneylineHome)
		moneyAway.add(line.Moneyline.MoneylineAway)

		// A total contributes only when both legs are present.
		if isFinite(line.Total.TotalOver) && isFinite(line.Total.TotalUnder) {
			mid := (*line.Total.TotalOver + *line.Total.TotalUnder) / 2
			total.add(&mid)
		}
	}

	consensus.SpreadHome = spreadHome.mean()
	consensus.SpreadAway = spreadAway.mean()
	consensus.TotalPoints = total.mean()
	consensus.MoneylineHome = moneyHome.mean()
	consensus.MoneylineAway = moneyAway.mean()
	return consensus
}

// ImpliedWinProbability converts a pair of American moneyline odds into
// vig-free win probabilities that sum to exactly 1. Returns nils when
// either input is missing or non-finite; no default is ever substituted.
func ImpliedWinProbability(moneylineHome, moneylineAway *float64) (*float64, *float64) {
	if !isFinite(moneylineHome) || !isFinite(moneylineAway) {
		return nil, nil
	}

	rawHome := rawProbability(*moneylineHome)
	rawAway := rawProbability(*moneylineAway)
	sum := rawHome + rawAway
	if sum == 0 {
		return nil, nil
	}

	pHome := rawHome / sum
	pAway := rawAway / sum
	return &pHome, &pAway
}

// rawProbability converts a single American odds value to its implied
// probability, bookmaker margin included.
func rawProbability(odds float64) float64 {
	if odds > 0 {
		return 100 / (odds + 100)
	}
	abs := math.Abs(odds)
	return abs / (abs + 100)
}

// meanAccumulator averages the finite values fed to it.
type meanAccumulator struct {
	sum   float64
	count int
}

func (ma *meanAccumulator) add(v *float64) {
	if !isFinite(v) {
		return
	}
	ma.sum += *v
	ma.count++
}

func (ma *meanAccumulator) mean() *float64 {
	if ma.count == 0 {
		return nil
	}
	m := ma.sum / float64(ma.count)
	return &m
}

func isFinite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

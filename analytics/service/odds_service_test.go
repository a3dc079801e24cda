package service

import (
	"context"
	"math"
	"testing"

	"github.com/bettorstats/analytics-services/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestComputeConsensus_AveragesAcrossBooks(t *testing.T) {
	t.Parallel()

	data := &models.BettingData{
		EventID: "evt-1",
		Lines: map[string]models.SportsbookLine{
			"book-a": {
				Spread:    models.Spread{PointSpreadHome: f(-7), PointSpreadAway: f(7)},
				Moneyline: models.Moneyline{MoneylineHome: f(-300), MoneylineAway: f(250)},
				Total:     models.Total{TotalOver: f(44), TotalUnder: f(44)},
			},
			"book-b": {
				Spread:    models.Spread{PointSpreadHome: f(-8), PointSpreadAway: f(8)},
				Moneyline: models.Moneyline{MoneylineHome: f(-320), MoneylineAway: f(260)},
				Total:     models.Total{TotalOver: f(45), TotalUnder: f(45)},
			},
		},
	}

	consensus := ComputeConsensus(data)
	require.NotNil(t, consensus.SpreadHome)
	assert.InDelta(t, -7.5, *consensus.SpreadHome, 1e-9)
	assert.InDelta(t, 7.5, *consensus.SpreadAway, 1e-9)
	assert.InDelta(t, 44.5, *consensus.TotalPoints, 1e-9)
	assert.InDelta(t, -310, *consensus.MoneylineHome, 1e-9)
	assert.InDelta(t, 255, *consensus.MoneylineAway, 1e-9)
}

// A book missing one side's value is excluded from that side's average
// only, not from the other side's.
func TestComputeConsensus_PartialLines(t *testing.T) {
	t.Parallel()

	data := &models.BettingData{
		EventID: "evt-1",
		Lines: map[string]models.SportsbookLine{
			"book-a": {Spread: models.Spread{PointSpreadHome: f(-3), PointSpreadAway: f(3)}},
			"book-b": {Spread: models.Spread{PointSpreadHome: f(-5)}},
		},
	}

	consensus := ComputeConsensus(data)
	require.NotNil(t, consensus.SpreadHome)
	require.NotNil(t, consensus.SpreadAway)
	assert.InDelta(t, -4, *consensus.SpreadHome, 1e-9)
	assert.InDelta(t, 3, *consensus.SpreadAway, 1e-9)
}

// A total contributes only when both legs are present.
func TestComputeConsensus_TotalNeedsBothLegs(t *testing.T) {
	t.Parallel()

	data := &models.BettingData{
		EventID: "evt-1",
		Lines: map[string]models.SportsbookLine{
			"book-a": {Total: models.Total{TotalOver: f(40)}},
		},
	}

	consensus := ComputeConsensus(data)
	assert.Nil(t, consensus.TotalPoints)
}

func TestComputeConsensus_NoData(t *testing.T) {
	t.Parallel()

	consensus := ComputeConsensus(nil)
	assert.Nil(t, consensus.SpreadHome)
	assert.Nil(t, consensus.SpreadAway)
	assert.Nil(t, consensus.TotalPoints)
	assert.Nil(t, consensus.MoneylineHome)
	assert.Nil(t, consensus.MoneylineAway)
}

func TestComputeConsensus_IgnoresNonFiniteValues(t *testing.T) {
	t.Parallel()

	data := &models.BettingData{
		EventID: "evt-1",
		Lines: map[string]models.SportsbookLine{
			"book-a": {Spread: models.Spread{PointSpreadHome: f(math.NaN())}},
			"book-b": {Spread: models.Spread{PointSpreadHome: f(-6)}},
		},
	}

	consensus := ComputeConsensus(data)
	require.NotNil(t, consensus.SpreadHome)
	assert.InDelta(t, -6, *consensus.SpreadHome, 1e-9)
}

// De-vigged probabilities must sum to exactly 1 for any finite odds pair.
func TestImpliedWinProbability_SumsToOne(t *testing.T) {
	t.Parallel()

	pairs := [][2]float64{
		{-110, -110},
		{-300, 250},
		{150, -180},
		{100, -120},
		{-10000, 5000},
	}
	for _, pair := range pairs {
		pHome, pAway := ImpliedWinProbability(f(pair[0]), f(pair[1]))
		require.NotNil(t, pHome, "pair %v", pair)
		require.NotNil(t, pAway, "pair %v", pair)
		assert.InDelta(t, 1.0, *pHome+*pAway, 1e-12, "pair %v", pair)
		assert.Greater(t, *pHome, 0.0)
		assert.Greater(t, *pAway, 0.0)
	}
}

func TestImpliedWinProbability_FavoriteHasHigherProbability(t *testing.T) {
	t.Parallel()

	pHome, pAway := ImpliedWinProbability(f(-300), f(250))
	require.NotNil(t, pHome)
	assert.Greater(t, *pHome, *pAway)
}

func TestImpliedWinProbability_MissingInputsYieldNils(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		home *float64
		away *float64
	}{
		{"both nil", nil, nil},
		{"home nil", nil, f(-110)},
		{"away nil", f(-110), nil},
		{"home NaN", f(math.NaN()), f(-110)},
		{"away Inf", f(-110), f(math.Inf(1))},
	}
	for _, tc := range cases {
		pHome, pAway := ImpliedWinProbability(tc.home, tc.away)
		assert.Nil(t, pHome, tc.name)
		assert.Nil(t, pAway, tc.name)
	}
}

func TestConsensusLines_EventsWithoutDataGetEmptyLines(t *testing.T) {
	t.Parallel()

	bs := newFakeBettingStore()
	bs.data["evt-1"] = &models.BettingData{
		EventID: "evt-1",
		Lines: map[string]models.SportsbookLine{
			"book-a": {Spread: models.Spread{PointSpreadHome: f(-2), PointSpreadAway: f(2)}},
		},
	}
	osv := NewOddsService(bs)

	lines, err := osv.ConsensusLines(context.Background(), []string{"evt-1", "evt-unknown"})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.NotNil(t, lines["evt-1"].SpreadHome)
	assert.Nil(t, lines["evt-unknown"].SpreadHome)
	assert.Equal(t, 1, bs.bulkCalls, "one batched query expected")
}

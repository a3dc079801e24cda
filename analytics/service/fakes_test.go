package service

import (
	"context"

	"github.com/bettorstats/analytics-services/analytics/store"
	"github.com/bettorstats/analytics-services/shared/models"
)

// fakeBettingStore serves betting documents from memory and counts calls so
// tests can assert on query batching.
type fakeBettingStore struct {
	data        map[string]*models.BettingData
	err         error
	singleCalls int
	bulkCalls   int
}

func newFakeBettingStore() *fakeBettingStore {
	return &fakeBettingStore{data: make(map[string]*models.BettingData)}
}

func (fs *fakeBettingStore) EventBettingData(_ context.Context, eventID string) (*models.BettingData, error) {
	fs.singleCalls++
	if fs.err != nil {
		return nil, fs.err
	}
	data, ok := fs.data[eventID]
	if !ok {
		return nil, store.ErrBettingDataNotFound
	}
	return data, nil
}

func (fs *fakeBettingStore) EventsBettingData(_ context.Context, eventIDs []string) (map[string]*models.BettingData, error) {
	fs.bulkCalls++
	if fs.err != nil {
		return nil, fs.err
	}
	result := make(map[string]*models.BettingData)
	for _, id := range eventIDs {
		if data, ok := fs.data[id]; ok {
			result[id] = data
		}
	}
	return result, nil
}

// fakeGameStore serves game documents from memory and counts calls.
type fakeGameStore struct {
	games       []models.Game
	err         error
	singleCalls int
	bulkCalls   int
}

func (fs *fakeGameStore) TeamSeasonGames(_ context.Context, sportID, teamID, seasonYear int) ([]models.Game, error) {
	fs.singleCalls++
	if fs.err != nil {
		return nil, fs.err
	}
	var result []models.Game
	for _, game := range fs.games {
		if game.SportID == sportID && game.SeasonYear == seasonYear && game.InvolvesTeam(teamID) {
			result = append(result, game)
		}
	}
	return result, nil
}

func (fs *fakeGameStore) TeamsSeasonGames(_ context.Context, sportID int, teamIDs []int, seasonYear int) ([]models.Game, error) {
	fs.bulkCalls++
	if fs.err != nil {
		return nil, fs.err
	}
	var result []models.Game
	for _, game := range fs.games {
		if game.SportID != sportID || game.SeasonYear != seasonYear {
			continue
		}
		for _, id := range teamIDs {
			if game.InvolvesTeam(id) {
				result = append(result, game)
				break
			}
		}
	}
	return result, nil
}

// analytics/store/game_store.go
package store

import (
	"context"
	"fmt"

	"github.com/bettorstats/analytics-services/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GameStore represents the MongoDB data store for game documents. The
// aggregation engine consumes it read-only.
type GameStore struct {
	collection *mongo.Collection
}

// NewGameStore creates a new GameStore instance.
func NewGameStore(collection *mongo.Collection) *GameStore {
	return &GameStore{
		collection: collection,
	}
}

// TeamSeasonGames retrieves every game in a season where the team played on
// either side, sorted most-recent-first.
func (gs *GameStore) TeamSeasonGames(ctx context.Context, sportID, teamID, seasonYear int) ([]models.Game, error) {
	filter := bson.M{
		"sport_id":    sportID,
		"season_year": seasonYear,
		"$or": []bson.M{
			{"home_team_id": teamID},
			{"away_team_id": teamID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date_event", Value: -1}})

	cursor, err := gs.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find season games for team %d: %w", teamID, err)
	}
	defer cursor.Close(ctx)

	var games []models.Game
	if err = cursor.All(ctx, &games); err != nil {
		return nil, fmt.Errorf("failed to decode season games for team %d: %w", teamID, err)
	}
	return games, nil
}

// TeamsSeasonGames retrieves the season games for several teams with a
// single query. Callers partition the result per team; the combined result
// set is identical to querying each team independently.
func (gs *GameStore) TeamsSeasonGames(ctx context.Context, sportID int, teamIDs []int, seasonYear int) ([]models.Game, error) {
	filter := bson.M{
		"sport_id":    sportID,
		"season_year": seasonYear,
		"$or": []bson.M{
			{"home_team_id": bson.M{"$in": teamIDs}},
			{"away_team_id": bson.M{"$in": teamIDs}},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date_event", Value: -1}})

	cursor, err := gs.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find season games for teams %v: %w", teamIDs, err)
	}
	defer cursor.Close(ctx)

	var games []models.Game
	if err = cursor.All(ctx, &games); err != nil {
		return nil, fmt.Errorf("failed to decode season games for teams %v: %w", teamIDs, err)
	}
	return games, nil
}

// analytics/store/betting_store.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/bettorstats/analytics-services/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrBettingDataNotFound is returned when an event has no betting document.
var ErrBettingDataNotFound = errors.New("betting data not found")

// BettingStore represents the MongoDB data store for per-event sportsbook
// lines. One document per event id, with a lines map keyed by sportsbook id.
type BettingStore struct {
	collection *mongo.Collection
}

// NewBettingStore creates a new BettingStore instance.
func NewBettingStore(collection *mongo.Collection) *BettingStore {
	return &BettingStore{
		collection: collection,
	}
}

// EventBettingData retrieves the betting document for a single event.
func (bs *BettingStore) EventBettingData(ctx context.Context, eventID string) (*models.BettingData, error) {
	var data models.BettingData
	filter := bson.M{"_id": eventID}
	err := bs.collection.FindOne(ctx, filter).Decode(&data)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrBettingDataNotFound
		}
		return nil, fmt.Errorf("failed to get betting data for event %s: %w", eventID, err)
	}
	return &data, nil
}

// EventsBettingData retrieves betting documents for many events with a
// single query, returned as a map keyed by event id. Events without a
// document are simply absent from the map.
func (bs *BettingStore) EventsBettingData(ctx context.Context, eventIDs []string) (map[string]*models.BettingData, error) {
	result := make(map[string]*models.BettingData, len(eventIDs))
	if len(eventIDs) == 0 {
		return result, nil
	}

	filter := bson.M{"_id": bson.M{"$in": eventIDs}}
	cursor, err := bs.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find betting data for %d events: %w", len(eventIDs), err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var data models.BettingData
		if err := cursor.Decode(&data); err != nil {
			return nil, fmt.Errorf("failed to decode betting data document: %w", err)
		}
		result[data.EventID] = &data
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error during betting data cursor iteration: %w", err)
	}
	return result, nil
}

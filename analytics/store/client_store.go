// analytics/store/client_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bettorstats/analytics-services/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrClientNotFound is returned when no client matches the lookup.
	ErrClientNotFound = errors.New("api client not found")
	// ErrClientExists is returned when creating a client whose id already exists.
	ErrClientExists = errors.New("api client already exists")
)

// ClientStore represents the MongoDB data store for API client records.
// Only key hashes are ever stored here, never raw keys.
type ClientStore struct {
	collection *mongo.Collection
}

// NewClientStore creates a new ClientStore instance.
func NewClientStore(collection *mongo.Collection) *ClientStore {
	return &ClientStore{
		collection: collection,
	}
}

// GetClientByKeyHash retrieves the client owning the given key hash.
func (cs *ClientStore) GetClientByKeyHash(ctx context.Context, keyHash string) (*models.ApiClient, error) {
	var client models.ApiClient
	filter := bson.M{"key_hash": keyHash}
	err := cs.collection.FindOne(ctx, filter).Decode(&client)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to look up api client by key hash: %w", err)
	}
	return &client, nil
}

// GetClientByID retrieves a client by its id.
func (cs *ClientStore) GetClientByID(ctx context.Context, id string) (*models.ApiClient, error) {
	var client models.ApiClient
	filter := bson.M{"_id": id}
	err := cs.collection.FindOne(ctx, filter).Decode(&client)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get api client %s: %w", id, err)
	}
	return &client, nil
}

// CreateClient inserts a new client document.
func (cs *ClientStore) CreateClient(ctx context.Context, client *models.ApiClient) error {
	_, err := cs.collection.InsertOne(ctx, client)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrClientExists
		}
		return fmt.Errorf("failed to create api client %s: %w", client.ID, err)
	}
	return nil
}

// UpdateClientStatus updates a client's status (active/suspended).
func (cs *ClientStore) UpdateClientStatus(ctx context.Context, id, status string) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"status": status}}
	res, err := cs.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update status for api client %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrClientNotFound
	}
	return nil
}

// StampLastUsed updates only the LastUsedAt timestamp for a client. Callers
// treat this as best-effort; a failure never blocks request handling.
func (cs *ClientStore) StampLastUsed(ctx context.Context, id string) error {
	filter := bson.M{"_id": id}
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{"last_used_at": &now}}
	res, err := cs.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to stamp last used for api client %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrClientNotFound
	}
	return nil
}

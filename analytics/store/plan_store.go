// analytics/store/plan_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bettorstats/analytics-services/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrPlanNotFound is returned when no plan matches the lookup.
var ErrPlanNotFound = errors.New("api plan not found")

// PlanStore represents the MongoDB data store for API plan documents.
type PlanStore struct {
	collection *mongo.Collection
}

// NewPlanStore creates a new PlanStore instance.
func NewPlanStore(collection *mongo.Collection) *PlanStore {
	return &PlanStore{
		collection: collection,
	}
}

// GetPlan retrieves a plan by its id.
func (ps *PlanStore) GetPlan(ctx context.Context, id string) (*models.ApiPlan, error) {
	var plan models.ApiPlan
	filter := bson.M{"_id": id}
	err := ps.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get api plan %s: %w", id, err)
	}
	return &plan, nil
}

// EnsurePlansExist initializes default plan documents if they don't exist.
func (ps *PlanStore) EnsurePlansExist(ctx context.Context, plans []models.ApiPlan) error {
	for _, plan := range plans {
		filter := bson.M{"_id": plan.ID}
		update := bson.M{
			"$setOnInsert": bson.M{
				"name":                  plan.Name,
				"status":                plan.Status,
				"requests_per_minute":   plan.RequestsPerMinute,
				"daily_request_limit":   plan.DailyRequestLimit,
				"monthly_request_limit": plan.MonthlyRequestLimit,
				"allowed_endpoints":     plan.AllowedEndpoints,
				"allowed_sports":        plan.AllowedSports,
			},
		}
		opts := options.Update().SetUpsert(true)

		result, err := ps.collection.UpdateOne(ctx, filter, update, opts)
		if err != nil {
			return fmt.Errorf("failed to upsert api plan %s: %w", plan.ID, err)
		}
		if result.UpsertedID != nil {
			log.Printf("INFO: Initialized api plan '%s' in database.", plan.ID)
		}
	}
	return nil
}

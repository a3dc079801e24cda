// analytics/store/usage_store.go
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bettorstats/analytics-services/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UsageStore manages the three fixed-window usage counter collections
// (minute/daily/monthly). Every increment is a single atomic
// find-and-increment-or-insert at the store level, so concurrent requests
// from the same client never lose updates. The quota decision belongs to
// the caller; this store only counts.
type UsageStore struct {
	minute  *mongo.Collection
	daily   *mongo.Collection
	monthly *mongo.Collection
}

// NewUsageStore creates a new UsageStore instance.
func NewUsageStore(minute, daily, monthly *mongo.Collection) *UsageStore {
	return &UsageStore{
		minute:  minute,
		daily:   daily,
		monthly: monthly,
	}
}

// EnsureIndexes creates the TTL index that cleans up expired minute-window
// documents. The expiry exists for storage cleanup only; the limiting
// window is defined by the document key.
func (us *UsageStore) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	if _, err := us.minute.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("failed to create TTL index on minute usage collection: %w", err)
	}
	return nil
}

// IncrementMinute atomically increments the minute-window counter for a
// client, creating the document with count=1 if absent, and returns the
// post-increment count.
func (us *UsageStore) IncrementMinute(ctx context.Context, clientID, window string, expiresAt time.Time) (int64, error) {
	filter := bson.M{"_id": counterID(clientID, window)}
	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$setOnInsert": bson.M{
			"client_id":  clientID,
			"window":     window,
			"expires_at": expiresAt,
		},
	}
	return us.findAndIncrement(ctx, us.minute, filter, update, clientID, window)
}

// IncrementDaily atomically increments the day-window counter and the
// per-endpoint diagnostic sub-count, returning the post-increment total.
func (us *UsageStore) IncrementDaily(ctx context.Context, clientID, window, endpoint string) (int64, error) {
	return us.findAndIncrement(ctx, us.daily, bson.M{"_id": counterID(clientID, window)}, endpointUpdate(clientID, window, endpoint), clientID, window)
}

// IncrementMonthly atomically increments the month-window counter and the
// per-endpoint diagnostic sub-count, returning the post-increment total.
func (us *UsageStore) IncrementMonthly(ctx context.Context, clientID, window, endpoint string) (int64, error) {
	return us.findAndIncrement(ctx, us.monthly, bson.M{"_id": counterID(clientID, window)}, endpointUpdate(clientID, window, endpoint), clientID, window)
}

// MinuteCount reads the current minute-window count without incrementing.
func (us *UsageStore) MinuteCount(ctx context.Context, clientID, window string) (int64, error) {
	return us.windowCount(ctx, us.minute, clientID, window)
}

// DailyCount reads the current day-window count without incrementing.
func (us *UsageStore) DailyCount(ctx context.Context, clientID, window string) (int64, error) {
	return us.windowCount(ctx, us.daily, clientID, window)
}

// MonthlyCount reads the current month-window count without incrementing.
func (us *UsageStore) MonthlyCount(ctx context.Context, clientID, window string) (int64, error) {
	return us.windowCount(ctx, us.monthly, clientID, window)
}

func (us *UsageStore) findAndIncrement(ctx context.Context, coll *mongo.Collection, filter, update bson.M, clientID, window string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter models.UsageCounter
	err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to increment usage counter for client %s window %s: %w", clientID, window, err)
	}
	return counter.Count, nil
}

func (us *UsageStore) windowCount(ctx context.Context, coll *mongo.Collection, clientID, window string) (int64, error) {
	var counter models.UsageCounter
	filter := bson.M{"_id": counterID(clientID, window)}
	err := coll.FindOne(ctx, filter).Decode(&counter)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read usage counter for client %s window %s: %w", clientID, window, err)
	}
	return counter.Count, nil
}

func counterID(clientID, window string) string {
	return clientID + ":" + window
}

func endpointUpdate(clientID, window, endpoint string) bson.M {
	return bson.M{
		"$inc": bson.M{
			"count": 1,
			"endpoints." + endpointKey(endpoint): 1,
		},
		"$setOnInsert": bson.M{
			"client_id": clientID,
			"window":    window,
		},
	}
}

// endpointKey sanitizes an endpoint path into a Mongo-safe field name.
func endpointKey(endpoint string) string {
	replacer := strings.NewReplacer(".", "_", "$", "_")
	return replacer.Replace(strings.Trim(endpoint, "/"))
}

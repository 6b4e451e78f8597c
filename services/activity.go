package services

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"facebook-ingest/models"
)

// ActivityTracker records last-seen activity per subscribed resource
type ActivityTracker interface {
	TouchResource(ctx context.Context, resourceID string, at time.Time) error
	LastActivity(ctx context.Context, resourceID string) (*models.SubscriptionActivity, error)
}

// MongoActivityTracker keeps one subscription_activity document per
// resource, updated with an atomic upsert
type MongoActivityTracker struct{}

// NewMongoActivityTracker creates the Mongo-backed tracker
func NewMongoActivityTracker() *MongoActivityTracker {
	return &MongoActivityTracker{}
}

// TouchResource upserts last_activity_at for the resource
func (t *MongoActivityTracker) TouchResource(ctx context.Context, resourceID string, at time.Time) error {
	collection := GetDatabase().Collection("subscription_activity")

	filter := bson.M{"resource_id": resourceID}
	update := bson.M{
		"$set": bson.M{
			"last_activity_at": at,
		},
		"$setOnInsert": bson.M{
			"resource_id": resourceID,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := collection.UpdateOne(ctx, filter, update, opts); err != nil {
		slog.Error("Failed to update subscription activity",
			"resourceID", resourceID,
			"error", err)
		return err
	}

	return nil
}

// LastActivity returns the activity record for a resource, or nil when
// the resource has never been seen
func (t *MongoActivityTracker) LastActivity(ctx context.Context, resourceID string) (*models.SubscriptionActivity, error) {
	collection := GetDatabase().Collection("subscription_activity")

	var activity models.SubscriptionActivity
	err := collection.FindOne(ctx, bson.M{"resource_id": resourceID}).Decode(&activity)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &activity, nil
}

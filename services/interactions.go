package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"facebook-ingest/models"
)

// InteractionStore persists customer interactions produced by webhook
// events
type InteractionStore interface {
	CreateInteraction(ctx context.Context, interaction *models.CustomerInteraction) (string, error)
}

// MongoInteractionStore writes interactions to the interactions
// collection
type MongoInteractionStore struct{}

// NewMongoInteractionStore creates the Mongo-backed store
func NewMongoInteractionStore() *MongoInteractionStore {
	return &MongoInteractionStore{}
}

// CreateInteraction saves one interaction and returns its id. The
// interaction is keyed by event_id, so a dedup miss that slips through
// still overwrites the same document instead of creating a second one.
func (s *MongoInteractionStore) CreateInteraction(ctx context.Context, interaction *models.CustomerInteraction) (string, error) {
	collection := GetDatabase().Collection("interactions")

	now := time.Now()
	if interaction.InteractionID == "" {
		interaction.InteractionID = uuid.NewString()
	}
	interaction.CreatedAt = now

	filter := bson.M{"event_id": interaction.EventID}
	update := bson.M{"$setOnInsert": interaction}
	opts := options.Update().SetUpsert(true)

	result, err := collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		slog.Error("Failed to save interaction",
			"eventID", interaction.EventID,
			"customerID", interaction.CustomerID,
			"error", err)
		return "", err
	}

	if result.UpsertedCount > 0 {
		slog.Info("Interaction saved",
			"interactionID", interaction.InteractionID,
			"eventID", interaction.EventID,
			"kind", interaction.Kind,
			"customerID", interaction.CustomerID,
		)
	} else {
		slog.Debug("Interaction already exists",
			"eventID", interaction.EventID,
		)
	}

	return interaction.InteractionID, nil
}

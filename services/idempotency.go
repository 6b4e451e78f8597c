package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"facebook-ingest/models"
)

// MongoIdempotencyGuard dedups events against the processed_events
// collection. The insert races against concurrent redeliveries on the
// unique event_id index, so exactly one caller wins; everyone else gets
// a duplicate-key error and treats the event as already handled. Records
// survive restarts and age out via the TTL index on expires_at.
type MongoIdempotencyGuard struct {
	retention time.Duration
}

// NewMongoIdempotencyGuard creates a guard whose records expire after
// retention, which should cover the upstream redelivery horizon
func NewMongoIdempotencyGuard(retention time.Duration) *MongoIdempotencyGuard {
	return &MongoIdempotencyGuard{retention: retention}
}

// MarkProcessed atomically claims eventID. Returns true when this call
// inserted the record, false when the event was already processed.
func (g *MongoIdempotencyGuard) MarkProcessed(ctx context.Context, eventID string, receivedAt time.Time) (bool, error) {
	collection := GetDatabase().Collection("processed_events")

	record := models.ProcessedEventRecord{
		EventID:     eventID,
		ProcessedAt: receivedAt,
		ExpiresAt:   receivedAt.Add(g.retention),
	}

	_, err := collection.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

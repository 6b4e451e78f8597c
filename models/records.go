package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProcessedEventRecord marks an eventID as handled. The unique index on
// event_id is what makes the idempotency check-and-set atomic; expires_at
// carries a TTL index so Mongo evicts records after the redelivery horizon.
type ProcessedEventRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID     string             `bson:"event_id" json:"event_id"`
	ProcessedAt time.Time          `bson:"processed_at" json:"processed_at"`
	ExpiresAt   time.Time          `bson:"expires_at" json:"expires_at"`
}

// SubscriptionActivity records the last time any event arrived for a
// subscribed resource, for health monitoring
type SubscriptionActivity struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ResourceID     string             `bson:"resource_id" json:"resource_id"`
	LastActivityAt time.Time          `bson:"last_activity_at" json:"last_activity_at"`
}

// CustomerInteraction is one persisted customer touchpoint (message,
// comment, reaction, rating...) produced by a webhook event
type CustomerInteraction struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InteractionID string             `bson:"interaction_id" json:"interaction_id"`
	EventID       string             `bson:"event_id" json:"event_id"`
	CustomerID    string             `bson:"customer_id" json:"customer_id"`
	CustomerName  string             `bson:"customer_name,omitempty" json:"customer_name,omitempty"`
	PageID        string             `bson:"page_id" json:"page_id"`
	Kind          string             `bson:"kind" json:"kind"` // message | postback | comment | reaction | rating | live_video
	Message       string             `bson:"message,omitempty" json:"message,omitempty"`
	Rating        int                `bson:"rating,omitempty" json:"rating,omitempty"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

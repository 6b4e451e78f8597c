package services

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	mongoClient *mongo.Client
	database    *mongo.Database
)

// GetDatabase returns the MongoDB database instance
func GetDatabase() *mongo.Database {
	return database
}

// InitMongoDB initializes MongoDB connection
func InitMongoDB(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	slog.Info("Connected to MongoDB")
	mongoClient = client

	return client, nil
}

// InitServices initializes all services
func InitServices(client *mongo.Client, databaseName string) {
	database = client.Database(databaseName)

	// Create indexes
	createIndexes()
}

// createIndexes creates necessary database indexes
func createIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Processed events: the unique event_id index is the atomic
	// check-and-set; the TTL index evicts records once the upstream
	// redelivery horizon has passed
	processedCollection := database.Collection("processed_events")
	processedCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"event_id": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.M{"expires_at": 1}, Options: options.Index().SetExpireAfterSeconds(0)},
	})

	// Subscription activity, one document per subscribed resource
	activityCollection := database.Collection("subscription_activity")
	activityCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"resource_id": 1},
		Options: options.Index().SetUnique(true),
	})

	// Interactions collection indexes
	interactionsCollection := database.Collection("interactions")
	interactionsCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"customer_id": 1}},
		{Keys: bson.M{"page_id": 1}},
		{Keys: bson.M{"event_id": 1}},
		{Keys: bson.M{"timestamp": -1}},
	})
}

package services

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"insta-tracker/config"
)

const (
	reportsCollection      = "reports"
	accountsCollection     = "accounts"
	profileCacheCollection = "profile_cache"
	sessionsCollection     = "sessions"
)

var (
	mongoClient *mongo.Client
	database    *mongo.Database
	appConfig   *config.Config
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

// InitServices wires the database handle and configuration for all services
func InitServices(client *mongo.Client, cfg *config.Config) {
	database = client.Database(cfg.DatabaseName)
	appConfig = cfg

	createIndexes()
}

// createIndexes creates necessary database indexes
func createIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Reports are keyed by calendar date (_id, unique by definition); the
	// generated_at index serves the newest-first history queries.
	reports := database.Collection(reportsCollection)
	reports.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.M{"generated_at": -1},
	})

	// Accounts directory lookups by username
	accounts := database.Collection(accountsCollection)
	accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.M{"username": 1},
	})

	// Profile cache: one entry per username, expired by Mongo via TTL
	profileCache := database.Collection(profileCacheCollection)
	profileCache.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"username": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.M{"expire_at": 1}, Options: options.Index().SetExpireAfterSeconds(0)},
	})

	// Sessions collection indexes
	sessions := database.Collection(sessionsCollection)
	sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"session_id": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.M{"expires_at": 1}},
	})
}

package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongoDB connects, pings and makes sure the chunk collection carries
// the unique record_key index that turns re-ingestion into an upsert. The
// Atlas vector search index is created separately by the vector store.
func ConnectMongoDB(ctx context.Context, cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetAppName("rag-chat-platform").
		SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	chunks := client.Database(cfg.DBName).Collection(cfg.VectorCollection)
	_, err = chunks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "record_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("record_key_unique"),
		},
		{
			Keys: bson.D{{Key: "source_url", Value: 1}, {Key: "sequence_index", Value: 1}},
		},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return client, nil
}

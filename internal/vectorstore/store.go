// Package vectorstore defines the vector store capability and builds the configured backend.
package vectorstore

import (
	"context"
	"fmt"

	"rag-chat-platform/internal/config"
	"rag-chat-platform/internal/vectorstore/memory"
	"rag-chat-platform/internal/vectorstore/mongo"
	"rag-chat-platform/internal/vectorstore/qdrant"
	"rag-chat-platform/models"
)

// Store persists embedded chunks and answers nearest-neighbour queries.
//
// Every vector passed to Upsert or Search must have the collection's dimension;
// a mismatch fails with an error matching apperrors.ErrDimensionMismatch.
// CreateCollection on an existing collection of the same dimension fails with
// an error matching apperrors.ErrCollectionExists.
type Store interface {
	CreateCollection(ctx context.Context, dimension int, metric models.SimilarityMetric) error
	Upsert(ctx context.Context, record models.StoredRecord) error
	// Search returns at most k results, best match first
	Search(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error)
	Close() error
}

// New builds the backend named by VECTOR_STORE
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.VectorStore {
	case "memory", "":
		return memory.NewStorage(), nil

	case "mongo":
		client, err := config.ConnectMongoDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &closingStore{
			Store: mongo.NewStorage(client.Database(cfg.DBName), cfg.VectorCollection, cfg.VectorIndexName, cfg.VectorDimensions),
			close: func() error { return client.Disconnect(context.Background()) },
		}, nil

	case "qdrant":
		return qdrant.Dial(cfg.QdrantHost, cfg.QdrantPort, cfg.VectorCollection, cfg.VectorDimensions)

	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore)
	}
}

// closingStore releases a connection the backend does not own
type closingStore struct {
	Store
	close func() error
}

func (s *closingStore) Close() error {
	if err := s.Store.Close(); err != nil {
		return err
	}
	return s.close()
}

// Package mongo stores chunks in a MongoDB Atlas collection and searches them
// with the $vectorSearch aggregation stage.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"rag-chat-platform/internal/apperrors"
	"rag-chat-platform/models"
)

// Server error codes
const (
	codeBadValue           = 2
	codeNamespaceExists    = 48
	codeIndexAlreadyExists = 68
)

type Storage struct {
	db        *mongo.Database
	col       *mongo.Collection
	indexName string
	dimension int
}

// NewStorage binds to one collection. dimension is the configured vector size
// used to validate upserts and queries.
func NewStorage(db *mongo.Database, collection, indexName string, dimension int) *Storage {
	return &Storage{
		db:        db,
		col:       db.Collection(collection),
		indexName: indexName,
		dimension: dimension,
	}
}

func (s *Storage) CreateCollection(ctx context.Context, dimension int, metric models.SimilarityMetric) error {
	if s.dimension != 0 && dimension != s.dimension {
		return apperrors.DimensionMismatch("mongo.create_collection", s.dimension, dimension)
	}

	if err := s.db.CreateCollection(ctx, s.col.Name()); err != nil && !hasCode(err, codeNamespaceExists) {
		return classify("mongo.create_collection", err)
	}

	model := mongo.SearchIndexModel{
		Definition: bson.D{
			{Key: "fields", Value: bson.A{
				bson.D{
					{Key: "type", Value: "vector"},
					{Key: "path", Value: "vector"},
					{Key: "numDimensions", Value: dimension},
					{Key: "similarity", Value: similarity(metric)},
				},
			}},
		},
		Options: options.SearchIndexes().SetName(s.indexName).SetType("vectorSearch"),
	}
	if _, err := s.col.SearchIndexes().CreateOne(ctx, model); err != nil {
		if hasCode(err, codeIndexAlreadyExists) {
			existing, lerr := s.indexDimensions(ctx)
			if lerr != nil {
				return classify("mongo.list_search_indexes", lerr)
			}
			if existing != 0 && existing != dimension {
				s.dimension = existing
				return apperrors.DimensionMismatch("mongo.create_collection", existing, dimension)
			}
			s.dimension = dimension
			return apperrors.New(apperrors.KindCollectionExists, "mongo.create_collection", err)
		}
		return classify("mongo.create_search_index", err)
	}

	s.dimension = dimension
	return nil
}

// searchIndex is the part of a $listSearchIndexes entry that carries the
// vector field definition
type searchIndex struct {
	Name             string `bson:"name"`
	LatestDefinition struct {
		Fields []struct {
			Type          string `bson:"type"`
			Path          string `bson:"path"`
			NumDimensions int    `bson:"numDimensions"`
		} `bson:"fields"`
	} `bson:"latestDefinition"`
}

// vectorDimensions returns numDimensions of the vector field on path
// "vector", or 0 when the definition has none.
func (idx searchIndex) vectorDimensions() int {
	for _, f := range idx.LatestDefinition.Fields {
		if f.Type == "vector" && f.Path == "vector" {
			return f.NumDimensions
		}
	}
	return 0
}

// indexDimensions reads the dimension of the existing search index.
// Zero means the index could not be found or has no vector field.
func (s *Storage) indexDimensions(ctx context.Context) (int, error) {
	cursor, err := s.col.SearchIndexes().List(ctx, options.SearchIndexes().SetName(s.indexName))
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var indexes []searchIndex
	if err := cursor.All(ctx, &indexes); err != nil {
		return 0, err
	}
	for _, idx := range indexes {
		if idx.Name == s.indexName {
			return idx.vectorDimensions(), nil
		}
	}
	return 0, nil
}

// Upsert is keyed on record_key so re-ingestion replaces earlier copies
func (s *Storage) Upsert(ctx context.Context, record models.StoredRecord) error {
	if len(record.Vector) != s.dimension {
		return apperrors.DimensionMismatch("mongo.upsert", s.dimension, len(record.Vector))
	}

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"record_key":     record.RecordKey,
			"text":           record.Text,
			"vector":         record.Vector,
			"source_url":     record.SourceURL,
			"sequence_index": record.SequenceIndex,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := s.col.UpdateOne(ctx,
		bson.M{"record_key": record.RecordKey},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return classify("mongo.upsert", err)
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error) {
	ctx, span := otel.Tracer("vectorstore").Start(ctx, "mongo.vector_search")
	defer span.End()
	span.SetAttributes(attribute.Int("vectorstore.k", k))

	if len(vector) != s.dimension {
		return nil, apperrors.DimensionMismatch("mongo.search", s.dimension, len(vector))
	}
	if k <= 0 {
		return []models.SearchResult{}, nil
	}

	cursor, err := s.col.Aggregate(ctx, searchPipeline(s.indexName, vector, k))
	if err != nil {
		return nil, classify("mongo.search", err)
	}
	defer cursor.Close(ctx)

	results := []models.SearchResult{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, classify("mongo.search", err)
	}
	span.SetAttributes(attribute.Int("vectorstore.results", len(results)))
	return results, nil
}

func (s *Storage) Close() error { return nil }

func searchPipeline(indexName string, vector []float32, k int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: indexName},
			{Key: "path", Value: "vector"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: k * 10},
			{Key: "limit", Value: k},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "text", Value: 1},
			{Key: "source_url", Value: 1},
			{Key: "sequence_index", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
}

func similarity(metric models.SimilarityMetric) string {
	switch metric {
	case models.MetricCosine:
		return "cosine"
	case models.MetricEuclidean:
		return "euclidean"
	default:
		return "dotProduct"
	}
}

func hasCode(err error, code int) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(code)
}

// classify maps driver failures; a malformed $vectorSearch stage comes back
// as a command error with code 2 (BadValue).
func classify(op string, err error) error {
	if hasCode(err, codeBadValue) {
		return apperrors.New(apperrors.KindInvalidInput, op, err)
	}
	return apperrors.New(apperrors.KindProviderUnavailable, op, err)
}

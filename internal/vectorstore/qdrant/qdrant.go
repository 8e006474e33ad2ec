// Package qdrant stores chunks in a Qdrant collection over gRPC
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"rag-chat-platform/internal/apperrors"
	"rag-chat-platform/models"
)

// Point ids are name-based UUIDs derived from the record key in this namespace
var pointNamespace = uuid.MustParse("6f1d7b5e-8a42-4c0e-9b1c-3a6d2f7e5c10")

type Storage struct {
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	conn        *grpc.ClientConn
	collection  string
	dimension   int
}

// Dial opens a plaintext gRPC connection to Qdrant (port 6334 by default)
func Dial(host string, port int, collection string, dimension int) (*Storage, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s: %w", addr, err)
	}
	s := NewStorage(qdrantclient.NewCollectionsClient(conn), qdrantclient.NewPointsClient(conn), collection, dimension)
	s.conn = conn
	return s, nil
}

func NewStorage(collections qdrantclient.CollectionsClient, points qdrantclient.PointsClient, collection string, dimension int) *Storage {
	return &Storage{
		collections: collections,
		points:      points,
		collection:  collection,
		dimension:   dimension,
	}
}

func (s *Storage) CreateCollection(ctx context.Context, dimension int, metric models.SimilarityMetric) error {
	list, err := s.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return classify("qdrant.list_collections", err)
	}

	for _, c := range list.GetCollections() {
		if c.GetName() != s.collection {
			continue
		}
		info, err := s.collections.Get(ctx, &qdrantclient.GetCollectionInfoRequest{CollectionName: s.collection})
		if err != nil {
			return classify("qdrant.get_collection", err)
		}
		size := int(info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize())
		if size != dimension {
			return apperrors.DimensionMismatch("qdrant.create_collection", size, dimension)
		}
		s.dimension = dimension
		return apperrors.New(apperrors.KindCollectionExists, "qdrant.create_collection", nil)
	}

	_, err = s.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(dimension),
					Distance: distance(metric),
				},
			},
		},
	})
	if err != nil {
		return classify("qdrant.create_collection", err)
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Upsert(ctx context.Context, record models.StoredRecord) error {
	if len(record.Vector) != s.dimension {
		return apperrors.DimensionMismatch("qdrant.upsert", s.dimension, len(record.Vector))
	}

	wait := true
	_, err := s.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: []*qdrantclient.PointStruct{
			{
				Id:      qdrantclient.NewIDUUID(PointID(record).String()),
				Vectors: qdrantclient.NewVectors(record.Vector...),
				Payload: qdrantclient.NewValueMap(map[string]any{
					"record_key":     record.RecordKey,
					"text":           record.Text,
					"source":         record.SourceURL,
					"sequence_index": record.SequenceIndex,
				}),
			},
		},
	})
	if err != nil {
		return classify("qdrant.upsert", err)
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error) {
	ctx, span := otel.Tracer("vectorstore").Start(ctx, "qdrant.search")
	defer span.End()
	span.SetAttributes(attribute.Int("vectorstore.k", k))

	if len(vector) != s.dimension {
		return nil, apperrors.DimensionMismatch("qdrant.search", s.dimension, len(vector))
	}
	if k <= 0 {
		return []models.SearchResult{}, nil
	}

	resp, err := s.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, classify("qdrant.search", err)
	}

	results := make([]models.SearchResult, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		payload := point.GetPayload()
		results = append(results, models.SearchResult{
			Text:          payload["text"].GetStringValue(),
			SourceURL:     payload["source"].GetStringValue(),
			SequenceIndex: int(payload["sequence_index"].GetIntegerValue()),
			Score:         float64(point.GetScore()),
		})
	}
	span.SetAttributes(attribute.Int("vectorstore.results", len(results)))
	return results, nil
}

func (s *Storage) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// PointID is stable for a record key, so upserting the same chunk overwrites it
func PointID(record models.StoredRecord) uuid.UUID {
	key := record.RecordKey
	if key == "" {
		return uuid.New()
	}
	return uuid.NewSHA1(pointNamespace, []byte(key))
}

func distance(metric models.SimilarityMetric) qdrantclient.Distance {
	switch metric {
	case models.MetricCosine:
		return qdrantclient.Distance_Cosine
	case models.MetricEuclidean:
		return qdrantclient.Distance_Euclid
	default:
		return qdrantclient.Distance_Dot
	}
}

func classify(op string, err error) error {
	switch status.Code(err) {
	case codes.AlreadyExists:
		return apperrors.New(apperrors.KindCollectionExists, op, err)
	case codes.InvalidArgument:
		return apperrors.New(apperrors.KindInvalidInput, op, err)
	case codes.ResourceExhausted:
		return apperrors.New(apperrors.KindRateLimited, op, err)
	default:
		return apperrors.New(apperrors.KindProviderUnavailable, op, err)
	}
}

package qdrant

import (
	"context"
	"testing"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rag-chat-platform/internal/apperrors"
	"rag-chat-platform/models"
)

type fakeCollections struct {
	qdrantclient.CollectionsClient
	existing map[string]uint64
	created  []*qdrantclient.CreateCollection
}

func (f *fakeCollections) List(ctx context.Context, in *qdrantclient.ListCollectionsRequest, opts ...grpc.CallOption) (*qdrantclient.ListCollectionsResponse, error) {
	resp := &qdrantclient.ListCollectionsResponse{}
	for name := range f.existing {
		resp.Collections = append(resp.Collections, &qdrantclient.CollectionDescription{Name: name})
	}
	return resp, nil
}

func (f *fakeCollections) Get(ctx context.Context, in *qdrantclient.GetCollectionInfoRequest, opts ...grpc.CallOption) (*qdrantclient.GetCollectionInfoResponse, error) {
	size, ok := f.existing[in.GetCollectionName()]
	if !ok {
		return nil, status.Error(codes.NotFound, "not found")
	}
	return &qdrantclient.GetCollectionInfoResponse{
		Result: &qdrantclient.CollectionInfo{
			Config: &qdrantclient.CollectionConfig{
				Params: &qdrantclient.CollectionParams{
					VectorsConfig: &qdrantclient.VectorsConfig{
						Config: &qdrantclient.VectorsConfig_Params{
							Params: &qdrantclient.VectorParams{Size: size},
						},
					},
				},
			},
		},
	}, nil
}

func (f *fakeCollections) Create(ctx context.Context, in *qdrantclient.CreateCollection, opts ...grpc.CallOption) (*qdrantclient.CollectionOperationResponse, error) {
	f.created = append(f.created, in)
	return &qdrantclient.CollectionOperationResponse{Result: true}, nil
}

type fakePoints struct {
	qdrantclient.PointsClient
	upserts  []*qdrantclient.UpsertPoints
	searches []*qdrantclient.SearchPoints
	result   []*qdrantclient.ScoredPoint
	err      error
}

func (f *fakePoints) Upsert(ctx context.Context, in *qdrantclient.UpsertPoints, opts ...grpc.CallOption) (*qdrantclient.PointsOperationResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.upserts = append(f.upserts, in)
	return &qdrantclient.PointsOperationResponse{}, nil
}

func (f *fakePoints) Search(ctx context.Context, in *qdrantclient.SearchPoints, opts ...grpc.CallOption) (*qdrantclient.SearchResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.searches = append(f.searches, in)
	return &qdrantclient.SearchResponse{Result: f.result}, nil
}

func TestCreateCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("new", func(t *testing.T) {
		cols := &fakeCollections{existing: map[string]uint64{}}
		s := NewStorage(cols, &fakePoints{}, "f1gpt", 768)
		require.NoError(t, s.CreateCollection(ctx, 768, models.MetricDotProduct))
		require.Len(t, cols.created, 1)
		params := cols.created[0].GetVectorsConfig().GetParams()
		assert.Equal(t, uint64(768), params.GetSize())
		assert.Equal(t, qdrantclient.Distance_Dot, params.GetDistance())
	})

	t.Run("exists with same dimension", func(t *testing.T) {
		cols := &fakeCollections{existing: map[string]uint64{"f1gpt": 768}}
		s := NewStorage(cols, &fakePoints{}, "f1gpt", 768)
		err := s.CreateCollection(ctx, 768, models.MetricDotProduct)
		assert.ErrorIs(t, err, apperrors.ErrCollectionExists)
		assert.Empty(t, cols.created)
	})

	t.Run("exists with other dimension", func(t *testing.T) {
		cols := &fakeCollections{existing: map[string]uint64{"f1gpt": 1536}}
		s := NewStorage(cols, &fakePoints{}, "f1gpt", 768)
		err := s.CreateCollection(ctx, 768, models.MetricDotProduct)
		assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)
	})
}

func TestUpsertUsesStablePointID(t *testing.T) {
	points := &fakePoints{}
	s := NewStorage(&fakeCollections{}, points, "f1gpt", 2)
	chunk := models.DocumentChunk{Text: "DRS", SourceURL: "https://example.com", SequenceIndex: 3}
	rec := models.NewStoredRecord(chunk, []float32{0.5, 0.5})

	require.NoError(t, s.Upsert(context.Background(), rec))
	require.NoError(t, s.Upsert(context.Background(), rec))
	require.Len(t, points.upserts, 2)

	first := points.upserts[0].GetPoints()[0]
	second := points.upserts[1].GetPoints()[0]
	assert.Equal(t, first.GetId().GetUuid(), second.GetId().GetUuid())
	assert.Equal(t, "DRS", first.GetPayload()["text"].GetStringValue())
	assert.Equal(t, int64(3), first.GetPayload()["sequence_index"].GetIntegerValue())
}

func TestUpsertDimensionMismatch(t *testing.T) {
	points := &fakePoints{}
	s := NewStorage(&fakeCollections{}, points, "f1gpt", 768)
	err := s.Upsert(context.Background(), models.StoredRecord{RecordKey: "k", Vector: []float32{1}})
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)
	assert.Empty(t, points.upserts)
}

func TestSearch(t *testing.T) {
	points := &fakePoints{result: []*qdrantclient.ScoredPoint{
		{Score: 0.9, Payload: qdrantclient.NewValueMap(map[string]any{"text": "DRS opens a flap", "source": "https://a", "sequence_index": 1})},
		{Score: 0.5, Payload: qdrantclient.NewValueMap(map[string]any{"text": "Overtaking aid", "source": "https://b", "sequence_index": 0})},
	}}
	s := NewStorage(&fakeCollections{}, points, "f1gpt", 2)

	results, err := s.Search(context.Background(), []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "DRS opens a flap", results[0].Text)
	assert.Equal(t, "https://a", results[0].SourceURL)
	assert.Equal(t, 1, results[0].SequenceIndex)
	assert.InDelta(t, 0.9, results[0].Score, 1e-6)
	assert.Equal(t, uint64(10), points.searches[0].GetLimit())
	assert.Equal(t, "f1gpt", points.searches[0].GetCollectionName())
}

func TestSearchErrors(t *testing.T) {
	s := NewStorage(&fakeCollections{}, &fakePoints{err: status.Error(codes.Unavailable, "down")}, "f1gpt", 2)
	_, err := s.Search(context.Background(), []float32{1, 0}, 10)
	assert.ErrorIs(t, err, apperrors.ErrProviderUnavailable)

	_, err = s.Search(context.Background(), []float32{1}, 10)
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)
}

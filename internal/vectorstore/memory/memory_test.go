package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-chat-platform/internal/apperrors"
	"rag-chat-platform/models"
)

func record(key, text string, vec ...float32) models.StoredRecord {
	return models.StoredRecord{RecordKey: key, Text: text, Vector: vec, SourceURL: "https://example.com"}
}

func TestCreateCollection(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()

	require.NoError(t, s.CreateCollection(ctx, 3, models.MetricDotProduct))

	err := s.CreateCollection(ctx, 3, models.MetricDotProduct)
	assert.ErrorIs(t, err, apperrors.ErrCollectionExists)

	err = s.CreateCollection(ctx, 4, models.MetricDotProduct)
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)

	assert.ErrorIs(t, NewStorage().CreateCollection(ctx, 0, models.MetricCosine), apperrors.ErrInvalidInput)
}

func TestDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.CreateCollection(ctx, 3, models.MetricDotProduct))

	err := s.Upsert(ctx, record("a", "text", 1, 2))
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)

	_, err = s.Search(ctx, []float32{1, 2, 3, 4}, 5)
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)
	assert.Equal(t, 0, s.Len())
}

func TestSearchRanking(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		metric models.SimilarityMetric
		want   []string
	}{
		{models.MetricDotProduct, []string{"long", "aligned", "opposite"}},
		{models.MetricCosine, []string{"aligned", "long", "opposite"}},
		{models.MetricEuclidean, []string{"aligned", "opposite", "long"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			s := NewStorage()
			require.NoError(t, s.CreateCollection(ctx, 2, tt.metric))
			require.NoError(t, s.Upsert(ctx, record("1", "opposite", -1, 0)))
			require.NoError(t, s.Upsert(ctx, record("2", "aligned", 1, 0)))
			require.NoError(t, s.Upsert(ctx, record("3", "long", 3, 3)))

			results, err := s.Search(ctx, []float32{1, 0}, 10)
			require.NoError(t, err)
			require.Len(t, results, 3)
			for i, r := range results {
				assert.Equal(t, tt.want[i], r.Text)
			}
			assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
			assert.GreaterOrEqual(t, results[1].Score, results[2].Score)
		})
	}
}

func TestSearchLimitsAndEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.CreateCollection(ctx, 1, models.MetricDotProduct))

	results, err := s.Search(ctx, []float32{1}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	for i := 0; i < 15; i++ {
		require.NoError(t, s.Upsert(ctx, record(string(rune('a'+i)), "t", float32(i))))
	}
	results, err = s.Search(ctx, []float32{1}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 10)
	assert.Equal(t, float64(14), results[0].Score)
}

func TestUpsertReplacesByKey(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.CreateCollection(ctx, 2, models.MetricDotProduct))

	require.NoError(t, s.Upsert(ctx, record("k", "old", 1, 0)))
	id := snapshot(s)[0].ID
	require.NoError(t, s.Upsert(ctx, record("k", "new", 0, 1)))

	recs := snapshot(s)
	require.Len(t, recs, 1)
	assert.Equal(t, "new", recs[0].Text)
	assert.Equal(t, id, recs[0].ID)
	assert.NotEmpty(t, id)
}

func TestUpsertBeforeCreate(t *testing.T) {
	err := NewStorage().Upsert(context.Background(), record("k", "t", 1))
	assert.Error(t, err)
}

// snapshot copies the stored records in insertion order
func snapshot(s *Storage) []models.StoredRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.StoredRecord(nil), s.records...)
}

// Package memory is an in-process vector store using brute-force similarity.
// It backs tests and single-node development setups.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"rag-chat-platform/internal/apperrors"
	"rag-chat-platform/models"
)

type Storage struct {
	mu        sync.RWMutex
	created   bool
	dimension int
	metric    models.SimilarityMetric
	records   []models.StoredRecord
	byKey     map[string]int
}

func NewStorage() *Storage {
	return &Storage{byKey: map[string]int{}}
}

func (s *Storage) CreateCollection(ctx context.Context, dimension int, metric models.SimilarityMetric) error {
	if dimension <= 0 {
		return apperrors.New(apperrors.KindInvalidInput, "memory.create_collection", fmt.Errorf("invalid dimension %d", dimension))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.created {
		if s.dimension != dimension {
			return apperrors.DimensionMismatch("memory.create_collection", s.dimension, dimension)
		}
		return apperrors.New(apperrors.KindCollectionExists, "memory.create_collection", nil)
	}
	s.created = true
	s.dimension = dimension
	s.metric = metric
	return nil
}

// Upsert replaces a record with the same RecordKey, otherwise appends
func (s *Storage) Upsert(ctx context.Context, record models.StoredRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkDimension("memory.upsert", record.Vector); err != nil {
		return err
	}

	rec := record
	rec.Vector = append([]float32(nil), record.Vector...)
	if rec.RecordKey != "" {
		if i, ok := s.byKey[rec.RecordKey]; ok {
			rec.ID = s.records[i].ID
			s.records[i] = rec
			return nil
		}
	}
	rec.ID = uuid.NewString()
	s.records = append(s.records, rec)
	if rec.RecordKey != "" {
		s.byKey[rec.RecordKey] = len(s.records) - 1
	}
	return nil
}

// Search ranks every record; higher scores are more similar for all metrics
func (s *Storage) Search(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkDimension("memory.search", vector); err != nil {
		return nil, err
	}
	if k <= 0 || len(s.records) == 0 {
		return []models.SearchResult{}, nil
	}

	scores := make([]float64, len(s.records))
	for i, rec := range s.records {
		scores[i] = score(s.metric, rec.Vector, vector)
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })

	if k > len(idxs) {
		k = len(idxs)
	}
	results := make([]models.SearchResult, 0, k)
	for _, j := range idxs[:k] {
		rec := s.records[j]
		results = append(results, models.SearchResult{
			Text:          rec.Text,
			SourceURL:     rec.SourceURL,
			SequenceIndex: rec.SequenceIndex,
			Score:         scores[j],
		})
	}
	return results, nil
}

// Len returns the number of stored records
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Storage) Close() error { return nil }

func (s *Storage) checkDimension(op string, vector []float32) error {
	if !s.created {
		return apperrors.New(apperrors.KindProviderUnavailable, op, fmt.Errorf("collection not created"))
	}
	if len(vector) != s.dimension {
		return apperrors.DimensionMismatch(op, s.dimension, len(vector))
	}
	return nil
}

func score(metric models.SimilarityMetric, a, b []float32) float64 {
	switch metric {
	case models.MetricCosine:
		na, nb := norm(a), norm(b)
		if na == 0 || nb == 0 {
			return 0
		}
		return dot(a, b) / (na * nb)
	case models.MetricEuclidean:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return 1 / (1 + math.Sqrt(sum))
	default:
		return dot(a, b)
	}
}

func dot(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(a []float32) float64 {
	return math.Sqrt(dot(a, a))
}

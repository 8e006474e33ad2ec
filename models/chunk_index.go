package models

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// SimilarityMetric ranks stored vectors against a query vector
type SimilarityMetric string

const (
	MetricDotProduct SimilarityMetric = "dot_product"
	MetricCosine     SimilarityMetric = "cosine"
	MetricEuclidean  SimilarityMetric = "euclidean"
)

// ParseSimilarityMetric validates a metric name coming from configuration
func ParseSimilarityMetric(s string) (SimilarityMetric, error) {
	switch m := SimilarityMetric(s); m {
	case MetricDotProduct, MetricCosine, MetricEuclidean:
		return m, nil
	}
	return "", fmt.Errorf("unknown similarity metric: %q", s)
}

// DocumentChunk is one window of cleaned text cut from a source page.
// SequenceIndex is the position of the window inside its document.
type DocumentChunk struct {
	Text          string `json:"text" bson:"text"`
	SourceURL     string `json:"source_url" bson:"source_url"`
	SequenceIndex int    `json:"sequence_index" bson:"sequence_index"`
}

// RecordKey derives a stable key for the chunk so re-ingesting an unchanged
// source replaces the stored record instead of duplicating it.
func (c DocumentChunk) RecordKey() string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s#%d:%s", c.SourceURL, c.SequenceIndex, c.Text)))
	return hex.EncodeToString(sum[:])
}

// StoredRecord is a chunk persisted in the vector collection.
// ID is assigned by the store.
type StoredRecord struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	RecordKey     string    `json:"record_key" bson:"record_key"`
	Text          string    `json:"text" bson:"text"`
	Vector        []float32 `json:"vector,omitempty" bson:"vector"`
	SourceURL     string    `json:"source_url" bson:"source_url"`
	SequenceIndex int       `json:"sequence_index" bson:"sequence_index"`
}

// SearchResult is a stored record ranked against a query vector
type SearchResult struct {
	Text          string  `json:"text" bson:"text"`
	SourceURL     string  `json:"source_url" bson:"source_url"`
	SequenceIndex int     `json:"sequence_index" bson:"sequence_index"`
	Score         float64 `json:"score" bson:"score"`
}

// NewStoredRecord pairs a chunk with its embedding
func NewStoredRecord(chunk DocumentChunk, vector []float32) StoredRecord {
	return StoredRecord{
		RecordKey:     chunk.RecordKey(),
		Text:          chunk.Text,
		Vector:        vector,
		SourceURL:     chunk.SourceURL,
		SequenceIndex: chunk.SequenceIndex,
	}
}

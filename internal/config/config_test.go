package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-chat-platform/models"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 512, cfg.ChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, 768, cfg.VectorDimensions)
	assert.Equal(t, 10, cfg.SearchLimit)
	assert.Equal(t, models.MetricDotProduct, cfg.SimilarityMetric)
	assert.Equal(t, "memory", cfg.VectorStore)
	assert.Equal(t, 60*time.Second, cfg.RenderTimeout)
}

func TestLoadConfigRequiresGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigOllamaNeedsNoKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GENERATION_PROVIDER", "ollama")
	t.Setenv("EMBEDDINGS_PROVIDER", "ollama")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.GenerationProvider)
}

func TestLoadConfigRejectsBadChunking(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("CHUNK_SIZE", "100")
	t.Setenv("CHUNK_OVERLAP", "100")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnknownMetric(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("SIMILARITY_METRIC", "manhattan")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnknownStore(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("VECTOR_STORE", "pinecone")

	_, err := LoadConfig()
	assert.Error(t, err)
}

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-chat-platform/internal/apperrors"
)

func TestOllamaEmbedder(t *testing.T) {
	client := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req api.EmbeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "What is DRS?", req.Prompt)
		fmt.Fprint(w, `{"embedding":[0.5,-0.25,1]}`)
	})

	e := NewOllamaEmbedder(client, "nomic-embed-text", NewGuard("test", GetRateLimits("local"), nil))
	vec, err := e.Embed(context.Background(), "What is DRS?")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25, 1}, vec)
	assert.Equal(t, "nomic-embed-text", e.Model())
}

func TestOllamaEmbedderRateLimited(t *testing.T) {
	client := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"slow down"}`)
	})

	e := NewOllamaEmbedder(client, "nomic-embed-text", NewGuard("test", GetRateLimits("local"), nil))
	_, err := e.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, apperrors.ErrRateLimited)
}

func TestOllamaEmbedderEmptyVector(t *testing.T) {
	client := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"embedding":[]}`)
	})

	e := NewOllamaEmbedder(client, "nomic-embed-text", NewGuard("test", GetRateLimits("local"), nil))
	_, err := e.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, apperrors.ErrProviderUnavailable)
}

package ai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/ollama/ollama/api"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"rag-chat-platform/internal/apperrors"
)

// Embedder turns a piece of text into a fixed-length vector.
// The same Embedder must be used for ingestion and for queries.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Model names the embedding model; vectors from different models are not comparable.
	Model() string
}

// GeminiEmbedder calls the Google Generative AI embedding endpoint (text-embedding-004 by default)
type GeminiEmbedder struct {
	client *genai.Client
	model  string
	guard  *Guard
}

func NewGeminiEmbedder(client *genai.Client, model string, g *Guard) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, model: model, guard: g}
}

func (e *GeminiEmbedder) Model() string { return e.model }

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := otel.Tracer("gemini-client").Start(ctx, "gemini.embed_content")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", e.model),
		attribute.Int("gemini.input_chars", len(text)),
	)

	result, err := e.guard.Do(ctx, "gemini.embed", func() (interface{}, error) {
		resp, err := e.client.EmbeddingModel(e.model).EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
			return nil, apperrors.New(apperrors.KindProviderUnavailable, "gemini.embed", fmt.Errorf("no embedding returned"))
		}
		// genai SDK returns []float32 for Embedding.Values
		return resp.Embedding.Values, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return nil, err
	}
	return result.([]float32), nil
}

// OllamaEmbedder calls a local Ollama server
type OllamaEmbedder struct {
	client *api.Client
	model  string
	guard  *Guard
}

func NewOllamaEmbedder(client *api.Client, model string, g *Guard) *OllamaEmbedder {
	return &OllamaEmbedder{client: client, model: model, guard: g}
}

func (e *OllamaEmbedder) Model() string { return e.model }

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := otel.Tracer("ollama-client").Start(ctx, "ollama.embeddings")
	defer span.End()
	span.SetAttributes(attribute.String("ollama.model", e.model))

	result, err := e.guard.Do(ctx, "ollama.embed", func() (interface{}, error) {
		resp, err := e.client.Embeddings(ctx, &api.EmbeddingRequest{
			Model:  e.model,
			Prompt: text,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Embedding) == 0 {
			return nil, apperrors.New(apperrors.KindProviderUnavailable, "ollama.embed", fmt.Errorf("no embedding returned"))
		}
		// Ollama returns float64, stores take float32
		vector := make([]float32, len(resp.Embedding))
		for i, v := range resp.Embedding {
			vector[i] = float32(v)
		}
		return vector, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("ollama.error", true))
		return nil, err
	}
	return result.([]float32), nil
}

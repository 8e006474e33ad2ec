package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/ollama/ollama/api"
	"google.golang.org/api/option"

	"rag-chat-platform/internal/config"
	"rag-chat-platform/internal/telemetry"
)

// Clients holds the provider capabilities built once at process start
type Clients struct {
	Embedder  Embedder
	Generator Generator

	gemini *genai.Client
}

// NewClients builds the configured embedding and generation backends.
// Providers sharing an account share one Guard so the quota is counted once.
func NewClients(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) (*Clients, error) {
	c := &Clients{}

	var geminiGuard, ollamaGuard *Guard
	if cfg.GenerationProvider == "gemini" || cfg.EmbeddingsProvider == "google" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		c.gemini = client
		geminiGuard = NewGuard("GeminiAPI", GetRateLimits(cfg.GeminiTier), metrics)
	}

	var ollama *api.Client
	if cfg.GenerationProvider == "ollama" || cfg.EmbeddingsProvider == "ollama" {
		client, err := newOllamaClient(cfg.OllamaHost)
		if err != nil {
			c.Close()
			return nil, err
		}
		ollama = client
		ollamaGuard = NewGuard("Ollama", GetRateLimits("local"), metrics)
	}

	switch cfg.EmbeddingsProvider {
	case "google", "":
		c.Embedder = NewGeminiEmbedder(c.gemini, cfg.GoogleEmbeddingsModel, geminiGuard)
	case "ollama":
		c.Embedder = NewOllamaEmbedder(ollama, cfg.OllamaEmbeddingsModel, ollamaGuard)
	default:
		c.Close()
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}

	switch cfg.GenerationProvider {
	case "gemini", "":
		c.Generator = NewGeminiGenerator(c.gemini, cfg.GenerationModel, geminiGuard)
	case "ollama":
		c.Generator = NewOllamaGenerator(ollama, cfg.OllamaChatModel, ollamaGuard)
	default:
		c.Close()
		return nil, fmt.Errorf("unknown generation provider: %s", cfg.GenerationProvider)
	}

	return c, nil
}

func newOllamaClient(host string) (*api.Client, error) {
	ollamaURL, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST URL: %w", err)
	}
	// No overall timeout: streamed answers can legitimately run for minutes.
	// Requests are bounded by their context instead.
	httpClient := &http.Client{
		Transport: &http.Transport{
			ResponseHeaderTimeout: 30 * time.Second,
		},
	}
	return api.NewClient(ollamaURL, httpClient), nil
}

// Close the client
func (c *Clients) Close() error {
	if c.gemini != nil {
		return c.gemini.Close()
	}
	return nil
}

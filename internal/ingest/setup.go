package ingest

import (
	"time"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/chunker"
	"rag-chat-platform/internal/config"
	"rag-chat-platform/internal/crawler"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/sources"
	"rag-chat-platform/internal/telemetry"
	"rag-chat-platform/internal/vectorstore"
)

// NewFetcher returns the colly fetcher, switched to headless Chrome for the
// pages that need script rendering.
func NewFetcher(cfg *config.Config, list sources.List) crawler.Fetcher {
	return &crawler.Switch{
		Static:   crawler.NewCollyFetcher(30 * time.Second),
		Rendered: crawler.NewChromeFetcher(cfg.RenderTimeout),
		RenderJS: list.RenderJS(cfg.RenderJS),
	}
}

// NewFromConfig builds a pipeline from configuration
func NewFromConfig(cfg *config.Config, list sources.List, embedder ai.Embedder, store vectorstore.Store, metrics *telemetry.Metrics) (*Pipeline, error) {
	ch, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return NewPipeline(NewFetcher(cfg, list), ch, embedder, store, Options{
		Concurrency: cfg.IngestConcurrency,
		Dimension:   cfg.VectorDimensions,
		Metric:      cfg.SimilarityMetric,
		Logger:      logger.L(),
		Metrics:     metrics,
	}), nil
}

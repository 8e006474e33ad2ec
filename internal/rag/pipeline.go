// Package rag answers chat requests with retrieval-augmented generation.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/apperrors"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/telemetry"
	"rag-chat-platform/internal/vectorstore"
	"rag-chat-platform/models"
)

const DefaultSearchLimit = 10

type Options struct {
	SearchLimit int
	Template    PromptTemplate
	Logger      *slog.Logger
	Metrics     *telemetry.Metrics
}

// Pipeline is shared by all requests; it holds no per-request state
type Pipeline struct {
	embedder  ai.Embedder
	store     vectorstore.Store
	generator ai.Generator
	template  PromptTemplate
	k         int
	log       *slog.Logger
	metrics   *telemetry.Metrics
}

func NewPipeline(embedder ai.Embedder, store vectorstore.Store, generator ai.Generator, opts Options) *Pipeline {
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}
	if opts.Template == nil {
		opts.Template = TopicTemplate{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.L()
	}
	return &Pipeline{
		embedder:  embedder,
		store:     store,
		generator: generator,
		template:  opts.Template,
		k:         opts.SearchLimit,
		log:       log,
		metrics:   opts.Metrics,
	}
}

// Handle answers the last message of history. Retrieval problems degrade to
// an answer without context; only a bad request, a dimension mismatch or a
// generation failure before the first delta return an error.
func (p *Pipeline) Handle(ctx context.Context, history []models.ChatMessage) (ai.Stream, error) {
	ctx, span := otel.Tracer("rag").Start(ctx, "rag.handle")
	defer span.End()

	if err := validate(history); err != nil {
		return nil, err
	}
	latest := history[len(history)-1].Content
	span.SetAttributes(attribute.Int("rag.history", len(history)))

	chunks, err := p.Retrieve(ctx, latest)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("rag.context_chunks", len(chunks)))

	messages := make([]models.ChatMessage, 0, len(history)+1)
	messages = append(messages, models.ChatMessage{
		Role:    models.RoleSystem,
		Content: p.template.SystemPrompt(chunks, latest),
	})
	messages = append(messages, history...)

	stream, err := p.generator.GenerateStream(ctx, messages)
	if err != nil {
		p.log.Error("Generation failed before streaming", "error", err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrGeneration, err)
	}
	return stream, nil
}

// Retrieve returns the texts of the chunks nearest to query. Embedding and
// search failures are logged and yield no chunks; a dimension mismatch is a
// configuration error and is returned.
func (p *Pipeline) Retrieve(ctx context.Context, query string) ([]string, error) {
	vector, err := p.embedder.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, apperrors.ErrDimensionMismatch) {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrEmbedding, err)
		}
		p.metrics.RecordRetrievalFallback(ctx, "embed")
		p.log.Warn("Embedding failed, answering without context", "error", err)
		return nil, nil
	}

	results, err := p.store.Search(ctx, vector, p.k)
	if err != nil {
		if errors.Is(err, apperrors.ErrDimensionMismatch) {
			p.log.Error("Query vector does not match the collection", "error", err)
			return nil, fmt.Errorf("%w: %w", apperrors.ErrRetrieval, err)
		}
		p.metrics.RecordRetrievalFallback(ctx, "search")
		p.log.Warn("Vector search failed, answering without context", "error", err)
		return nil, nil
	}

	chunks := make([]string, 0, len(results))
	for i, r := range results {
		p.log.Debug("Retrieved document", "rank", i+1, "score", r.Score, "source", r.SourceURL, "text", preview(r.Text, 200))
		chunks = append(chunks, r.Text)
	}
	return chunks, nil
}

func validate(history []models.ChatMessage) error {
	if len(history) == 0 {
		return fmt.Errorf("%w: messages must not be empty", apperrors.ErrBadRequest)
	}
	for i, m := range history {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: message %d has unknown role %q", apperrors.ErrBadRequest, i, m.Role)
		}
	}
	if strings.TrimSpace(history[len(history)-1].Content) == "" {
		return fmt.Errorf("%w: last message is empty", apperrors.ErrBadRequest)
	}
	return nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

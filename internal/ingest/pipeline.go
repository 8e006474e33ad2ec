// Package ingest populates the vector store: fetch, clean, chunk, embed, store.
//
// Ingestion is best effort. A page that cannot be fetched is reported and
// skipped, and so is a chunk whose embedding or write fails. Records are keyed
// by content, so a partially failed run is repaired by running it again.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/apperrors"
	"rag-chat-platform/internal/chunker"
	"rag-chat-platform/internal/crawler"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/telemetry"
	"rag-chat-platform/internal/vectorstore"
	"rag-chat-platform/models"
)

type Options struct {
	// Concurrency bounds in-flight embed+store calls per page
	Concurrency int
	Dimension   int
	Metric      models.SimilarityMetric
	Logger      *slog.Logger
	Metrics     *telemetry.Metrics
}

type Pipeline struct {
	fetcher  crawler.Fetcher
	chunker  *chunker.Chunker
	embedder ai.Embedder
	store    vectorstore.Store
	opts     Options
	log      *slog.Logger

	ensureMu sync.Mutex
	ensured  bool
}

func NewPipeline(fetcher crawler.Fetcher, ch *chunker.Chunker, embedder ai.Embedder, store vectorstore.Store, opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Metric == "" {
		opts.Metric = models.MetricDotProduct
	}
	log := opts.Logger
	if log == nil {
		log = logger.L()
	}
	return &Pipeline{
		fetcher:  fetcher,
		chunker:  ch,
		embedder: embedder,
		store:    store,
		opts:     opts,
		log:      log,
	}
}

// ChunkFailure records one skipped chunk
type ChunkFailure struct {
	SequenceIndex int
	Err           error
}

// URLReport is the outcome for one source page
type URLReport struct {
	URL      string
	Chunks   int
	Stored   int
	Failed   []ChunkFailure
	Skipped  int // chunks not attempted because the page was abandoned
	FetchErr error
	Duration time.Duration
}

// Report is the outcome of a batch
type Report struct {
	URLs      []URLReport
	Cancelled bool
}

func (r Report) Stored() int {
	n := 0
	for _, u := range r.URLs {
		n += u.Stored
	}
	return n
}

func (r Report) FailedChunks() int {
	n := 0
	for _, u := range r.URLs {
		n += len(u.Failed)
	}
	return n
}

func (r Report) SkippedChunks() int {
	n := 0
	for _, u := range r.URLs {
		n += u.Skipped
	}
	return n
}

func (r Report) FetchFailures() int {
	n := 0
	for _, u := range r.URLs {
		if u.FetchErr != nil {
			n++
		}
	}
	return n
}

// EnsureCollection asks the store to create the collection. An existing
// collection of the same dimension counts as success; a dimension mismatch
// does not.
func (p *Pipeline) EnsureCollection(ctx context.Context) error {
	err := p.store.CreateCollection(ctx, p.opts.Dimension, p.opts.Metric)
	if err == nil {
		p.log.Info("Vector collection created", "dimension", p.opts.Dimension, "metric", string(p.opts.Metric))
		return nil
	}
	if errors.Is(err, apperrors.ErrCollectionExists) {
		p.log.Debug("Vector collection already exists", "dimension", p.opts.Dimension)
		return nil
	}
	return fmt.Errorf("create collection: %w", err)
}

// ensure runs EnsureCollection until it first succeeds
func (p *Pipeline) ensure(ctx context.Context) error {
	p.ensureMu.Lock()
	defer p.ensureMu.Unlock()
	if p.ensured {
		return nil
	}
	if err := p.EnsureCollection(ctx); err != nil {
		return err
	}
	p.ensured = true
	return nil
}

// Run ingests every URL in order. Fetch and per-chunk failures are reported,
// not returned. The returned error is non-nil only when the collection cannot
// be prepared, a dimension mismatch shows the configuration is wrong, or ctx
// was cancelled; in the last case the report covers the URLs finished so far.
func (p *Pipeline) Run(ctx context.Context, urls []string) (Report, error) {
	var report Report
	if err := p.ensure(ctx); err != nil {
		return report, err
	}

	p.log.Info("Ingestion started",
		"urls", len(urls),
		"chunk_size", p.chunker.Size(),
		"chunk_overlap", p.chunker.Overlap(),
		"concurrency", p.opts.Concurrency,
	)

	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			p.log.Warn("Ingestion cancelled", "remaining", len(urls)-len(report.URLs), "error", err)
			return report, err
		}

		rep, err := p.IngestURL(ctx, u)
		report.URLs = append(report.URLs, rep)
		if err == nil {
			continue
		}
		if errors.Is(err, apperrors.ErrDimensionMismatch) {
			return report, err
		}
		if errors.Is(err, apperrors.ErrIngestionFetch) {
			continue
		}
		if ctx.Err() != nil {
			report.Cancelled = true
			return report, ctx.Err()
		}
	}

	p.log.Info("Ingestion finished",
		"urls", len(report.URLs),
		"stored", report.Stored(),
		"failed_chunks", report.FailedChunks(),
		"skipped_chunks", report.SkippedChunks(),
		"fetch_failures", report.FetchFailures(),
	)
	return report, nil
}

// IngestURL processes one page. A fetch failure returns an error wrapping
// apperrors.ErrIngestionFetch; chunk failures are listed in the report.
func (p *Pipeline) IngestURL(ctx context.Context, pageURL string) (URLReport, error) {
	ctx, span := otel.Tracer("ingest").Start(ctx, "ingest.url")
	defer span.End()
	span.SetAttributes(attribute.String("ingest.url", pageURL))

	start := time.Now()
	rep := URLReport{URL: pageURL}

	if err := p.ensure(ctx); err != nil {
		return rep, err
	}

	html, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		rep.FetchErr = fmt.Errorf("%w: %s: %v", apperrors.ErrIngestionFetch, pageURL, err)
		rep.Duration = time.Since(start)
		p.opts.Metrics.RecordFetchFailure(ctx, pageURL)
		p.log.Error("Failed to fetch source", "url", pageURL, "error", err)
		return rep, rep.FetchErr
	}

	chunks := p.chunker.ChunkDocument(pageURL, crawler.Clean(html))
	rep.Chunks = len(chunks)
	span.SetAttributes(attribute.Int("ingest.chunks", len(chunks)))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for _, chunk := range chunks {
		g.Go(func() error {
			err := p.storeChunk(gctx, chunk)

			mu.Lock()
			defer mu.Unlock()
			if err != nil && abandoned(gctx, err) {
				rep.Skipped++
				return nil
			}
			p.opts.Metrics.RecordChunk(ctx, pageURL, err == nil)
			if err == nil {
				rep.Stored++
				return nil
			}
			rep.Failed = append(rep.Failed, ChunkFailure{SequenceIndex: chunk.SequenceIndex, Err: err})
			p.log.Error("Failed to ingest chunk", "url", pageURL, "chunk", chunk.SequenceIndex, "error", err)
			if errors.Is(err, apperrors.ErrDimensionMismatch) {
				return err
			}
			return nil
		})
	}
	waitErr := g.Wait()

	sort.Slice(rep.Failed, func(i, j int) bool { return rep.Failed[i].SequenceIndex < rep.Failed[j].SequenceIndex })
	rep.Duration = time.Since(start)

	p.log.Info("Ingested source",
		"url", pageURL,
		"chunks", rep.Chunks,
		"stored", rep.Stored,
		"failed", len(rep.Failed),
		"skipped", rep.Skipped,
		"duration", rep.Duration.String(),
	)
	if waitErr != nil {
		return rep, waitErr
	}
	return rep, ctx.Err()
}

// abandoned reports whether a chunk failed only because the page's work was
// cancelled, either by the caller or by a sibling chunk's fatal error
func abandoned(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func (p *Pipeline) storeChunk(ctx context.Context, chunk models.DocumentChunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	vector, err := p.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrEmbedding, err)
	}
	if err := p.store.Upsert(ctx, models.NewStoredRecord(chunk, vector)); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrIngestionWrite, err)
	}
	return nil
}

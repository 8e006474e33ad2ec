package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestCounter      metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	RetrievalFallbacks  metric.Int64Counter
	StreamDeltas        metric.Int64Counter
	ChunksIngested      metric.Int64Counter
	ChunksFailed        metric.Int64Counter
	FetchFailures       metric.Int64Counter
	CircuitBreakerState metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("rag-chat-platform")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	retrievalFallbacks, err := meter.Int64Counter(
		"rag.retrieval.fallbacks",
		metric.WithDescription("Chat requests answered without retrieved context"),
	)
	if err != nil {
		return nil, err
	}

	streamDeltas, err := meter.Int64Counter(
		"rag.stream.deltas",
		metric.WithDescription("Text deltas relayed to clients"),
	)
	if err != nil {
		return nil, err
	}

	chunksIngested, err := meter.Int64Counter(
		"ingest.chunks.stored",
		metric.WithDescription("Chunks embedded and written to the vector store"),
	)
	if err != nil {
		return nil, err
	}

	chunksFailed, err := meter.Int64Counter(
		"ingest.chunks.failed",
		metric.WithDescription("Chunks skipped after an embedding or write failure"),
	)
	if err != nil {
		return nil, err
	}

	fetchFailures, err := meter.Int64Counter(
		"ingest.fetch.failed",
		metric.WithDescription("Source URLs that could not be fetched"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:      requestCounter,
		RequestDuration:     requestDuration,
		RetrievalFallbacks:  retrievalFallbacks,
		StreamDeltas:        streamDeltas,
		ChunksIngested:      chunksIngested,
		ChunksFailed:        chunksFailed,
		FetchFailures:       fetchFailures,
		CircuitBreakerState: circuitBreakerState,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordRetrievalFallback records a chat request that lost its context; stage is "embed" or "search"
func (m *Metrics) RecordRetrievalFallback(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.RetrievalFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("rag.stage", stage)))
}

// RecordStreamDeltas records how many deltas one response relayed
func (m *Metrics) RecordStreamDeltas(ctx context.Context, n int, completed bool) {
	if m == nil {
		return
	}
	m.StreamDeltas.Add(ctx, int64(n), metric.WithAttributes(attribute.Bool("rag.stream.completed", completed)))
}

// RecordChunk records the outcome of one chunk's embed+store
func (m *Metrics) RecordChunk(ctx context.Context, sourceURL string, ok bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("ingest.source", sourceURL))
	if ok {
		m.ChunksIngested.Add(ctx, 1, attrs)
		return
	}
	m.ChunksFailed.Add(ctx, 1, attrs)
}

// RecordFetchFailure records a source URL that was skipped
func (m *Metrics) RecordFetchFailure(ctx context.Context, sourceURL string) {
	if m == nil {
		return
	}
	m.FetchFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("ingest.source", sourceURL)))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("state", state),
	}

	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

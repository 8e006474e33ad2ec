package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"rag-chat-platform/internal/apperrors"
	"rag-chat-platform/internal/crawler"
	"rag-chat-platform/internal/ingest"
	"rag-chat-platform/internal/logger"
)

const (
	TaskIngestURL = "ingest:url"

	QueueIngest = "ingest"
)

type IngestURLPayload struct {
	URL string `json:"url"`
}

// NewIngestURLTask creates a task ingesting one source page. The task ID is
// derived from the URL so enqueueing the same page twice while it is pending
// is rejected by asynq.
func NewIngestURLTask(pageURL string) (*asynq.Task, error) {
	if err := crawler.ValidateURL(pageURL); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(IngestURLPayload{URL: pageURL})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestURL,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue(QueueIngest),
		asynq.TaskID("ingest:"+pageURL),
	), nil
}

// URLIngester is the part of ingest.Pipeline a worker needs
type URLIngester interface {
	IngestURL(ctx context.Context, pageURL string) (ingest.URLReport, error)
}

// Task handlers
type TaskProcessor struct {
	ingester URLIngester
	log      *slog.Logger
}

func NewTaskProcessor(ingester URLIngester) *TaskProcessor {
	return &TaskProcessor{ingester: ingester, log: logger.L()}
}

// ProcessIngestURL runs the pipeline for one page. Fetch failures and failed
// chunks are retried by asynq; writes are keyed by content so a retry only
// fills in what is missing. A dimension mismatch is a configuration error and
// is never retried.
func (p *TaskProcessor) ProcessIngestURL(ctx context.Context, t *asynq.Task) error {
	var payload IngestURLPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if err := crawler.ValidateURL(payload.URL); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	p.log.Info("Processing ingest task", "url", payload.URL)

	rep, err := p.ingester.IngestURL(ctx, payload.URL)
	if err != nil {
		if errors.Is(err, apperrors.ErrDimensionMismatch) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	if n := len(rep.Failed); n > 0 {
		return fmt.Errorf("%d of %d chunks failed for %s: %w", n, rep.Chunks, payload.URL, rep.Failed[0].Err)
	}

	p.log.Info("Ingest task completed", "url", payload.URL, "stored", rep.Stored, "duration", rep.Duration.String())
	return nil
}

// Register wires the handlers into mux
func (p *TaskProcessor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskIngestURL, p.ProcessIngestURL)
}

// Enqueue submits one ingest task per URL. Pages already queued are skipped.
func Enqueue(ctx context.Context, client *asynq.Client, urls []string) (int, error) {
	n := 0
	for _, u := range urls {
		task, err := NewIngestURLTask(u)
		if err != nil {
			return n, err
		}
		info, err := client.EnqueueContext(ctx, task)
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			logger.Info("Ingest task already queued", "url", u)
			continue
		}
		if err != nil {
			return n, fmt.Errorf("enqueue %s: %w", u, err)
		}
		logger.Debug("Enqueued ingest task", "url", u, "id", info.ID, "queue", info.Queue)
		n++
	}
	return n, nil
}

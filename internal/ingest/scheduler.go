package ingest

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"rag-chat-platform/internal/logger"
)

// Scheduler re-runs ingestion batches on a cron schedule
type Scheduler struct {
	scheduler *gocron.Scheduler
	cancel    context.CancelFunc
	ctx       context.Context
}

// NewScheduler creates a scheduler whose jobs stop receiving a live context once Stop is called
func NewScheduler(parent context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(parent)
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop stops the scheduler and cancels running jobs
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.scheduler.Stop()
}

// ScheduleBatch runs the pipeline over urls whenever cronExpr fires
func (s *Scheduler) ScheduleBatch(tag, cronExpr string, p *Pipeline, urls []string) error {
	_, err := s.scheduler.Cron(cronExpr).Tag(tag).Do(func() {
		report, err := p.Run(s.ctx, urls)
		if err != nil {
			logger.Error("Scheduled ingestion failed", "job", tag, "error", err)
			return
		}
		logger.Info("Scheduled ingestion finished", "job", tag, "stored", report.Stored(), "failed_chunks", report.FailedChunks())
	})
	return err
}

// Jobs returns the number of scheduled jobs
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}

package main

import (
	"context"
	"log"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/cache"
	"rag-chat-platform/internal/config"
	"rag-chat-platform/internal/ingest"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/queue"
	"rag-chat-platform/internal/sources"
	"rag-chat-platform/internal/telemetry"
	"rag-chat-platform/internal/vectorstore"

	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	ctx := context.Background()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics disabled", "error", err)
	}

	clients, err := ai.NewClients(ctx, cfg, metrics)
	if err != nil {
		log.Fatal("Failed to initialize AI clients:", err)
	}
	defer clients.Close()

	embedder, rdb := cache.FromConfig(cfg, clients.Embedder, logger.L())
	if rdb != nil {
		defer rdb.Close()
	}

	store, err := vectorstore.New(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open vector store:", err)
	}
	defer store.Close()

	// Per-source render overrides come from the sources file; queued URLs
	// not listed there use RENDER_JS.
	list, err := sources.Load(cfg.SourcesFile)
	if err != nil {
		log.Fatal("Failed to load sources:", err)
	}
	pipeline, err := ingest.NewFromConfig(cfg, list, embedder, store, metrics)
	if err != nil {
		log.Fatal("Failed to build ingestion pipeline:", err)
	}

	redisOpt, err := queue.RedisConnOpt(cfg)
	if err != nil {
		log.Fatal("Invalid Redis configuration:", err)
	}

	// Chrome is memory hungry; keep page concurrency low and let
	// INGEST_CONCURRENCY parallelise chunks within a page.
	concurrency := 2
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				queue.QueueIngest: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.Error("Task failed", "type", task.Type(), "retry", retried, "max_retry", maxRetry, "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(pipeline)

	mux := asynq.NewServeMux()
	processor.Register(mux)

	logger.Info("Starting Asynq worker", "concurrency", concurrency, "queue", queue.QueueIngest, "store", cfg.VectorStore)

	// Run handles SIGINT/SIGTERM itself
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}

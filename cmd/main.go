package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/cache"
	"rag-chat-platform/internal/config"
	"rag-chat-platform/internal/ingest"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/rag"
	"rag-chat-platform/internal/sources"
	"rag-chat-platform/internal/telemetry"
	"rag-chat-platform/internal/vectorstore"
	"rag-chat-platform/internal/vectorstore/memory"
	"rag-chat-platform/middleware"
	"rag-chat-platform/routes"
	"rag-chat-platform/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const serviceName = "rag-chat-platform"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer(ctx, serviceName, cfg.OTLPEndpoint, cfg.TraceSampleRatio)
		if err != nil {
			logger.Error("Tracing disabled", "error", err)
		} else {
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(flushCtx); err != nil {
					logger.Error("Failed to shutdown tracer", "error", err)
				}
			}()
		}
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Error("Metrics disabled", "error", err)
	}

	clients, err := ai.NewClients(ctx, cfg, metrics)
	if err != nil {
		logger.Error("Failed to initialize AI clients", "error", err)
		os.Exit(1)
	}
	defer clients.Close()

	embedder, rdb := cache.FromConfig(cfg, clients.Embedder, logger.L())
	if rdb != nil {
		defer rdb.Close()
	}

	store, err := vectorstore.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open vector store", "store", cfg.VectorStore, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := startIngestion(ctx, cfg, embedder, store, metrics); err != nil {
		logger.Error("Failed to prepare vector collection", "error", err)
		os.Exit(1)
	}

	pipeline := rag.NewPipeline(embedder, store, clients.Generator, rag.Options{
		SearchLimit: cfg.SearchLimit,
		Template:    rag.TopicTemplate{Topic: cfg.AssistantTopic},
		Logger:      logger.L(),
		Metrics:     metrics,
	})

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(logger.L()))
	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware(serviceName), middleware.SpanAttributes())
	}
	router.Use(middleware.MetricsMiddleware(metrics))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.RequestSizeLimit(cfg.MaxRequestBytes))
	if rdb != nil {
		router.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitReqs, time.Duration(cfg.RateLimitWindow)*time.Second, logger.L()))
	}

	checks := map[string]routes.HealthCheck{}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	routes.SetupHealthRoutes(router, checks)
	routes.SetupChatRoutes(router, pipeline, metrics, logger.L())
	router.NoRoute(func(c *gin.Context) { utils.RespondWithNotFound(c, "Route not found") })

	// Create HTTP server. No write timeout: answers are streamed.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "store", cfg.VectorStore, "generation", cfg.GenerationProvider, "embeddings", cfg.EmbeddingsProvider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

// startIngestion creates the collection before the first query and, when
// INGEST_ON_START is set, loads the configured sources in the background.
// The in-memory store starts empty, so that is how it gets populated.
func startIngestion(ctx context.Context, cfg *config.Config, embedder ai.Embedder, store vectorstore.Store, metrics *telemetry.Metrics) error {
	list, err := sources.Load(cfg.SourcesFile)
	if err != nil {
		return err
	}
	p, err := ingest.NewFromConfig(cfg, list, embedder, store, metrics)
	if err != nil {
		return err
	}

	ensureCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := p.EnsureCollection(ensureCtx); err != nil {
		return err
	}

	if !cfg.IngestOnStart {
		if ms, ok := store.(*memory.Storage); ok && ms.Len() == 0 {
			logger.Warn("Memory vector store is empty; set INGEST_ON_START=true to load sources")
		}
		return nil
	}
	go func() {
		report, err := p.Run(ctx, list.URLs())
		if err != nil {
			logger.Error("Startup ingestion failed", "error", err)
			return
		}
		logger.Info("Startup ingestion finished", "stored", report.Stored(), "failed_chunks", report.FailedChunks(), "fetch_failures", report.FetchFailures())
	}()
	return nil
}

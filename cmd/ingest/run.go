package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/cache"
	"rag-chat-platform/internal/config"
	"rag-chat-platform/internal/ingest"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/sources"
	"rag-chat-platform/internal/telemetry"
	"rag-chat-platform/internal/vectorstore"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest every source now and print a report",
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// buildPipeline wires providers and the store; release must be called when done
func buildPipeline(ctx context.Context, cfg *config.Config, list sources.List) (*ingest.Pipeline, func(), error) {
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics disabled", "error", err)
	}

	clients, err := ai.NewClients(ctx, cfg, metrics)
	if err != nil {
		return nil, nil, err
	}
	embedder, rdb := cache.FromConfig(cfg, clients.Embedder, logger.L())

	store, err := vectorstore.New(ctx, cfg)
	if err != nil {
		clients.Close()
		return nil, nil, err
	}
	release := func() {
		store.Close()
		if rdb != nil {
			rdb.Close()
		}
		clients.Close()
	}

	p, err := ingest.NewFromConfig(cfg, list, embedder, store, metrics)
	if err != nil {
		release()
		return nil, nil, err
	}
	return p, release, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, list, err := setup()
	if err != nil {
		return err
	}
	if cfg.VectorStore == "memory" {
		logger.Warn("VECTOR_STORE=memory: records are discarded when this command exits")
	}

	ctx := cmd.Context()
	p, release, err := buildPipeline(ctx, cfg, list)
	if err != nil {
		return err
	}
	defer release()

	report, err := p.Run(ctx, list.URLs())
	printReport(cmd, report)
	if err != nil {
		return fmt.Errorf("ingestion stopped: %w", err)
	}
	return nil
}

func printReport(cmd *cobra.Command, report ingest.Report) {
	for _, u := range report.URLs {
		if u.FetchErr != nil {
			cmd.Printf("FAIL  %s  %v\n", u.URL, u.FetchErr)
			continue
		}
		cmd.Printf("OK    %s  chunks=%d stored=%d failed=%d skipped=%d (%s)\n", u.URL, u.Chunks, u.Stored, len(u.Failed), u.Skipped, u.Duration.Round(time.Millisecond))
		for _, f := range u.Failed {
			cmd.Printf("        chunk %d: %v\n", f.SequenceIndex, f.Err)
		}
	}
	cmd.Printf("stored=%d failed_chunks=%d skipped_chunks=%d fetch_failures=%d", report.Stored(), report.FailedChunks(), report.SkippedChunks(), report.FetchFailures())
	if report.Cancelled {
		cmd.Print(" (cancelled)")
	}
	cmd.Println()
}

// Command ingest loads source pages into the vector store.
//
//	ingest run [--sources file.yaml] [--url https://...]
//	ingest enqueue [--sources file.yaml]   # hand pages to cmd/worker
//	ingest schedule --cron "0 3 * * *"     # re-run on a schedule
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rag-chat-platform/internal/config"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/sources"
)

var (
	sourcesFile string
	extraURLs   []string
)

var rootCmd = &cobra.Command{
	Use:           "ingest",
	Short:         "Fetch, chunk, embed and store source pages",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sourcesFile, "sources", "", "YAML sources file (default: SOURCES_FILE or the built-in list)")
	rootCmd.PersistentFlags().StringSliceVar(&extraURLs, "url", nil, "page URL to ingest instead of the sources file (repeatable)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and resolves the page list from flags
func setup() (*config.Config, sources.List, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger.InitLogger(cfg)

	if len(extraURLs) > 0 {
		list, err := sources.FromURLs(extraURLs)
		return cfg, list, err
	}
	path := sourcesFile
	if path == "" {
		path = cfg.SourcesFile
	}
	list, err := sources.Load(path)
	return cfg, list, err
}

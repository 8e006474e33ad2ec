package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rag-chat-platform/internal/ingest"
	"rag-chat-platform/internal/logger"
)

var cronExpr string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Re-ingest every source on a cron schedule until interrupted",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&cronExpr, "cron", "", "cron expression (default: INGEST_CRON)")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, list, err := setup()
	if err != nil {
		return err
	}
	expr := cronExpr
	if expr == "" {
		expr = cfg.IngestCron
	}
	if expr == "" {
		return fmt.Errorf("no schedule: pass --cron or set INGEST_CRON")
	}

	ctx := cmd.Context()
	p, release, err := buildPipeline(ctx, cfg, list)
	if err != nil {
		return err
	}
	defer release()

	scheduler := ingest.NewScheduler(ctx)
	if err := scheduler.ScheduleBatch("sources", expr, p, list.URLs()); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("Ingestion scheduled", "cron", expr, "sources", len(list), "jobs", scheduler.Jobs())
	<-ctx.Done()
	logger.Info("Scheduler stopping")
	return nil
}

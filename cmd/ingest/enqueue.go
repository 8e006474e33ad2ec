package main

import (
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"rag-chat-platform/internal/queue"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Queue one ingest task per source for cmd/worker",
	RunE:  runEnqueue,
}

func init() {
	rootCmd.AddCommand(enqueueCmd)
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	cfg, list, err := setup()
	if err != nil {
		return err
	}
	redisOpt, err := queue.RedisConnOpt(cfg)
	if err != nil {
		return err
	}

	client := asynq.NewClient(redisOpt)
	defer client.Close()

	n, err := queue.Enqueue(cmd.Context(), client, list.URLs())
	cmd.Printf("enqueued %d of %d sources\n", n, len(list))
	return err
}

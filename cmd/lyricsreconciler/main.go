package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"LyricsReconciler/internal/app"
	"LyricsReconciler/internal/config"
	"LyricsReconciler/internal/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "lyricsreconciler",
		Short: "Reconcile track lyrics from multiple providers into one trusted record",
	}
	root.AddCommand(newRunCommand())
	return root
}

func newRunCommand() *cobra.Command {
	var (
		batchSize int
		force     bool
	)

	cmd := &cobra.Command{
		Use:          "run",
		Short:        "Process one batch of pending tracks",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			cfg := config.Load()
			logger := logging.New(cfg.Logging.Level)

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			summary, err := application.RunBatch(ctx, batchSize, force)
			if err != nil {
				logger.Error("batch aborted", "error", err)
				return err
			}

			logger.Info("done",
				"requested", summary.Requested,
				"cached", summary.Cached,
				"completed", summary.Completed,
				"needs_review", summary.NeedsReview,
				"failed", summary.Failed,
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "number of tracks to process (0 = configured default)")
	cmd.Flags().BoolVar(&force, "force", false, "re-process tracks even when a lyrics record already exists")
	return cmd
}

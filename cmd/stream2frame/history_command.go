package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stream2frame/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show completed runs and aggregate statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			log := history.NewLog(cfg.HistoryPath())
			records, err := log.Recent(limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No completed runs yet")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(records))

			stats, err := log.Stats()
			if err != nil {
				return fmt.Errorf("compute stats: %w", err)
			}
			fmt.Fprintf(out, "\n%d runs total, %.0f%% succeeded, average duration %s\n",
				stats.Total,
				stats.SuccessRate*100,
				history.FormatDuration(stats.AverageDuration),
			)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of recent runs to show")
	return cmd
}

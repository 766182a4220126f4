package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stream2frame/internal/logging"
	"stream2frame/internal/notifications"
	"stream2frame/internal/queue"
	"stream2frame/internal/report"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Per-camera output audit",
	}

	reportCmd.AddCommand(newReportShowCommand(ctx))
	reportCmd.AddCommand(newReportAuditCommand(ctx))

	return reportCmd
}

func newReportShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show [year month day]",
		Short: "Show camera stats for a date (latest audited date by default)",
		Args:  cobra.RangeArgs(0, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := report.Open(cfg)
			if err != nil {
				return fmt.Errorf("open report store: %w", err)
			}
			defer store.Close()

			var date queue.Date
			if len(args) == 3 {
				date, err = parseDateArgs(args)
				if err != nil {
					return err
				}
			} else {
				dates, err := store.RecentDates(cmd.Context(), 1)
				if err != nil {
					return fmt.Errorf("find audited dates: %w", err)
				}
				if len(dates) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No audits recorded yet")
					return nil
				}
				date = dates[0]
			}

			stats, err := store.StatsForDate(cmd.Context(), date)
			if err != nil {
				return fmt.Errorf("read camera stats: %w", err)
			}
			if len(stats) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No audit recorded for %s\n", date)
				return nil
			}

			rows := make([][]string, 0, len(stats))
			for _, stat := range stats {
				rows = append(rows, []string{
					stat.Camera,
					yesNo(stat.MP4Exists),
					fmt.Sprintf("%.1f MB", float64(stat.MP4Size)/(1024*1024)),
					fmt.Sprintf("%d", stat.FrameCount),
					yesNo(stat.Active),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Camera stats for %s\n%s\n", date,
				renderTable([]string{"Camera", "MP4", "Size", "Frames", "Active"}, rows, 2, 3))
			return nil
		},
	}
}

func newReportAuditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "audit <year> <month> <day>",
		Short: "Audit one date's camera output now",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			date, err := parseDateArgs(args)
			if err != nil {
				return err
			}

			store, err := report.Open(cfg)
			if err != nil {
				return fmt.Errorf("open report store: %w", err)
			}
			defer store.Close()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			auditor := report.NewAuditor(cfg, store, notifications.NewService(cfg), logger)
			if err := auditor.AuditDate(cmd.Context(), date); err != nil {
				return fmt.Errorf("audit %s: %w", date, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Audited %s across %d cameras\n", date, len(cfg.Cameras))
			return nil
		},
	}
}

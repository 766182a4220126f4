package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stream2frame/internal/history"
	"stream2frame/internal/lock"
	"stream2frame/internal/queue"
	"stream2frame/internal/status"
)

const recentHistoryWindow = 10

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current status, backlog, and recent history",
		Long:  "Read-only view of the status register, scheduler lock, pending backlog, and recent run history. Mutates nothing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string

			lines = append(lines, renderSectionHeader("Current Status", colorize)...)
			register := status.NewRegister(cfg.StatusPath())
			snap, ok, err := register.Read()
			if err != nil {
				return fmt.Errorf("read status: %w", err)
			}
			if !ok {
				lines = append(lines, statusIndent+"No status recorded yet")
			} else {
				lines = append(lines, renderSnapshot(snap, colorize)...)
			}

			guard := lock.New(cfg.LockPath(), nil, nil)
			if holder, held := guard.Holder(); held {
				label := fmt.Sprintf("pid %d", holder)
				if !guard.HeldByLiveProcess() {
					label += " (stale)"
				}
				lines = append(lines, renderStatusLine("Lock", label, "", colorize))
			} else {
				lines = append(lines, renderStatusLine("Lock", "free", "", colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Pending Backlog", colorize)...)
			store, err := queue.NewFileStore(cfg.Paths.SpoolDir)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}
			entries, err := store.ListOldestFirst()
			if err != nil {
				return fmt.Errorf("list backlog: %w", err)
			}
			if len(entries) == 0 {
				lines = append(lines, statusIndent+"Backlog is empty")
			} else {
				lines = append(lines, renderBacklogTable(entries))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Recent History", colorize)...)
			records, err := history.NewLog(cfg.HistoryPath()).Recent(recentHistoryWindow)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			if len(records) == 0 {
				lines = append(lines, statusIndent+"No completed runs yet")
			} else {
				lines = append(lines, renderHistoryTable(records))
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func renderSnapshot(snap status.Snapshot, colorize bool) []string {
	lines := []string{
		renderStatusLine("State", humanizeState(snap.State), stateColor(snap.State), colorize),
		renderStatusLine("Updated", snap.UpdatedAt.Format("2006-01-02 15:04:05"), "", colorize),
	}
	if snap.Details != "" {
		lines = append(lines, renderStatusLine("Details", snap.Details, "", colorize))
	}
	if snap.PID != 0 {
		lines = append(lines, renderStatusLine("PID", fmt.Sprintf("%d", snap.PID), "", colorize))
	}
	if snap.Date != nil {
		lines = append(lines, renderStatusLine("Date", snap.Date.String(), "", colorize))
	}
	return lines
}

func renderBacklogTable(entries []queue.Entry) string {
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			entry.Date.String(),
			entry.EnqueuedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return renderTable([]string{"#", "Date", "Enqueued"}, rows, 0)
}

func renderHistoryTable(records []history.Record) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.Date.String(),
			rec.Start.Format("2006-01-02 15:04:05"),
			history.FormatDuration(rec.Duration()),
			string(rec.Outcome),
		})
	}
	return renderTable([]string{"Date", "Started", "Duration", "Outcome"}, rows, 2)
}

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"stream2frame/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the pending date backlog",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending dates oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.queueStore()
			if err != nil {
				return err
			}
			entries, err := store.ListOldestFirst()
			if err != nil {
				return fmt.Errorf("list backlog: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Backlog is empty")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderBacklogTable(entries))
			return nil
		},
	}
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <year> <month> <day>",
		Short: "Enqueue a date for processing",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateArgs(args)
			if err != nil {
				return err
			}
			store, err := ctx.queueStore()
			if err != nil {
				return err
			}
			entry, err := store.Enqueue(date)
			if err != nil {
				return fmt.Errorf("enqueue %s: %w", date, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %s (token %s)\n", entry.Date, entry.Token)
			return nil
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all pending dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the backlog without --yes")
			}
			store, err := ctx.queueStore()
			if err != nil {
				return err
			}
			entries, err := store.ListOldestFirst()
			if err != nil {
				return fmt.Errorf("list backlog: %w", err)
			}
			for _, entry := range entries {
				if err := store.Remove(entry); err != nil {
					return fmt.Errorf("remove %s: %w", entry.Date, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", len(entries))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm removing every pending entry")
	return cmd
}

func (c *commandContext) queueStore() (*queue.FileStore, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := queue.NewFileStore(cfg.Paths.SpoolDir)
	if err != nil {
		return nil, fmt.Errorf("open queue store: %w", err)
	}
	return store, nil
}

func parseDateArgs(args []string) (queue.Date, error) {
	values := make([]int, 3)
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return queue.Date{}, fmt.Errorf("invalid date component %q", arg)
		}
		values[i] = v
	}
	date := queue.Date{Year: values[0], Month: values[1], Day: values[2]}
	if !date.Valid() {
		return queue.Date{}, fmt.Errorf("%d-%d-%d is not a real calendar date", values[0], values[1], values[2])
	}
	if date.Year < 2000 || time.Date(date.Year, time.Month(date.Month), date.Day, 0, 0, 0, 0, time.Local).After(time.Now()) {
		return queue.Date{}, fmt.Errorf("date %s is outside the recordable range", date)
	}
	return date, nil
}

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stream2frame/internal/history"
	"stream2frame/internal/lock"
	"stream2frame/internal/logging"
	"stream2frame/internal/notifications"
	"stream2frame/internal/queue"
	"stream2frame/internal/report"
	"stream2frame/internal/runner"
	"stream2frame/internal/scheduler"
	"stream2frame/internal/status"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one scheduling cycle",
		Long:  "Acquires the scheduler lock and processes the backlog (or yesterday's date). If another run is active, enqueues and exits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCycle(cmd, ctx)
		},
	}
}

func runCycle(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	store, err := queue.NewFileStore(cfg.Paths.SpoolDir)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}

	service := notifications.NewService(cfg)

	var auditor scheduler.Auditor
	if cfg.Report.Enabled {
		reportStore, err := report.Open(cfg)
		if err != nil {
			return fmt.Errorf("open report store: %w", err)
		}
		defer reportStore.Close()
		auditor = report.NewAuditor(cfg, reportStore, service, logger)
	}

	sched, err := scheduler.New(scheduler.Options{
		Config:       cfg,
		Store:        store,
		Lock:         lock.New(cfg.LockPath(), nil, logger),
		History:      history.NewLog(cfg.HistoryPath()),
		Status:       status.NewRegister(cfg.StatusPath()),
		Collaborator: runner.NewExec(cfg, logger),
		Notifier:     notifications.NewSchedulerAdapter(service, logger),
		Auditor:      auditor,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, runErr := sched.Run(runCtx)
	if result.Interrupted {
		return &exitError{code: 1, message: "run interrupted"}
	}
	if runErr != nil {
		return runErr
	}
	if code := result.ExitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

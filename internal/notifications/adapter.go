package notifications

import (
	"context"
	"log/slog"
	"time"

	"stream2frame/internal/history"
	"stream2frame/internal/logging"
	"stream2frame/internal/queue"
)

// SchedulerAdapter bridges the notification service onto the scheduler's
// lifecycle hooks, routing successes and failures to the right category and
// swallowing delivery errors after logging them.
type SchedulerAdapter struct {
	service Service
	logger  *slog.Logger
}

// NewSchedulerAdapter wraps service for use as a scheduler notifier.
func NewSchedulerAdapter(service Service, logger *slog.Logger) *SchedulerAdapter {
	return &SchedulerAdapter{
		service: service,
		logger:  logging.NewComponentLogger(logger, "notifications"),
	}
}

func (a *SchedulerAdapter) RunFinished(ctx context.Context, date queue.Date, outcome history.Outcome, duration time.Duration) {
	var err error
	if outcome == history.OutcomeSuccess {
		err = a.service.NotifyRunCompleted(ctx, date, duration)
	} else {
		err = a.service.NotifyRunFailed(ctx, date, outcome, duration)
	}
	if err != nil {
		a.logger.Warn("notification delivery failed",
			logging.String(logging.FieldDate, date.String()),
			logging.Error(err),
		)
	}
}

func (a *SchedulerAdapter) RunInterrupted(ctx context.Context, date queue.Date) {
	if err := a.service.NotifyRunInterrupted(ctx, date); err != nil {
		a.logger.Warn("notification delivery failed",
			logging.String(logging.FieldDate, date.String()),
			logging.Error(err),
		)
	}
}

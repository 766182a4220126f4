package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"stream2frame/internal/config"
	"stream2frame/internal/history"
	"stream2frame/internal/lock"
	"stream2frame/internal/logging"
	"stream2frame/internal/queue"
	"stream2frame/internal/runner"
	"stream2frame/internal/status"
)

// Notifier receives run lifecycle events. Implementations must not block the
// scheduling loop for long; failures are logged and ignored.
type Notifier interface {
	RunFinished(ctx context.Context, date queue.Date, outcome history.Outcome, duration time.Duration)
	RunInterrupted(ctx context.Context, date queue.Date)
}

// Auditor inspects collaborator output after a successful run.
type Auditor interface {
	AuditDate(ctx context.Context, date queue.Date) error
}

// StatusStore decouples the scheduler from the status register's file
// backing; tests can substitute an in-memory implementation.
type StatusStore interface {
	Set(snap status.Snapshot) error
	Read() (status.Snapshot, bool, error)
}

// Options wires the scheduler's collaborators together.
type Options struct {
	Config       *config.Config
	Store        queue.Store
	Lock         *lock.Lock
	History      *history.Log
	Status       StatusStore
	Collaborator runner.Collaborator
	Notifier     Notifier
	Auditor      Auditor
	Logger       *slog.Logger
	Now          func() time.Time
	PID          int
}

// Result summarizes one scheduler invocation.
type Result struct {
	// Queued is true when another live invocation held the lock and this one
	// converted into a backlog entry instead of running.
	Queued bool
	// Interrupted is true when an external signal stopped the run.
	Interrupted bool
	// Outcomes lists the per-date outcomes in processing order.
	Outcomes []history.Outcome
}

// ExitCode maps the invocation to a process exit status: zero only when
// every processed date succeeded (or the invocation merely enqueued).
func (r Result) ExitCode() int {
	if r.Interrupted {
		return 1
	}
	for _, outcome := range r.Outcomes {
		if outcome != history.OutcomeSuccess {
			return 1
		}
	}
	return 0
}

// Scheduler guarantees at most one processing run at a time and drains the
// date backlog sequentially while it holds the lock.
type Scheduler struct {
	cfg      *config.Config
	store    queue.Store
	lock     *lock.Lock
	history  *history.Log
	register StatusStore
	collab   runner.Collaborator
	notifier Notifier
	auditor  Auditor
	logger   *slog.Logger
	now      func() time.Time
	pid      int
}

// New validates the option set and builds a scheduler.
func New(opts Options) (*Scheduler, error) {
	if opts.Config == nil {
		return nil, errors.New("scheduler: config is required")
	}
	if opts.Store == nil {
		return nil, errors.New("scheduler: queue store is required")
	}
	if opts.Lock == nil {
		return nil, errors.New("scheduler: lock is required")
	}
	if opts.History == nil {
		return nil, errors.New("scheduler: history log is required")
	}
	if opts.Status == nil {
		return nil, errors.New("scheduler: status register is required")
	}
	if opts.Collaborator == nil {
		return nil, errors.New("scheduler: collaborator is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	pid := opts.PID
	if pid == 0 {
		pid = os.Getpid()
	}
	return &Scheduler{
		cfg:      opts.Config,
		store:    opts.Store,
		lock:     opts.Lock,
		history:  opts.History,
		register: opts.Status,
		collab:   opts.Collaborator,
		notifier: opts.Notifier,
		auditor:  opts.Auditor,
		logger:   logging.NewComponentLogger(logger, "scheduler"),
		now:      now,
		pid:      pid,
	}, nil
}

// Run executes one full scheduling cycle: acquire the lock (or enqueue and
// return if it is busy), process the oldest backlog date or the default
// lookback date, then drain remaining backlog entries under the same lock.
func (s *Scheduler) Run(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	logger := s.logger.With(logging.String(logging.FieldRunID, runID))

	if err := s.lock.Acquire(); err != nil {
		if errors.Is(err, lock.ErrBusy) {
			return s.enqueueBusy(logger)
		}
		return Result{}, fmt.Errorf("acquire lock: %w", err)
	}
	defer func() {
		if err := s.lock.Release(); err != nil {
			logger.Warn("lock release failed", logging.Error(err))
		}
	}()

	logger.Info("scheduling cycle started",
		logging.String(logging.FieldEventType, "cycle_start"),
		logging.Int("pid", s.pid),
	)

	var result Result
	first := true
	for {
		entry, target, ok, err := s.nextTarget(first)
		if err != nil {
			return result, err
		}
		if !ok {
			break
		}
		first = false

		if interrupted := s.interrupted(ctx, logger, target); interrupted {
			result.Interrupted = true
			return result, ctx.Err()
		}

		outcome, removeErr := s.processOne(ctx, logger, target, entry)
		result.Outcomes = append(result.Outcomes, outcome)

		if ctx.Err() != nil {
			s.markInterrupted(logger, target)
			result.Interrupted = true
			return result, ctx.Err()
		}
		if removeErr != nil {
			// The consumed entry is still in the spool; looping again would
			// re-peek it and process the same date forever.
			return result, fmt.Errorf("remove backlog entry for %s: %w", target, removeErr)
		}
	}

	logger.Info("scheduling cycle finished",
		logging.String(logging.FieldEventType, "cycle_finish"),
		logging.Int("dates_processed", len(result.Outcomes)),
	)
	return result, nil
}

// enqueueBusy converts an overlapping invocation into a backlog entry.
func (s *Scheduler) enqueueBusy(logger *slog.Logger) (Result, error) {
	target := s.defaultTarget()
	entry, err := s.store.Enqueue(target)
	if err != nil {
		return Result{Queued: true}, fmt.Errorf("enqueue while busy: %w", err)
	}

	holder, _ := s.lock.Holder()
	details := fmt.Sprintf("queued %s behind pid %d", target, holder)
	if err := s.register.Set(status.Snapshot{
		State:     status.StateQueued,
		UpdatedAt: s.now(),
		Details:   details,
		PID:       s.pid,
		Date:      &target,
	}); err != nil {
		logger.Warn("status update failed", logging.Error(err))
	}

	logger.Info("scheduler busy, enqueued date",
		logging.String(logging.FieldEventType, "busy_enqueued"),
		logging.String(logging.FieldDate, target.String()),
		logging.String("token", entry.Token),
		logging.Int("holder_pid", holder),
	)
	return Result{Queued: true}, nil
}

// nextTarget picks the date to process. The first iteration falls back to the
// default lookback date when the backlog is empty; drain iterations stop on an
// empty backlog instead.
func (s *Scheduler) nextTarget(first bool) (*queue.Entry, queue.Date, bool, error) {
	entry, ok, err := s.store.PeekOldest()
	if err != nil {
		return nil, queue.Date{}, false, fmt.Errorf("peek backlog: %w", err)
	}
	if ok {
		return &entry, entry.Date, true, nil
	}
	if first {
		return nil, s.defaultTarget(), true, nil
	}
	return nil, queue.Date{}, false, nil
}

// defaultTarget is "yesterday" in the local calendar, generalized to the
// configured lookback window.
func (s *Scheduler) defaultTarget() queue.Date {
	return queue.DateOf(s.now().AddDate(0, 0, -s.cfg.LookbackDays()))
}

// processOne runs the collaborator for one date and records the outcome. A
// run failure never aborts the drain loop; every attempt yields exactly one
// history record. The returned error reports a backlog removal failure, which
// the caller treats as terminal for the drain so the entry is not consumed a
// second time.
func (s *Scheduler) processOne(ctx context.Context, logger *slog.Logger, target queue.Date, entry *queue.Entry) (history.Outcome, error) {
	dateLogger := logger.With(logging.String(logging.FieldDate, target.String()))

	start := s.now()
	if err := s.register.Set(status.Snapshot{
		State:     status.StateProcessing,
		UpdatedAt: start,
		Details:   fmt.Sprintf("processing %s", target),
		PID:       s.pid,
		Date:      &target,
	}); err != nil {
		dateLogger.Warn("status update failed", logging.Error(err))
	}

	outcome, runErr := s.invoke(ctx, target)
	end := s.now()

	if err := s.history.Record(history.Record{
		Date:    target,
		Start:   start,
		End:     end,
		Outcome: outcome,
	}); err != nil {
		dateLogger.Error("history record failed", logging.Error(err))
	}
	var removeErr error
	if entry != nil {
		if err := s.store.Remove(*entry); err != nil {
			removeErr = err
			dateLogger.Error("backlog entry removal failed", logging.Error(err))
		}
	}

	details := fmt.Sprintf("%s finished with %s", target, outcome)
	if runErr != nil {
		details = fmt.Sprintf("%s: %v", target, runErr)
	}
	if err := s.register.Set(status.Snapshot{
		State:     stateFor(outcome),
		UpdatedAt: end,
		Details:   details,
		Date:      &target,
	}); err != nil {
		dateLogger.Warn("status update failed", logging.Error(err))
	}

	level := slog.LevelInfo
	if outcome != history.OutcomeSuccess {
		level = slog.LevelWarn
	}
	dateLogger.Log(ctx, level, "processing attempt recorded",
		logging.String(logging.FieldEventType, "attempt_recorded"),
		logging.String(logging.FieldOutcome, string(outcome)),
		logging.Duration("elapsed", end.Sub(start)),
	)

	if s.notifier != nil {
		s.notifier.RunFinished(ctx, target, outcome, end.Sub(start))
	}
	if s.auditor != nil && outcome == history.OutcomeSuccess {
		if err := s.auditor.AuditDate(ctx, target); err != nil {
			dateLogger.Warn("post-run audit failed", logging.Error(err))
		}
	}
	return outcome, removeErr
}

// invoke prepares the environment and runs the collaborator. A preparation
// failure is terminal for the attempt and the collaborator is never invoked.
func (s *Scheduler) invoke(ctx context.Context, target queue.Date) (history.Outcome, error) {
	if err := s.collab.Prepare(ctx); err != nil {
		return history.OutcomeFailed, fmt.Errorf("prepare environment: %w", err)
	}
	return s.collab.Process(ctx, target)
}

func (s *Scheduler) interrupted(ctx context.Context, logger *slog.Logger, target queue.Date) bool {
	if ctx.Err() == nil {
		return false
	}
	s.markInterrupted(logger, target)
	return true
}

// markInterrupted records the signal-driven shutdown. The deferred Release in
// Run still frees the lock afterwards.
func (s *Scheduler) markInterrupted(logger *slog.Logger, target queue.Date) {
	if err := s.register.Set(status.Snapshot{
		State:     status.StateInterrupted,
		UpdatedAt: s.now(),
		Details:   fmt.Sprintf("interrupted while handling %s", target),
		Date:      &target,
	}); err != nil {
		logger.Warn("status update failed", logging.Error(err))
	}
	logger.Warn("scheduler interrupted",
		logging.String(logging.FieldEventType, "interrupted"),
		logging.String(logging.FieldDate, target.String()),
	)
	if s.notifier != nil {
		s.notifier.RunInterrupted(context.Background(), target)
	}
}

// stateFor maps a run outcome onto the status register vocabulary. Timeouts
// surface as ERROR with the outcome preserved in the history log.
func stateFor(outcome history.Outcome) status.State {
	switch outcome {
	case history.OutcomeSuccess:
		return status.StateCompleted
	case history.OutcomeFailed:
		return status.StateFailed
	default:
		return status.StateError
	}
}

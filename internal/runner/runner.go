package runner

import (
	"context"

	"stream2frame/internal/history"
	"stream2frame/internal/queue"
)

// Collaborator performs the actual conversion work for one calendar date.
// Prepare verifies the execution environment; a Prepare failure means the run
// is recorded as FAILED without the work ever being invoked.
type Collaborator interface {
	Prepare(ctx context.Context) error
	Process(ctx context.Context, date queue.Date) (history.Outcome, error)
}

// Func adapts a function to the Collaborator interface with a no-op Prepare.
type Func func(ctx context.Context, date queue.Date) (history.Outcome, error)

func (f Func) Prepare(context.Context) error { return nil }

func (f Func) Process(ctx context.Context, date queue.Date) (history.Outcome, error) {
	return f(ctx, date)
}

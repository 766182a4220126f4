package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"stream2frame/internal/config"
	"stream2frame/internal/history"
	"stream2frame/internal/logging"
	"stream2frame/internal/queue"
)

// Exit code 124 follows the coreutils timeout convention and is treated as the
// timeout sentinel alongside context expiry.
const timeoutExitCode = 124

// ExecCollaborator invokes the configured pipeline command with the target
// date as "year month day" arguments, bounded by the configured wall-clock
// timeout. Combined command output is captured in a per-date run log.
type ExecCollaborator struct {
	command string
	args    []string
	workdir string
	timeout time.Duration
	logDir  string
	logger  *slog.Logger
}

// NewExec builds the exec-backed collaborator from configuration.
func NewExec(cfg *config.Config, logger *slog.Logger) *ExecCollaborator {
	return &ExecCollaborator{
		command: cfg.Processing.Command,
		args:    append([]string(nil), cfg.Processing.Args...),
		workdir: cfg.Processing.WorkDir,
		timeout: cfg.Timeout(),
		logDir:  filepath.Join(cfg.Paths.LogDir, "runs"),
		logger:  logging.NewComponentLogger(logger, "runner"),
	}
}

// Prepare verifies the command can be executed before any run starts.
func (e *ExecCollaborator) Prepare(ctx context.Context) error {
	if strings.ContainsRune(e.command, os.PathSeparator) {
		info, err := os.Stat(e.command)
		if err != nil {
			return fmt.Errorf("processing command unavailable: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("processing command %q is a directory", e.command)
		}
	} else if _, err := exec.LookPath(e.command); err != nil {
		return fmt.Errorf("processing command unavailable: %w", err)
	}

	if e.workdir != "" {
		info, err := os.Stat(e.workdir)
		if err != nil {
			return fmt.Errorf("processing workdir unavailable: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("processing workdir %q is not a directory", e.workdir)
		}
	}
	return nil
}

// Process runs the pipeline for one date and classifies the exit.
func (e *ExecCollaborator) Process(ctx context.Context, date queue.Date) (history.Outcome, error) {
	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if e.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
	}
	defer cancel()

	args := append(append([]string(nil), e.args...),
		strconv.Itoa(date.Year), strconv.Itoa(date.Month), strconv.Itoa(date.Day))
	cmd := exec.CommandContext(runCtx, e.command, args...)
	cmd.Dir = e.workdir

	logFile, err := e.openRunLog(date)
	if err != nil {
		e.logger.Warn("run log unavailable, discarding command output", logging.Error(err))
	} else {
		defer logFile.Close()
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	e.logger.Info("invoking processing pipeline",
		logging.String(logging.FieldEventType, "pipeline_start"),
		logging.String(logging.FieldDate, date.String()),
		logging.String("command", e.command),
		logging.Duration("timeout", e.timeout),
	)

	runErr := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return history.OutcomeTimeout, fmt.Errorf("pipeline exceeded %s timeout", e.timeout)
	}
	if runErr == nil {
		return history.OutcomeSuccess, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		code := exitErr.ExitCode()
		if code == timeoutExitCode {
			return history.OutcomeTimeout, fmt.Errorf("pipeline reported timeout (exit %d)", code)
		}
		return history.OutcomeError, fmt.Errorf("pipeline exited with code %d", code)
	}
	return history.OutcomeError, fmt.Errorf("run pipeline: %w", runErr)
}

func (e *ExecCollaborator) openRunLog(date queue.Date) (*os.File, error) {
	if err := os.MkdirAll(e.logDir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(e.logDir, date.String()+".log")
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

package status

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"stream2frame/internal/queue"
)

// State names the current scheduler condition.
type State string

const (
	StateQueued      State = "QUEUED"
	StateProcessing  State = "PROCESSING"
	StateCompleted   State = "COMPLETED"
	StateFailed      State = "FAILED"
	StateError       State = "ERROR"
	StateInterrupted State = "INTERRUPTED"
)

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToUpper(strings.TrimSpace(value)))
	switch normalized {
	case StateQueued, StateProcessing, StateCompleted, StateFailed, StateError, StateInterrupted:
		return normalized, true
	}
	return "", false
}

// Snapshot is the single current-run view for external monitoring. It is
// overwritten wholesale on every transition; the queue spool and history log
// remain the durable source of truth.
type Snapshot struct {
	State     State
	UpdatedAt time.Time
	Details   string
	PID       int
	Date      *queue.Date
}

const timeLayout = "2006-01-02 15:04:05"

// Register persists the snapshot as line-oriented key:value pairs. Writes go
// through a temp file plus rename so a concurrent reader never observes a
// half-written snapshot.
type Register struct {
	path string
}

// NewRegister constructs a status register at path.
func NewRegister(path string) *Register {
	return &Register{path: path}
}

// Path returns the status file location.
func (r *Register) Path() string {
	return r.path
}

// Set overwrites the snapshot atomically.
func (r *Register) Set(snap Snapshot) error {
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = time.Now()
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "STATUS: %s\n", snap.State)
	fmt.Fprintf(&builder, "UPDATED: %s\n", snap.UpdatedAt.Format(timeLayout))
	fmt.Fprintf(&builder, "DETAILS: %s\n", strings.ReplaceAll(snap.Details, "\n", " "))
	if snap.PID > 0 {
		fmt.Fprintf(&builder, "CURRENT_PID: %d\n", snap.PID)
	}
	if snap.Date != nil {
		fmt.Fprintf(&builder, "DATE: %s\n", snap.Date.String())
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create status directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".status-*")
	if err != nil {
		return fmt.Errorf("create temp status file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.WriteString(builder.String()); err != nil {
		return fmt.Errorf("write temp status file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp status file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp status file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace status file: %w", err)
	}
	return nil
}

// Read returns the current snapshot. A missing file is not an error; the
// second return value reports whether any snapshot exists.
func (r *Register) Read() (Snapshot, bool, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("read status file: %w", err)
	}

	var snap Snapshot
	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "STATUS":
			if state, ok := ParseState(value); ok {
				snap.State = state
			}
		case "UPDATED":
			if ts, err := time.Parse(timeLayout, value); err == nil {
				snap.UpdatedAt = ts
			}
		case "DETAILS":
			snap.Details = value
		case "CURRENT_PID":
			if pid, err := strconv.Atoi(value); err == nil {
				snap.PID = pid
			}
		case "DATE":
			if parsed, err := time.Parse("2006-01-02", value); err == nil {
				date := queue.DateOf(parsed)
				snap.Date = &date
			}
		}
	}
	return snap, true, nil
}

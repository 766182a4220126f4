package lock

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"stream2frame/internal/logging"
)

// ErrBusy indicates the lock is held by a live process. It is a scheduling
// signal rather than a failure: callers are expected to queue and exit.
var ErrBusy = errors.New("lock held by a live process")

// Lock is a pidfile-based mutual exclusion marker. The recorded process id
// identifies the holder; a recorded holder that no longer exists is treated as
// absent and reclaimed on the next acquisition. The read-check-write sequence
// is serialized through an OS file lock on a sidecar guard file.
type Lock struct {
	path   string
	guard  *flock.Flock
	probe  ProcessProbe
	logger *slog.Logger
	pid    int
	held   bool
}

// New constructs a lock at path. A nil probe defaults to signal-zero probing
// of the local process table.
func New(path string, probe ProcessProbe, logger *slog.Logger) *Lock {
	if probe == nil {
		probe = SignalProbe{}
	}
	return &Lock{
		path:   path,
		guard:  flock.New(path + ".guard"),
		probe:  probe,
		logger: logging.NewComponentLogger(logger, "lock"),
		pid:    os.Getpid(),
	}
}

// Acquire attempts to take the lock without blocking. It returns ErrBusy when
// a live process holds it. A recorded holder that is no longer alive is
// reclaimed silently apart from a warning log.
func (l *Lock) Acquire() error {
	locked, err := l.guard.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock guard: %w", err)
	}
	if !locked {
		return ErrBusy
	}
	defer func() {
		_ = l.guard.Unlock()
	}()

	holder, exists, err := l.readHolder()
	if err != nil {
		return err
	}
	if exists {
		if l.probe.IsAlive(holder) {
			return ErrBusy
		}
		l.logger.Warn("reclaimed stale lock",
			logging.String(logging.FieldEventType, "stale_lock_reclaimed"),
			logging.Int("stale_pid", holder),
		)
	}

	if err := os.WriteFile(l.path, []byte(strconv.Itoa(l.pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write lock file: %w", err)
	}
	l.held = true
	return nil
}

// Release removes the lock file when this process is still the recorded
// holder. Releasing an absent or never-acquired lock is not an error, and a
// lock file rewritten by another process since acquisition is left in place.
func (l *Lock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false

	holder, exists, err := l.readHolder()
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if holder != l.pid {
		l.logger.Warn("lock file no longer ours, leaving it in place",
			logging.String(logging.FieldEventType, "foreign_lock_preserved"),
			logging.Int("holder_pid", holder),
		)
		return nil
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

// Holder returns the recorded holder process id, when one exists.
func (l *Lock) Holder() (int, bool) {
	holder, exists, err := l.readHolder()
	if err != nil || !exists {
		return 0, false
	}
	return holder, true
}

// HeldByLiveProcess reports whether the lock is currently held by a live
// process. Used by read-only status commands.
func (l *Lock) HeldByLiveProcess() bool {
	holder, ok := l.Holder()
	return ok && l.probe.IsAlive(holder)
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

func (l *Lock) readHolder() (int, bool, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read lock file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		// Corrupt holder records cannot belong to a live process.
		return 0, false, nil
	}
	return pid, true, nil
}

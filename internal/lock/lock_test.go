package lock_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"stream2frame/internal/lock"
	"stream2frame/internal/logging"
)

func newTestLock(t *testing.T, probe lock.ProcessProbe) *lock.Lock {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scheduler.lock")
	return lock.New(path, probe, logging.NewNop())
}

func TestAcquireAndRelease(t *testing.T) {
	l := newTestLock(t, nil)
	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	holder, ok := l.Holder()
	if !ok || holder != os.Getpid() {
		t.Fatalf("expected holder %d, got %d (ok=%v)", os.Getpid(), holder, ok)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, ok := l.Holder(); ok {
		t.Fatal("expected no holder after release")
	}
}

func TestAcquireBusyWhenHolderAlive(t *testing.T) {
	alive := lock.ProbeFunc(func(pid int) bool { return pid == 9999 })
	l := newTestLock(t, alive)
	if err := os.WriteFile(l.Path(), []byte("9999\n"), 0o644); err != nil {
		t.Fatalf("seed lock file: %v", err)
	}

	err := l.Acquire()
	if !errors.Is(err, lock.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	// The live holder record must survive the failed acquisition.
	holder, ok := l.Holder()
	if !ok || holder != 9999 {
		t.Fatalf("expected holder 9999 preserved, got %d (ok=%v)", holder, ok)
	}
}

func TestAcquireReclaimsStaleLock(t *testing.T) {
	dead := lock.ProbeFunc(func(pid int) bool { return false })
	l := newTestLock(t, dead)
	if err := os.WriteFile(l.Path(), []byte("424242\n"), 0o644); err != nil {
		t.Fatalf("seed lock file: %v", err)
	}

	if err := l.Acquire(); err != nil {
		t.Fatalf("expected stale lock reclaim, got %v", err)
	}
	holder, ok := l.Holder()
	if !ok || holder != os.Getpid() {
		t.Fatalf("expected holder %d after reclaim, got %d", os.Getpid(), holder)
	}
}

func TestAcquireTreatsCorruptLockAsAbsent(t *testing.T) {
	l := newTestLock(t, lock.ProbeFunc(func(int) bool { return true }))
	if err := os.WriteFile(l.Path(), []byte("not-a-pid\n"), 0o644); err != nil {
		t.Fatalf("seed lock file: %v", err)
	}

	if err := l.Acquire(); err != nil {
		t.Fatalf("expected corrupt lock to be reclaimed, got %v", err)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	l := newTestLock(t, nil)
	if err := l.Release(); err != nil {
		t.Fatalf("release of unheld lock should succeed: %v", err)
	}
	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("second Release should be a no-op: %v", err)
	}
}

func TestReleasePreservesForeignHolder(t *testing.T) {
	l := newTestLock(t, nil)
	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	// Another process took over after the file was hand-deleted; releasing
	// must not remove the new holder's record.
	if err := os.WriteFile(l.Path(), []byte("31337\n"), 0o644); err != nil {
		t.Fatalf("rewrite lock file: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	holder, ok := l.Holder()
	if !ok || holder != 31337 {
		t.Fatalf("expected foreign holder 31337 preserved, got %d (ok=%v)", holder, ok)
	}
}

func TestReleaseAfterLockFileRemoved(t *testing.T) {
	l := newTestLock(t, nil)
	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := os.Remove(l.Path()); err != nil {
		t.Fatalf("remove lock file: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("release after external removal should succeed: %v", err)
	}
}

func TestHeldByLiveProcess(t *testing.T) {
	l := newTestLock(t, lock.ProbeFunc(func(pid int) bool { return pid == 7 }))
	if l.HeldByLiveProcess() {
		t.Fatal("empty lock should not report as held")
	}
	if err := os.WriteFile(l.Path(), []byte("7"), 0o644); err != nil {
		t.Fatalf("seed lock file: %v", err)
	}
	if !l.HeldByLiveProcess() {
		t.Fatal("expected lock held by live pid 7")
	}
}

package status_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stream2frame/internal/queue"
	"stream2frame/internal/status"
)

func newTestRegister(t *testing.T) *status.Register {
	t.Helper()
	return status.NewRegister(filepath.Join(t.TempDir(), "processing_status.txt"))
}

func TestSetAndReadRoundTrip(t *testing.T) {
	reg := newTestRegister(t)

	date := queue.Date{Year: 2024, Month: 10, Day: 30}
	snap := status.Snapshot{
		State:     status.StateProcessing,
		UpdatedAt: time.Date(2024, 10, 31, 3, 0, 0, 0, time.UTC),
		Details:   "processing 2024-10-30",
		PID:       4242,
		Date:      &date,
	}
	if err := reg.Set(snap); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := reg.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot to exist")
	}
	if got.State != status.StateProcessing || got.PID != 4242 {
		t.Fatalf("unexpected snapshot: %#v", got)
	}
	if got.Date == nil || *got.Date != date {
		t.Fatalf("unexpected date: %#v", got.Date)
	}
	if !got.UpdatedAt.Equal(snap.UpdatedAt) {
		t.Fatalf("unexpected timestamp: %s", got.UpdatedAt)
	}
}

func TestFileFormat(t *testing.T) {
	reg := newTestRegister(t)

	date := queue.Date{Year: 2024, Month: 11, Day: 1}
	snap := status.Snapshot{
		State:     status.StateQueued,
		UpdatedAt: time.Date(2024, 11, 2, 1, 30, 0, 0, time.UTC),
		Details:   "queued behind pid 99",
		PID:       77,
		Date:      &date,
	}
	if err := reg.Set(snap); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, err := os.ReadFile(reg.Path())
	if err != nil {
		t.Fatalf("read status file: %v", err)
	}
	want := "STATUS: QUEUED\nUPDATED: 2024-11-02 01:30:00\nDETAILS: queued behind pid 99\nCURRENT_PID: 77\nDATE: 2024-11-01\n"
	if string(data) != want {
		t.Fatalf("unexpected file contents:\n%q\nwant:\n%q", string(data), want)
	}
}

func TestSetOverwritesWholesale(t *testing.T) {
	reg := newTestRegister(t)

	date := queue.Date{Year: 2024, Month: 10, Day: 30}
	if err := reg.Set(status.Snapshot{State: status.StateProcessing, PID: 10, Date: &date}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := reg.Set(status.Snapshot{State: status.StateCompleted, Details: "done"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := reg.Read()
	if err != nil || !ok {
		t.Fatalf("Read failed: ok=%v err=%v", ok, err)
	}
	if got.State != status.StateCompleted {
		t.Fatalf("expected COMPLETED, got %s", got.State)
	}
	if got.PID != 0 || got.Date != nil {
		t.Fatalf("expected pid and date cleared, got %#v", got)
	}

	data, err := os.ReadFile(reg.Path())
	if err != nil {
		t.Fatalf("read status file: %v", err)
	}
	if strings.Contains(string(data), "CURRENT_PID") || strings.Contains(string(data), "DATE:") {
		t.Fatalf("stale keys survived overwrite: %q", string(data))
	}
}

func TestReadMissingFile(t *testing.T) {
	reg := newTestRegister(t)
	_, ok, err := reg.Read()
	if err != nil {
		t.Fatalf("Read of missing file failed: %v", err)
	}
	if ok {
		t.Fatal("expected no snapshot for missing file")
	}
}

func TestDetailsNewlinesFlattened(t *testing.T) {
	reg := newTestRegister(t)
	if err := reg.Set(status.Snapshot{State: status.StateError, Details: "line one\nline two"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok, err := reg.Read()
	if err != nil || !ok {
		t.Fatalf("Read failed: ok=%v err=%v", ok, err)
	}
	if got.Details != "line one line two" {
		t.Fatalf("expected flattened details, got %q", got.Details)
	}
}

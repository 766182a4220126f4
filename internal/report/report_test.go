package report_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stream2frame/internal/config"
	"stream2frame/internal/history"
	"stream2frame/internal/logging"
	"stream2frame/internal/queue"
	"stream2frame/internal/report"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SpoolDir = filepath.Join(dir, "spool")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.OutputDir = filepath.Join(dir, "out")
	cfg.Report.DatabasePath = filepath.Join(dir, "camera_stats.db")
	return &cfg
}

func openStore(t *testing.T, cfg *config.Config) *report.Store {
	t.Helper()
	store, err := report.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUpsertAndStatsForDate(t *testing.T) {
	cfg := newTestConfig(t)
	store := openStore(t, cfg)
	ctx := context.Background()

	date := queue.Date{Year: 2024, Month: 10, Day: 31}
	stat := report.Stat{
		Date:       date,
		Camera:     "driveway",
		MP4Exists:  true,
		MP4Size:    1024,
		FrameCount: 480,
		Active:     true,
	}
	if err := store.Upsert(ctx, stat); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	stats, err := store.StatsForDate(ctx, date)
	if err != nil {
		t.Fatalf("StatsForDate failed: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected one stat, got %d", len(stats))
	}
	got := stats[0]
	if got.Camera != "driveway" || !got.MP4Exists || got.MP4Size != 1024 || got.FrameCount != 480 || !got.Active {
		t.Fatalf("unexpected stat: %#v", got)
	}
	if got.Date != date {
		t.Fatalf("unexpected date: %s", got.Date)
	}
}

func TestUpsertReplacesPriorRow(t *testing.T) {
	cfg := newTestConfig(t)
	store := openStore(t, cfg)
	ctx := context.Background()

	date := queue.Date{Year: 2024, Month: 10, Day: 31}
	base := report.Stat{Date: date, Camera: "gate", FrameCount: 10, Active: true}
	if err := store.Upsert(ctx, base); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	base.FrameCount = 480
	base.MP4Exists = true
	if err := store.Upsert(ctx, base); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	stats, err := store.StatsForDate(ctx, date)
	if err != nil {
		t.Fatalf("StatsForDate failed: %v", err)
	}
	if len(stats) != 1 || stats[0].FrameCount != 480 || !stats[0].MP4Exists {
		t.Fatalf("expected replaced row, got %#v", stats)
	}
}

func TestRecentDatesNewestFirst(t *testing.T) {
	cfg := newTestConfig(t)
	store := openStore(t, cfg)
	ctx := context.Background()

	for day := 1; day <= 3; day++ {
		stat := report.Stat{
			Date:   queue.Date{Year: 2024, Month: 11, Day: day},
			Camera: "gate",
			Active: true,
		}
		if err := store.Upsert(ctx, stat); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	dates, err := store.RecentDates(ctx, 2)
	if err != nil {
		t.Fatalf("RecentDates failed: %v", err)
	}
	if len(dates) != 2 || dates[0].Day != 3 || dates[1].Day != 2 {
		t.Fatalf("expected newest-first window, got %v", dates)
	}
}

func TestStoreReopens(t *testing.T) {
	cfg := newTestConfig(t)
	store := openStore(t, cfg)
	ctx := context.Background()

	date := queue.Date{Year: 2024, Month: 10, Day: 31}
	if err := store.Upsert(ctx, report.Stat{Date: date, Camera: "gate", Active: true}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := openStore(t, cfg)
	stats, err := reopened.StatsForDate(ctx, date)
	if err != nil {
		t.Fatalf("StatsForDate after reopen failed: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected persisted row after reopen, got %#v", stats)
	}
}

// gapRecorder captures camera gap notifications and ignores everything else.
type gapRecorder struct {
	gaps []string
}

func (g *gapRecorder) NotifyRunCompleted(context.Context, queue.Date, time.Duration) error {
	return nil
}

func (g *gapRecorder) NotifyRunFailed(context.Context, queue.Date, history.Outcome, time.Duration) error {
	return nil
}

func (g *gapRecorder) NotifyRunInterrupted(context.Context, queue.Date) error { return nil }

func (g *gapRecorder) NotifyCameraGap(_ context.Context, _ queue.Date, camera string, frames int) error {
	g.gaps = append(g.gaps, fmt.Sprintf("%s=%d", camera, frames))
	return nil
}

func (g *gapRecorder) NotifyError(context.Context, error, string) error { return nil }

func (g *gapRecorder) TestNotification(context.Context) error { return nil }

func writeCameraOutput(t *testing.T, dir, camera string, frames int) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create date dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, camera+"_output_video.mp4"), []byte("mp4"), 0o644); err != nil {
		t.Fatalf("write mp4: %v", err)
	}
	rows := "frame_number,frame_date\n"
	for i := 0; i < frames; i++ {
		rows += fmt.Sprintf("%d,2024-10-31_00_%02d_00\n", i, i)
	}
	if err := os.WriteFile(filepath.Join(dir, camera+"_frame_data.csv"), []byte(rows), 0o644); err != nil {
		t.Fatalf("write frame data: %v", err)
	}
}

func TestAuditDateRecordsStatsAndGaps(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Report.MinFrames = 5
	cfg.Cameras = map[string]string{
		"driveway": "aa:bb:cc:dd:ee:01",
		"gate":     "aa:bb:cc:dd:ee:02",
		"retired":  "",
	}
	store := openStore(t, cfg)

	date := queue.Date{Year: 2024, Month: 10, Day: 31}
	dir := cfg.DatePath(date.Year, date.Month, date.Day)
	writeCameraOutput(t, dir, "driveway", 10)
	writeCameraOutput(t, dir, "gate", 2)

	recorder := &gapRecorder{}
	auditor := report.NewAuditor(cfg, store, recorder, logging.NewNop())

	if err := auditor.AuditDate(context.Background(), date); err != nil {
		t.Fatalf("AuditDate failed: %v", err)
	}

	stats, err := store.StatsForDate(context.Background(), date)
	if err != nil {
		t.Fatalf("StatsForDate failed: %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("expected one row per configured camera, got %#v", stats)
	}

	byCamera := map[string]report.Stat{}
	for _, s := range stats {
		byCamera[s.Camera] = s
	}
	if s := byCamera["driveway"]; !s.MP4Exists || s.FrameCount != 10 || !s.Active {
		t.Fatalf("unexpected driveway stat: %#v", s)
	}
	if s := byCamera["gate"]; s.FrameCount != 2 {
		t.Fatalf("unexpected gate stat: %#v", s)
	}
	if s := byCamera["retired"]; s.Active || s.MP4Exists {
		t.Fatalf("unexpected retired stat: %#v", s)
	}

	// gate is below the threshold, retired is inactive and must not alert.
	if len(recorder.gaps) != 1 || recorder.gaps[0] != "gate=2" {
		t.Fatalf("expected single gap for gate, got %v", recorder.gaps)
	}
}

func TestAuditDateWithoutCamerasIsNoop(t *testing.T) {
	cfg := newTestConfig(t)
	store := openStore(t, cfg)
	auditor := report.NewAuditor(cfg, store, &gapRecorder{}, logging.NewNop())

	if err := auditor.AuditDate(context.Background(), queue.Date{Year: 2024, Month: 10, Day: 31}); err != nil {
		t.Fatalf("AuditDate failed: %v", err)
	}
}

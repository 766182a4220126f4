package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"stream2frame/internal/config"
	"stream2frame/internal/logging"
	"stream2frame/internal/notifications"
	"stream2frame/internal/queue"
)

// Collaborator output naming per camera inside a date directory.
const (
	videoSuffix     = "_output_video.mp4"
	frameDataSuffix = "_frame_data.csv"
)

// Auditor verifies that every configured camera produced output for a date,
// records the per-camera stats, and raises a gap notification for active
// cameras below the frame threshold. Cameras with an empty MAC address in the
// inventory are treated as inactive: recorded, never alerted on.
type Auditor struct {
	cfg      *config.Config
	store    *Store
	notifier notifications.Service
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuditor builds an auditor over the camera inventory.
func NewAuditor(cfg *config.Config, store *Store, notifier notifications.Service, logger *slog.Logger) *Auditor {
	return &Auditor{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "report"),
		now:      time.Now,
	}
}

// AuditDate scans the date's output directory for every configured camera and
// persists one row per camera. Gap notifications are best-effort.
func (a *Auditor) AuditDate(ctx context.Context, date queue.Date) error {
	cameras := a.cameraNames()
	if len(cameras) == 0 {
		a.logger.Debug("no cameras configured, skipping audit",
			logging.String(logging.FieldDate, date.String()))
		return nil
	}

	dir := a.cfg.DatePath(date.Year, date.Month, date.Day)
	recordedAt := a.now().UTC()

	var firstErr error
	for _, camera := range cameras {
		stat := a.inspectCamera(dir, date, camera)
		stat.RecordedAt = recordedAt

		if err := a.store.Upsert(ctx, stat); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			a.logger.Error("camera stat persistence failed",
				logging.String(logging.FieldCamera, camera),
				logging.Error(err),
			)
			continue
		}

		if stat.Active && a.hasGap(stat) {
			a.logger.Warn("camera coverage gap detected",
				logging.String(logging.FieldEventType, "camera_gap"),
				logging.String(logging.FieldDate, date.String()),
				logging.String(logging.FieldCamera, camera),
				logging.Int("frame_count", stat.FrameCount),
				logging.Bool("mp4_exists", stat.MP4Exists),
			)
			if a.notifier != nil {
				if err := a.notifier.NotifyCameraGap(ctx, date, camera, stat.FrameCount); err != nil {
					a.logger.Warn("gap notification failed", logging.Error(err))
				}
			}
		}
	}
	return firstErr
}

func (a *Auditor) hasGap(stat Stat) bool {
	if !stat.MP4Exists {
		return true
	}
	minFrames := a.cfg.Report.MinFrames
	if minFrames <= 0 {
		minFrames = 1
	}
	return stat.FrameCount < minFrames
}

func (a *Auditor) inspectCamera(dir string, date queue.Date, camera string) Stat {
	stat := Stat{
		Date:   date,
		Camera: camera,
		Active: strings.TrimSpace(a.cfg.Cameras[camera]) != "",
	}

	if info, err := os.Stat(filepath.Join(dir, camera+videoSuffix)); err == nil && !info.IsDir() {
		stat.MP4Exists = true
		stat.MP4Size = info.Size()
	}

	count, err := countFrameRows(filepath.Join(dir, camera+frameDataSuffix))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		a.logger.Warn("frame data unreadable",
			logging.String(logging.FieldCamera, camera),
			logging.Error(err),
		)
	}
	stat.FrameCount = count
	return stat
}

func (a *Auditor) cameraNames() []string {
	names := make([]string, 0, len(a.cfg.Cameras))
	for name := range a.cfg.Cameras {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// countFrameRows counts data rows in a frame data CSV, excluding the header.
func countFrameRows(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	count := 0
	first := true
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read frame data: %w", err)
		}
		if first {
			first = false
			if len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "frame_number") {
				continue
			}
		}
		count++
	}
	return count, nil
}

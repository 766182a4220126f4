package report

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"stream2frame/internal/config"
	"stream2frame/internal/queue"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; existing databases with a different version are rejected.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Stat is one camera's audit result for one calendar date.
type Stat struct {
	Date       queue.Date
	Camera     string
	MP4Exists  bool
	MP4Size    int64
	FrameCount int
	Active     bool
	RecordedAt time.Time
}

// Store persists per-camera audit results backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the camera stats database.
func Open(cfg *config.Config) (*Store, error) {
	dbPath := cfg.Report.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(cfg.Paths.LogDir, "camera_stats.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_version").Scan(&count); err != nil {
		return fmt.Errorf("check schema version: %w", err)
	}
	if count == 0 {
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Upsert records one camera's result for a date, replacing any prior row for
// the same date and camera.
func (s *Store) Upsert(ctx context.Context, stat Stat) error {
	recordedAt := stat.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO camera_stats (date, camera, mp4_exists, mp4_size, frame_count, is_active, recorded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(date, camera) DO UPDATE SET
            mp4_exists = excluded.mp4_exists,
            mp4_size = excluded.mp4_size,
            frame_count = excluded.frame_count,
            is_active = excluded.is_active,
            recorded_at = excluded.recorded_at`,
		stat.Date.String(),
		stat.Camera,
		boolToInt(stat.MP4Exists),
		stat.MP4Size,
		stat.FrameCount,
		boolToInt(stat.Active),
		recordedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert camera stat: %w", err)
	}
	return nil
}

// StatsForDate returns all camera rows for a date ordered by camera name.
func (s *Store) StatsForDate(ctx context.Context, date queue.Date) ([]Stat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, camera, mp4_exists, mp4_size, frame_count, is_active, recorded_at
         FROM camera_stats WHERE date = ? ORDER BY camera`,
		date.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query camera stats: %w", err)
	}
	defer rows.Close()
	return scanStats(rows)
}

// RecentDates returns up to limit distinct audited dates, newest first.
func (s *Store) RecentDates(ctx context.Context, limit int) ([]queue.Date, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT date FROM camera_stats ORDER BY date DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audited dates: %w", err)
	}
	defer rows.Close()

	var dates []queue.Date
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan audited date: %w", err)
		}
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			continue
		}
		dates = append(dates, queue.DateOf(parsed))
	}
	return dates, rows.Err()
}

func scanStats(rows *sql.Rows) ([]Stat, error) {
	var stats []Stat
	for rows.Next() {
		var (
			stat       Stat
			rawDate    string
			mp4Exists  int
			active     int
			recordedAt string
		)
		if err := rows.Scan(&rawDate, &stat.Camera, &mp4Exists, &stat.MP4Size, &stat.FrameCount, &active, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan camera stat: %w", err)
		}
		if parsed, err := time.Parse("2006-01-02", rawDate); err == nil {
			stat.Date = queue.DateOf(parsed)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
			stat.RecordedAt = parsed
		}
		stat.MP4Exists = mp4Exists != 0
		stat.Active = active != 0
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

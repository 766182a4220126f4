package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"stream2frame/internal/queue"
)

// Outcome classifies a completed processing attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeError   Outcome = "ERROR"
	OutcomeTimeout Outcome = "TIMEOUT"
	OutcomeFailed  Outcome = "FAILED"
)

// ParseOutcome converts a string into a known Outcome.
func ParseOutcome(value string) (Outcome, bool) {
	normalized := Outcome(strings.ToUpper(strings.TrimSpace(value)))
	switch normalized {
	case OutcomeSuccess, OutcomeError, OutcomeTimeout, OutcomeFailed:
		return normalized, true
	}
	return "", false
}

// Record is one completed processing attempt. Records are append-only and
// never mutated after being written.
type Record struct {
	Date    queue.Date
	Start   time.Time
	End     time.Time
	Outcome Outcome
}

// Duration returns the wall-clock span of the attempt.
func (r Record) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Stats aggregates read-only views over the history log.
type Stats struct {
	Total           int
	Succeeded       int
	SuccessRate     float64
	AverageDuration time.Duration
}

const timeLayout = "2006-01-02 15:04:05"

var header = []string{"date", "start", "end", "duration", "status", "year", "month", "day"}

// Log is the append-only audit trail of completed processing attempts,
// persisted as a CSV file with a header row.
type Log struct {
	path string
}

// NewLog constructs a history log at path. The file is created lazily on the
// first Record call.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Path returns the history file location.
func (l *Log) Path() string {
	return l.path
}

// Record appends one attempt to the log, writing the header first when the
// file is new. Existing rows are never touched.
func (l *Log) Record(rec Record) error {
	if dir := filepath.Dir(l.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open history log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat history log: %w", err)
	}

	writer := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("write history header: %w", err)
		}
	}
	row := []string{
		rec.Date.String(),
		rec.Start.Format(timeLayout),
		rec.End.Format(timeLayout),
		FormatDuration(rec.Duration()),
		string(rec.Outcome),
		strconv.Itoa(rec.Date.Year),
		strconv.Itoa(rec.Date.Month),
		strconv.Itoa(rec.Date.Day),
	}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("write history row: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush history log: %w", err)
	}
	return nil
}

// Records returns every logged attempt in append order. A missing file yields
// an empty history.
func (l *Log) Records() ([]Record, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history log: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// A crash mid-append can leave a truncated trailing line. Accept
	// variable-width rows and let parseRow drop the malformed ones so a
	// single bad line never blinds every reader of the log.
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read history log: %w", err)
	}

	var records []Record
	for i, row := range rows {
		if i == 0 && row[0] == header[0] {
			continue
		}
		rec, ok := parseRow(row)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Recent returns the newest n records, oldest first.
func (l *Log) Recent(n int) ([]Record, error) {
	records, err := l.Records()
	if err != nil {
		return nil, err
	}
	if n <= 0 || len(records) <= n {
		return records, nil
	}
	return records[len(records)-n:], nil
}

// Count returns the number of logged attempts.
func (l *Log) Count() (int, error) {
	records, err := l.Records()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Stats derives aggregate statistics over the full history.
func (l *Log) Stats() (Stats, error) {
	records, err := l.Records()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Total: len(records)}
	if stats.Total == 0 {
		return stats, nil
	}

	var total time.Duration
	for _, rec := range records {
		total += rec.Duration()
		if rec.Outcome == OutcomeSuccess {
			stats.Succeeded++
		}
	}
	stats.SuccessRate = float64(stats.Succeeded) / float64(stats.Total)
	stats.AverageDuration = total / time.Duration(stats.Total)
	return stats, nil
}

// FormatDuration renders a duration as whole hours plus remainder minutes.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int(d/time.Minute) % 60
	return fmt.Sprintf("%dh %02dm", hours, minutes)
}

func parseRow(row []string) (Record, bool) {
	if len(row) != len(header) {
		return Record{}, false
	}
	start, err := time.Parse(timeLayout, row[1])
	if err != nil {
		return Record{}, false
	}
	end, err := time.Parse(timeLayout, row[2])
	if err != nil {
		return Record{}, false
	}
	outcome, ok := ParseOutcome(row[4])
	if !ok {
		return Record{}, false
	}
	year, err := strconv.Atoi(row[5])
	if err != nil {
		return Record{}, false
	}
	month, err := strconv.Atoi(row[6])
	if err != nil {
		return Record{}, false
	}
	day, err := strconv.Atoi(row[7])
	if err != nil {
		return Record{}, false
	}
	return Record{
		Date:    queue.Date{Year: year, Month: month, Day: day},
		Start:   start,
		End:     end,
		Outcome: outcome,
	}, true
}

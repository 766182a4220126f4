package queue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const tokenSuffix = ".date"

// FileStore persists queue entries as one token file per pending date. The
// filename embeds a nanosecond enqueue timestamp for ordering; the file body
// holds the whitespace-separated year, month, and day.
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore opens a file-backed queue rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: spool directory not configured", ErrStoreUnavailable)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create spool directory: %v", ErrStoreUnavailable, err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// Enqueue creates a new token file for the date. Timestamp collisions advance
// by one nanosecond rather than overwriting an existing entry.
func (s *FileStore) Enqueue(date Date) (Entry, error) {
	if !date.Valid() {
		return Entry{}, fmt.Errorf("enqueue: invalid date %d-%d-%d", date.Year, date.Month, date.Day)
	}

	stamp := s.now().UnixNano()
	body := []byte(fmt.Sprintf("%d %d %d\n", date.Year, date.Month, date.Day))
	for {
		token := tokenName(stamp, date)
		file, err := os.OpenFile(filepath.Join(s.dir, token), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				stamp++
				continue
			}
			return Entry{}, fmt.Errorf("%w: create token: %v", ErrStoreUnavailable, err)
		}
		if _, err := file.Write(body); err != nil {
			file.Close()
			return Entry{}, fmt.Errorf("%w: write token: %v", ErrStoreUnavailable, err)
		}
		if err := file.Close(); err != nil {
			return Entry{}, fmt.Errorf("%w: close token: %v", ErrStoreUnavailable, err)
		}
		return Entry{Date: date, EnqueuedAt: time.Unix(0, stamp), Token: token}, nil
	}
}

// PeekOldest returns the oldest pending entry without removing it.
func (s *FileStore) PeekOldest() (Entry, bool, error) {
	entries, err := s.ListOldestFirst()
	if err != nil {
		return Entry{}, false, err
	}
	if len(entries) == 0 {
		return Entry{}, false, nil
	}
	return entries[0], true, nil
}

// Remove deletes an entry's token file. Idempotent when already removed.
func (s *FileStore) Remove(entry Entry) error {
	if entry.Token == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, entry.Token))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token %q: %w", entry.Token, err)
	}
	return nil
}

// Count returns the number of pending entries.
func (s *FileStore) Count() (int, error) {
	entries, err := s.ListOldestFirst()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// ListOldestFirst returns all pending entries in enqueue order. Unparseable
// files in the spool directory are skipped.
func (s *FileStore) ListOldestFirst() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read spool directory: %v", ErrStoreUnavailable, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		entry, ok := parseToken(dirEntry.Name())
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EnqueuedAt.Before(entries[j].EnqueuedAt)
	})
	return entries, nil
}

func tokenName(stamp int64, date Date) string {
	return fmt.Sprintf("%020d_%s%s", stamp, date.String(), tokenSuffix)
}

func parseToken(name string) (Entry, bool) {
	if !strings.HasSuffix(name, tokenSuffix) {
		return Entry{}, false
	}
	base := strings.TrimSuffix(name, tokenSuffix)
	stampPart, datePart, found := strings.Cut(base, "_")
	if !found {
		return Entry{}, false
	}
	stamp, err := strconv.ParseInt(stampPart, 10, 64)
	if err != nil {
		return Entry{}, false
	}
	parsed, err := time.Parse("2006-01-02", datePart)
	if err != nil {
		return Entry{}, false
	}
	return Entry{
		Date:       DateOf(parsed),
		EnqueuedAt: time.Unix(0, stamp),
		Token:      name,
	}, true
}

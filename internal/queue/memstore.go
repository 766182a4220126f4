package queue

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	clock   int64
}

// NewMemoryStore returns an empty in-memory queue.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Enqueue(date Date) (Entry, error) {
	if !date.Valid() {
		return Entry{}, fmt.Errorf("enqueue: invalid date %d-%d-%d", date.Year, date.Month, date.Day)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := time.Now().UnixNano()
	if stamp <= s.clock {
		stamp = s.clock + 1
	}
	s.clock = stamp

	entry := Entry{Date: date, EnqueuedAt: time.Unix(0, stamp), Token: tokenName(stamp, date)}
	s.entries[entry.Token] = entry
	return entry, nil
}

func (s *MemoryStore) PeekOldest() (Entry, bool, error) {
	entries, err := s.ListOldestFirst()
	if err != nil || len(entries) == 0 {
		return Entry{}, false, err
	}
	return entries[0], true, nil
}

func (s *MemoryStore) Remove(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, entry.Token)
	return nil
}

func (s *MemoryStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

func (s *MemoryStore) ListOldestFirst() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EnqueuedAt.Before(entries[j].EnqueuedAt)
	})
	return entries, nil
}

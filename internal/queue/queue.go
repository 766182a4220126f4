package queue

import (
	"errors"
	"fmt"
	"time"
)

// ErrStoreUnavailable indicates the underlying spool directory cannot be
// written. Enqueue never fails silently.
var ErrStoreUnavailable = errors.New("queue store unavailable")

// Date identifies one calendar day of camera footage.
type Date struct {
	Year  int
	Month int
	Day   int
}

// String renders the date in ISO form for logs and history records.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Valid reports whether the date denotes a real calendar day.
func (d Date) Valid() bool {
	if d.Year < 1 || d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return false
	}
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	return t.Year() == d.Year && int(t.Month()) == d.Month && t.Day() == d.Day
}

// DateOf truncates a time to its calendar date in the local calendar.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Entry is one pending work item. Token carries the enqueue timestamp and is
// the entry's identity within the store.
type Entry struct {
	Date       Date
	EnqueuedAt time.Time
	Token      string
}

// Store is the durable set of pending dates awaiting processing. Entries are
// ordered oldest-enqueued-first; duplicate dates are permitted.
type Store interface {
	// Enqueue appends a new entry for the date. Two entries enqueued at the
	// same instant must not overwrite each other.
	Enqueue(date Date) (Entry, error)
	// PeekOldest returns the entry with the smallest enqueue timestamp
	// without removing it.
	PeekOldest() (Entry, bool, error)
	// Remove deletes a specific entry by token. Removing an entry that is
	// already gone is not an error.
	Remove(entry Entry) error
	// Count returns the number of pending entries.
	Count() (int, error)
	// ListOldestFirst returns all pending entries in FIFO order.
	ListOldestFirst() ([]Entry, error)
}

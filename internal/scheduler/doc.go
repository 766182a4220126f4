// Package scheduler implements the single-slot scheduling cycle: one lock,
// one active processing run, and a FIFO backlog of dates drained under that
// lock. Overlapping invocations enqueue instead of waiting.
package scheduler

// Package queue manages the durable backlog of dates awaiting processing.
//
// The canonical store keeps one token file per pending date in a spool
// directory. Filenames embed the nanosecond enqueue timestamp, which gives the
// queue its FIFO order and keeps simultaneous enqueues from colliding. The
// same date may be queued more than once; the scheduler processes each entry
// independently.
package queue

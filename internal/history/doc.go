// Package history keeps the append-only audit trail of completed processing
// attempts and derives aggregate statistics from it. Together with the queue
// spool it is the durable source of truth; the status register is advisory.
package history

// Package lock provides the single-instance scheduler lock: a pidfile naming
// the holder, liveness probing of the recorded process, and automatic reclaim
// of locks left behind by crashed runs.
package lock

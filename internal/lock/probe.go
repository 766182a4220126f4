package lock

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ProcessProbe reports whether a process id refers to a live process.
type ProcessProbe interface {
	IsAlive(pid int) bool
}

// SignalProbe checks liveness by sending signal zero to the process.
type SignalProbe struct{}

// IsAlive returns true when the pid exists in the local process table.
// EPERM means the process exists but belongs to another user.
func (SignalProbe) IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// ProbeFunc adapts a function to the ProcessProbe interface.
type ProbeFunc func(pid int) bool

func (f ProbeFunc) IsAlive(pid int) bool { return f(pid) }

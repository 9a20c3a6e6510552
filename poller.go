//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import (
	"errors"

	"golang.org/x/sys/unix"
)

// readyEvent is one (fd, mask) pair returned by a backend wait.
type readyEvent struct {
	fd     int
	events IOEvents
}

// backendOp is the action a watcher's desired-vs-registered mask divergence
// requires when flushed to the backend.
type backendOp int

const (
	backendAdd backendOp = iota
	backendModify
	backendRemove
)

// backend is the OS readiness facility the loop multiplexes on: epoll on
// Linux, kqueue on Darwin/BSD.
type backend interface {
	// fd returns the backend's own descriptor (exposed by Loop.BackendFd).
	fd() int
	// apply performs op for fd with the given desired mask. Registering a
	// fd that already exists must be retried as a modify by the caller;
	// backend implementations report that case distinctly so callers can
	// do so (see poll.go flushWatcherQueue).
	apply(op backendOp, fd int, mask IOEvents) error
	// wait blocks for up to timeoutMs milliseconds (-1 = forever, 0 =
	// non-blocking) and appends ready (fd, mask) pairs to events,
	// returning the extended slice. An interrupted wait (EINTR) returns
	// events unchanged and a nil error.
	wait(events []readyEvent, timeoutMs int) ([]readyEvent, error)
	// batchSize reports the capacity of one wait call's event buffer, so
	// the poll loop can tell a full batch (more backlog likely remains)
	// from a partial one.
	batchSize() int
	close() error
}

// isEExist reports whether err is the platform's "already exists" error, the
// only backend error the poll algorithm tolerates from an ADD, by retrying
// as MODIFY.
func isEExist(err error) bool {
	return errors.Is(err, unix.EEXIST)
}

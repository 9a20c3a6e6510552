//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import (
	"errors"
	"fmt"
)

// Domain error kinds. No entry point in this package returns these: errors
// from system calls come back as the wrapped errno (see wrapErrno), and
// misuse such as starting a closing handle is a fault.
var (
	// ErrInval indicates a bad argument was passed to an entry point.
	ErrInval = errors.New("evloop: invalid argument")
	// ErrNoBufs indicates the caller's buffer was too small.
	ErrNoBufs = errors.New("evloop: buffer too small")
	// ErrNoEnt indicates a lookup failure.
	ErrNoEnt = errors.New("evloop: no such entry")
	// ErrNoMem indicates a resource could not be allocated.
	ErrNoMem = errors.New("evloop: out of memory")
	// ErrBadF indicates a handle has no live file descriptor.
	ErrBadF = errors.New("evloop: bad file descriptor")
	// ErrNotSup indicates the requested operation isn't supported on this platform.
	ErrNotSup = errors.New("evloop: not supported")
	// ErrIO indicates an I/O error that isn't one of the above.
	ErrIO = errors.New("evloop: I/O error")

	// ErrClosed names an operation attempted on a closing or closed handle.
	ErrClosed = errors.New("evloop: handle is closed")
	// ErrLoopClosed names an operation attempted on a closed loop.
	ErrLoopClosed = errors.New("evloop: loop is closed")
)

// wrapErrno prefixes a raw syscall errno with op, preserving the original
// error for errors.Is/errors.As via %w. It does not translate the errno
// into one of the domain error kinds above.
func wrapErrno(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("evloop: %s: %w", op, err)
}

// fault reports a condition the loop's invariants say cannot happen, such as
// the backend returning an error other than "already exists" on an ADD, or
// the readiness wait failing with anything other than EINTR. The Go
// equivalent of the reference implementation's abort(): these are
// programming faults, not recoverable runtime conditions.
func fault(format string, args ...any) {
	panic(fmt.Sprintf("evloop: invariant violation: "+format, args...))
}

//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// AsyncCallback receives the handle that was woken.
type AsyncCallback func(*Async)

// Async is the loop's sole sanctioned cross-goroutine entry point for
// ordinary wakeups: Send may be called from any goroutine, at any time,
// including concurrently with the loop running on its own goroutine. It
// wakes the loop's poll wait and coalesces any Sends that arrive before the
// callback next runs into a single invocation, the same semantics as a
// condition variable's broadcast rather than a counted channel.
//
// Implemented as a non-blocking self-pipe: Send writes one byte if none is
// already in flight, and the callback drains the pipe before invoking cb so
// a Send that arrives mid-callback is not lost (it re-arms the pending
// flag and writes again).
type Async struct {
	Handle
	io       ioWatcher
	readFd   int
	writeFd  int
	cb       AsyncCallback
	pending  atomic.Bool
	drainBuf [64]byte
}

// NewAsync creates an async handle bound to loop, opening its self-pipe and
// starting it watching for read-readiness. cb runs on the loop's goroutine
// whenever Send has been called since the last invocation.
func NewAsync(loop *Loop, cb AsyncCallback) (*Async, error) {
	fds, err := selfPipe()
	if err != nil {
		return nil, err
	}

	h := &Async{cb: cb, readFd: fds[0], writeFd: fds[1]}
	h.init(loop, KindAsync)
	h.io.ioInit(loop, h.onReadable, h.readFd)
	h.closeHook = func(hh *Handle) {
		h.io.ioClose()
	}
	h.finalize = func(hh *Handle) {
		_ = unix.Close(h.readFd)
		_ = unix.Close(h.writeFd)
	}

	h.io.ioStart(EventRead)
	h.setActive(true)
	h.Ref()

	return h, nil
}

// Send wakes the loop and guarantees cb runs at least once after Send is
// called, coalescing concurrent or rapid-fire Sends into one invocation.
// Safe for concurrent use, including from outside the loop's goroutine.
func (h *Async) Send() {
	if h.pending.CompareAndSwap(false, true) {
		var b [1]byte
		for {
			_, err := unix.Write(h.writeFd, b[:])
			if err == unix.EAGAIN {
				// pipe buffer full: a wakeup is already pending in the
				// kernel, no further write is needed.
				return
			}
			if err == unix.EINTR {
				continue
			}
			return
		}
	}
}

// Fileno returns the read end of the self-pipe, shadowing Handle.Fileno.
func (h *Async) Fileno() int { return h.readFd }

func (h *Async) onReadable(IOEvents) {
	for {
		n, err := unix.Read(h.readFd, h.drainBuf[:])
		if n <= 0 || err != nil {
			break
		}
		if n < len(h.drainBuf) {
			break
		}
	}
	h.pending.Store(false)
	if h.cb != nil {
		h.cb(h)
	}
}

// selfPipe opens a non-blocking, close-on-exec pipe for Async's wakeup
// mechanism.
func selfPipe() ([2]int, error) {
	var fds [2]int
	var raw [2]int
	if err := unix.Pipe2(raw[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return fds, wrapErrno("pipe2", err)
	}
	fds[0], fds[1] = raw[0], raw[1]
	return fds, nil
}

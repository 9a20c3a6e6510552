//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

// Poll is a bare-fd handle: it exposes the io-watcher primitive directly,
// with no buffering or protocol state of its own. It exists for embedding
// by out-of-package transports (TCP, UDP, named pipes, TTYs) and for
// exercising the poll algorithm directly in tests, over a pipe or
// socketpair fd, without a full connection-oriented handle on top.
type Poll struct {
	Handle
	io ioWatcher
}

// NewPoll wraps fd (already non-blocking; use prepareFD to arrange that) in
// a Poll handle bound to loop. NewPoll does not take ownership of fd: Close
// does not close it.
func NewPoll(loop *Loop, fd int) *Poll {
	h := &Poll{}
	h.init(loop, KindPoll)
	h.io.ioInit(loop, nil, fd)
	h.closeHook = func(hh *Handle) {
		h.io.ioClose()
	}
	return h
}

// Start arms cb to run whenever fd's readiness intersects mask.
func (h *Poll) Start(mask IOEvents, cb IOCallback) {
	if h.IsClosing() {
		fault("Poll.Start on closing handle")
	}
	h.io.cb = cb
	h.io.ioStart(mask)
	h.setActive(true)
}

// Stop narrows the watched mask by mask; the handle goes inactive once
// nothing remains watched.
func (h *Poll) Stop(mask IOEvents) {
	h.io.ioStop(mask)
	if h.io.pevents == 0 {
		h.setActive(false)
	}
}

// Fileno returns the underlying descriptor, shadowing Handle.Fileno.
func (h *Poll) Fileno() int {
	return h.io.fd
}

//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import (
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

// SignalCallback receives the handle and the delivered signal.
type SignalCallback func(*Signal, os.Signal)

// Signal delivers OS signals onto the loop's own goroutine, bridging
// os/signal's channel-based delivery into the loop's self-pipe wakeup
// mechanism. Signal is the one handle kind that defers its own close:
// Close unregisters with signal.Notify and asks the background relay
// goroutine to exit, but the handle isn't pushed onto closingHandles until
// that goroutine confirms it has stopped, since finalize tears down the
// self-pipe the goroutine still references.
//
// Any event on the loop's signal-handling fd is always dispatched last
// within a ready batch; Signal registers its io-watcher as
// loop.signalIOWatcher to get that ordering.
type Signal struct {
	Handle
	io      ioWatcher
	readFd  int
	writeFd int

	mu      sync.Mutex
	pending []os.Signal
	notify  chan os.Signal
	done    chan struct{}

	cb SignalCallback
}

// NewSignal creates a signal handle bound to loop. It does nothing until
// Start.
func NewSignal(loop *Loop) (*Signal, error) {
	fds, err := selfPipe()
	if err != nil {
		return nil, err
	}

	h := &Signal{readFd: fds[0], writeFd: fds[1]}
	h.deferred = true
	h.init(loop, KindSignal)
	h.io.ioInit(loop, h.onReadable, h.readFd)
	h.closeHook = h.onClose
	h.finalize = func(hh *Handle) {
		_ = unix.Close(h.readFd)
		_ = unix.Close(h.writeFd)
	}
	return h, nil
}

// Start begins watching for sig and arranges for cb to run, on the loop's
// goroutine, each time it's delivered. Calling Start again replaces both
// the signal set and the callback.
func (h *Signal) Start(cb SignalCallback, sig ...os.Signal) {
	if h.IsClosing() {
		fault("Signal.Start on closing handle")
	}
	if h.notify != nil {
		signal.Stop(h.notify)
	}

	h.cb = cb
	h.notify = make(chan os.Signal, 16)
	h.done = make(chan struct{})
	signal.Notify(h.notify, sig...)

	if h.loop.signalIOWatcher == nil {
		h.loop.signalIOWatcher = &h.io
	}
	h.io.ioStart(EventRead)
	h.setActive(true)
	h.Ref()

	go h.relay(h.notify, h.done)
}

// relay forwards signals from notify into pending and wakes the loop, until
// notify is closed by onClose.
func (h *Signal) relay(notify chan os.Signal, done chan struct{}) {
	for sig := range notify {
		h.mu.Lock()
		h.pending = append(h.pending, sig)
		h.mu.Unlock()
		h.wake()
	}
	close(done)
	h.wake()
}

// Fileno returns the read end of the self-pipe, shadowing Handle.Fileno.
func (h *Signal) Fileno() int { return h.readFd }

func (h *Signal) wake() {
	var b [1]byte
	for {
		_, err := unix.Write(h.writeFd, b[:])
		if err == unix.EAGAIN {
			return
		}
		if err == unix.EINTR {
			continue
		}
		return
	}
}

func (h *Signal) onReadable(IOEvents) {
	var buf [64]byte
	for {
		n, err := unix.Read(h.readFd, buf[:])
		if n <= 0 || err != nil {
			break
		}
		if n < len(buf) {
			break
		}
	}

	h.mu.Lock()
	sigs := h.pending
	h.pending = nil
	h.mu.Unlock()

	for _, sig := range sigs {
		if h.cb != nil {
			h.cb(h, sig)
		}
	}

	select {
	case <-h.done:
		if h.loop.signalIOWatcher == &h.io {
			h.loop.signalIOWatcher = nil
		}
		h.io.ioClose()
		h.setActive(false)
		h.loop.closingHandles.push(&h.Handle)
	default:
	}
}

// onClose is the handle's closeHook: it stops further signal delivery and
// closes notify so relay exits; relay's exit, observed by onReadable via
// done, is what actually enqueues the handle for finishClose.
func (h *Signal) onClose(hh *Handle) {
	if h.notify != nil {
		signal.Stop(h.notify)
		close(h.notify)
	} else {
		h.loop.closingHandles.push(&h.Handle)
	}
}

//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import "container/list"

// Kind is the closed set of handle kinds the loop knows how to finalize.
// Concrete protocol bodies (TCP, UDP, named pipes, TTYs, processes,
// fs-event/fs-poll watchers, DNS) live outside this package; the kinds
// relevant to them are named here only so close-protocol dispatch and
// logging have something stable to tag, per the "polymorphic closed tagged
// variant, not inheritance" design note.
type Kind int

const (
	KindUnknown Kind = iota
	KindNamedPipe
	KindTTY
	KindTCP
	KindUDP
	KindPrepare
	KindCheck
	KindIdle
	KindAsync
	KindTimer
	KindProcess
	KindFSEvent
	KindFSPoll
	KindPoll
	KindSignal
)

func (k Kind) String() string {
	switch k {
	case KindNamedPipe:
		return "pipe"
	case KindTTY:
		return "tty"
	case KindTCP:
		return "tcp"
	case KindUDP:
		return "udp"
	case KindPrepare:
		return "prepare"
	case KindCheck:
		return "check"
	case KindIdle:
		return "idle"
	case KindAsync:
		return "async"
	case KindTimer:
		return "timer"
	case KindProcess:
		return "process"
	case KindFSEvent:
		return "fs_event"
	case KindFSPoll:
		return "fs_poll"
	case KindPoll:
		return "poll"
	case KindSignal:
		return "signal"
	default:
		return "unknown"
	}
}

// flag holds the handle state bits from the data model: CLOSING, CLOSED,
// REF and ACTIVE never observe CLOSED&&!CLOSING, and CLOSING persists until
// finishClose runs.
type flag uint8

const (
	flagActive flag = 1 << iota
	flagClosing
	flagClosed
	flagRef
)

// Handle is the base embedded by every concrete handle kind (Idle, Prepare,
// Check, Timer, Async, Signal, Poll, and any out-of-package protocol
// handle). It owns membership in the loop's handleQueue and drives the
// two-phase close protocol: Close marks CLOSING and dispatches to
// closeHook; finishClose (run from the closing phase) sets CLOSED, runs
// finalize, unlinks from handleQueue, and invokes closeCb.
type Handle struct {
	kind  Kind
	loop  *Loop
	flags flag

	elem *list.Element // membership in loop.handleQueue

	closeCb func(*Handle)
	// closeHook is supplied by the concrete handle kind; it must stop any
	// io-watchers, unregister fds, and abort in-flight requests belonging
	// to that kind. It must not push the handle onto closingHandles itself
	// unless deferred is true (only Signal defers).
	closeHook func(*Handle)
	// finalize is the kind-specific destroyer invoked by finishClose,
	// before the handle is unlinked from handleQueue. May be nil.
	finalize func(*Handle)
	// deferred, when true, means closeHook is responsible for pushing this
	// handle onto loop.closingHandles itself once it's safe to do so,
	// rather than Close doing it synchronously. Only Signal sets this,
	// since it must wait for its background relay goroutine to exit first.
	deferred bool

	nextClosing *Handle // singly linked closingHandles membership
}

func (h *Handle) init(loop *Loop, kind Kind) {
	h.loop = loop
	h.kind = kind
	h.flags = flagRef
	h.elem = loop.handleQueue.PushBack(h)
}

// Kind returns the handle's kind tag.
func (h *Handle) Kind() Kind { return h.kind }

// Loop returns the owning loop.
func (h *Handle) Loop() *Loop { return h.loop }

// Fileno returns the handle's underlying file descriptor, or -1 for a kind
// that has none (Idle, Prepare, Check, Timer). Io-bearing kinds (Poll,
// Async, Signal, and any out-of-package transport) shadow this with their
// own Fileno returning their embedded io-watcher's fd.
func (h *Handle) Fileno() int { return -1 }

// IsClosing reports whether Close has been called on this handle.
func (h *Handle) IsClosing() bool { return h.flags&(flagClosing|flagClosed) != 0 }

// IsClosed reports whether finishClose has already run for this handle.
func (h *Handle) IsClosed() bool { return h.flags&flagClosed != 0 }

// IsActive reports whether the handle is doing work that should keep the
// loop alive (see Loop.Alive).
func (h *Handle) IsActive() bool { return h.flags&flagActive != 0 }

// setActive toggles flagActive and, for a ref'd handle, keeps
// loop.activeHandles in sync — the count Loop.Alive reads. An unref'd
// handle may still be active (doing work) without it, matching Unref's
// purpose of excluding a handle from keeping the loop alive.
func (h *Handle) setActive(active bool) {
	wasActive := h.IsActive()
	if active {
		h.flags |= flagActive
	} else {
		h.flags &^= flagActive
	}
	if !h.hasRef() {
		return
	}
	if active && !wasActive {
		h.loop.activeHandles++
	} else if !active && wasActive {
		h.loop.activeHandles--
	}
}

// Ref marks the handle as keeping the loop alive (the default state for
// most handles once started). Idempotent.
func (h *Handle) Ref() {
	if h.flags&flagRef == 0 {
		h.flags |= flagRef
		if h.IsActive() {
			h.loop.activeHandles++
		}
	}
}

// Unref excludes the handle from Loop.Alive's reckoning without stopping
// it — used by handles like a keepalive timer that shouldn't by themselves
// prevent the loop from returning. Idempotent.
func (h *Handle) Unref() {
	if h.flags&flagRef != 0 {
		h.flags &^= flagRef
		if h.IsActive() {
			h.loop.activeHandles--
		}
	}
}

func (h *Handle) hasRef() bool { return h.flags&flagRef != 0 }

// Close marks the handle CLOSING, dispatches to its kind-specific close
// hook, and (unless the kind defers, see Signal) pushes it onto the loop's
// closing queue so finishClose runs it in this iteration's closing phase.
// Double-close is a programming fault, matching the reference
// implementation's assertion.
func (h *Handle) Close(cb func(*Handle)) {
	if h.IsClosing() {
		fault("double close of handle kind=%s", h.kind)
	}
	h.flags |= flagClosing
	h.closeCb = cb
	h.setActive(false)
	h.loop.logDebugf("closing handle kind=%s", h.kind)

	if h.closeHook != nil {
		h.closeHook(h)
	}
	if !h.deferred {
		h.loop.closingHandles.push(h)
	}
}

// finishClose implements the second half of the close protocol, run only
// from Loop's closing phase: asserts CLOSING && !CLOSED, sets CLOSED, runs
// the kind-specific finalizer, unlinks from handleQueue, and invokes
// closeCb. It leaves the active-handle accounting alone: Close already
// deactivated the handle. The handle must not be
// touched by the loop after closeCb returns, so the caller may free its
// storage from within the callback.
func (h *Handle) finishClose() {
	if h.flags&flagClosing == 0 || h.flags&flagClosed != 0 {
		fault("finishClose on handle not in CLOSING state, kind=%s", h.kind)
	}
	h.flags |= flagClosed

	if h.finalize != nil {
		h.finalize(h)
	}

	h.loop.handleQueue.Remove(h.elem)
	h.elem = nil

	cb := h.closeCb
	h.closeCb = nil
	if cb != nil {
		cb(h)
	}
}

//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import "container/list"

// IdleCallback receives the handle that invoked it.
type IdleCallback func(*Idle)

// Idle runs its callback once per iteration, right after the pending-queue
// drain, for as long as it's started — even when the loop would otherwise
// have nothing to do (an active idle handle pins the backend poll timeout
// to zero). Typical uses: a "run when otherwise quiescent" hook, or
// bootstrapping work that must happen exactly once around the first
// iteration.
type Idle struct {
	Handle
	cb   IdleCallback
	elem *list.Element // membership in loop.idleHandles
}

// NewIdle creates an idle handle bound to loop. It does nothing until Start.
func NewIdle(loop *Loop) *Idle {
	h := &Idle{}
	h.init(loop, KindIdle)
	h.closeHook = func(hh *Handle) { h.Stop() }
	return h
}

// Start arms the handle with cb, replacing any previously set callback.
func (h *Idle) Start(cb IdleCallback) {
	if h.IsClosing() {
		fault("Idle.Start on closing handle")
	}
	h.cb = cb
	if h.elem == nil {
		h.elem = h.loop.idleHandles.PushBack(h)
	}
	h.setActive(true)
}

// Stop disarms the handle; it may be Started again later.
func (h *Idle) Stop() {
	if h.elem != nil {
		h.loop.idleHandles.Remove(h.elem)
		h.elem = nil
	}
	h.setActive(false)
}

func (h *Idle) invoke() {
	if h.cb != nil {
		h.cb(h)
	}
}

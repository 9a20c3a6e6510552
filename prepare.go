//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import "container/list"

// PrepareCallback receives the handle that invoked it.
type PrepareCallback func(*Prepare)

// Prepare runs its callback once per iteration, immediately before the
// backend poll timeout is computed and the wait is issued — the
// conventional place to flush buffered output or otherwise do last-minute
// bookkeeping that should see this iteration's final timer/idle state.
type Prepare struct {
	Handle
	cb   PrepareCallback
	elem *list.Element
}

// NewPrepare creates a prepare handle bound to loop.
func NewPrepare(loop *Loop) *Prepare {
	h := &Prepare{}
	h.init(loop, KindPrepare)
	h.closeHook = func(hh *Handle) { h.Stop() }
	return h
}

func (h *Prepare) Start(cb PrepareCallback) {
	if h.IsClosing() {
		fault("Prepare.Start on closing handle")
	}
	h.cb = cb
	if h.elem == nil {
		h.elem = h.loop.prepareHandles.PushBack(h)
	}
	h.setActive(true)
}

func (h *Prepare) Stop() {
	if h.elem != nil {
		h.loop.prepareHandles.Remove(h.elem)
		h.elem = nil
	}
	h.setActive(false)
}

func (h *Prepare) invoke() {
	if h.cb != nil {
		h.cb(h)
	}
}

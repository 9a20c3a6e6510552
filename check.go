//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import "container/list"

// CheckCallback receives the handle that invoked it.
type CheckCallback func(*Check)

// Check runs its callback once per iteration, right after the poll phase
// and before the closing phase — the conventional counterpart to Prepare,
// used to react to whatever the poll phase just delivered.
type Check struct {
	Handle
	cb   CheckCallback
	elem *list.Element
}

// NewCheck creates a check handle bound to loop.
func NewCheck(loop *Loop) *Check {
	h := &Check{}
	h.init(loop, KindCheck)
	h.closeHook = func(hh *Handle) { h.Stop() }
	return h
}

func (h *Check) Start(cb CheckCallback) {
	if h.IsClosing() {
		fault("Check.Start on closing handle")
	}
	h.cb = cb
	if h.elem == nil {
		h.elem = h.loop.checkHandles.PushBack(h)
	}
	h.setActive(true)
}

func (h *Check) Stop() {
	if h.elem != nil {
		h.loop.checkHandles.Remove(h.elem)
		h.elem = nil
	}
	h.setActive(false)
}

func (h *Check) invoke() {
	if h.cb != nil {
		h.cb(h)
	}
}

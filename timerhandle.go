//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import "container/heap"

// TimerCallback receives the handle that fired.
type TimerCallback func(*Timer)

// Timer fires its callback once, or repeatedly on a fixed interval, at or
// after a deadline expressed relative to the loop's own clock. Timers never
// preempt a running callback; they're evaluated at the top of each
// iteration, and once more at the end of a RunOnce step.
type Timer struct {
	Handle
	cb   TimerCallback
	node *timerNode // nil when not scheduled
}

// NewTimer creates a timer handle bound to loop. It does nothing until
// Start.
func NewTimer(loop *Loop) *Timer {
	h := &Timer{}
	h.init(loop, KindTimer)
	h.closeHook = func(hh *Handle) { h.Stop() }
	return h
}

// Start schedules cb to run after timeoutMs milliseconds, and again every
// repeatMs milliseconds thereafter if repeatMs > 0. Calling Start on an
// already-running timer reschedules it from the current time.
func (h *Timer) Start(cb TimerCallback, timeoutMs, repeatMs int64) {
	if h.IsClosing() {
		fault("Timer.Start on closing handle")
	}
	h.Stop()
	h.cb = cb
	node := &timerNode{
		deadline: h.loop.time + timeoutMs,
		repeat:   repeatMs,
		seq:      h.loop.nextTimerSeq(),
		handle:   h,
	}
	h.node = node
	heap.Push(&h.loop.timers, node)
	h.setActive(true)
}

// Stop cancels a pending or repeating timer. Idempotent.
func (h *Timer) Stop() {
	if h.node != nil {
		h.loop.removeTimerNode(h.node)
		h.node = nil
	}
	h.setActive(false)
}

// Again re-arms a repeating timer using its existing repeat interval,
// measured from now rather than from when it last fired. Faults unless the
// timer is currently scheduled with a repeat interval: a stopped timer, or a
// one-shot timer, faults even if it was once started with a repeat.
func (h *Timer) Again() {
	if h.node == nil {
		fault("Timer.Again on a timer with no repeat interval set")
	}
	repeat := h.node.repeat
	if repeat <= 0 {
		fault("Timer.Again on a non-repeating timer")
	}
	cb := h.cb
	h.Start(cb, repeat, repeat)
}

// DueIn reports the milliseconds remaining until the timer's next firing,
// or -1 if it isn't scheduled.
func (h *Timer) DueIn() int64 {
	if h.node == nil {
		return -1
	}
	d := h.node.deadline - h.loop.time
	if d < 0 {
		d = 0
	}
	return d
}

//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

// runClosing drains the closing queue and runs finishClose on every handle
// queued there, in LIFO order. drain detaches the current list before
// iterating, so a Close issued from a closeCb callback enqueues into the
// next iteration's closing phase rather than being visited twice in this
// one.
func (l *Loop) runClosing() {
	h := l.closingHandles.drain()
	for h != nil {
		next := h.nextClosing
		h.nextClosing = nil
		h.finishClose()
		h = next
	}
}

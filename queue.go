//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import "container/list"

// Every per-phase queue in the loop (handleQueue, watcherQueue,
// pendingQueue, idleHandles, prepareHandles, checkHandles) is a
// container/list.List of pointers, the same structure gaio uses per-fd for
// its readers/writers queues. Unlike gaio we don't need a distinct list per
// fd: each queue here is loop-wide and keyed by the membership pointer the
// member stores on itself, so membership can be removed in O(1) without a
// scan.

// closingQueue is the one exception: closing handles are singly linked via
// nextClosing and visited LIFO, snapshot-then-null each iteration so a
// close requested from a close callback is deferred to the next iteration
// rather than visited twice.
type closingQueue struct {
	head *Handle
}

func (q *closingQueue) push(h *Handle) {
	h.nextClosing = q.head
	q.head = h
}

// drain detaches the current list and returns its head, leaving q empty so
// that closes requested by callbacks run during this drain enqueue into the
// next iteration instead of being visited again in this one.
func (q *closingQueue) drain() *Handle {
	head := q.head
	q.head = nil
	return head
}

func (q *closingQueue) empty() bool {
	return q.head == nil
}

// newElemList is a small convenience constructor, kept so call sites read
// "new queue of handles/watchers" rather than an unadorned list.New().
func newElemList() *list.List {
	return list.New()
}

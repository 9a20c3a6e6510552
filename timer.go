//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import "container/heap"

// timerNode is one entry of the loop's timer heap: a min-ordered store of
// timers by (deadline, sequence), the sequence field giving a deterministic
// tie-break among timers due at the same millisecond: ties broken by
// insertion order.
type timerNode struct {
	deadline int64 // absolute, loop-monotonic milliseconds
	repeat   int64 // 0 = one-shot
	seq      uint64
	index    int // position in the heap, maintained by container/heap
	handle   *Timer
}

type timerHeap []*timerNode

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	n := x.(*timerNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[:n-1]
	return node
}

// nextTimerDeadline returns the earliest deadline in the heap and whether
// the heap is non-empty.
func (l *Loop) nextTimerDeadline() (int64, bool) {
	if len(l.timers) == 0 {
		return 0, false
	}
	return l.timers[0].deadline, true
}

// runTimers executes every timer whose deadline <= l.time, in non-decreasing
// deadline order (ties by insertion order), re-inserting repeating timers
// with deadline += repeat, clamped to time+1 if they've drifted behind.
func (l *Loop) runTimers() {
	for len(l.timers) > 0 {
		node := l.timers[0]
		if node.deadline > l.time {
			break
		}
		heap.Pop(&l.timers)
		t := node.handle
		t.node = nil

		if node.repeat > 0 && !t.IsClosing() {
			node.deadline += node.repeat
			if node.deadline <= l.time {
				node.deadline = l.time + 1
			}
			node.seq = l.nextTimerSeq()
			t.node = node
			heap.Push(&l.timers, node)
		} else {
			t.setActive(false)
		}

		if t.cb != nil {
			t.cb(t)
		}
	}
}

func (l *Loop) nextTimerSeq() uint64 {
	l.timerSeq++
	return l.timerSeq
}

func (l *Loop) removeTimerNode(n *timerNode) {
	if n.index < 0 || n.index >= len(l.timers) || l.timers[n.index] != n {
		return
	}
	heap.Remove(&l.timers, n.index)
}

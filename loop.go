//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import (
	"container/list"
	"time"

	"github.com/joeycumines/logiface"
)

// RunMode selects how long Run blocks before returning.
type RunMode int

const (
	// RunDefault iterates until no active handles, no active requests, and
	// no closing handles remain.
	RunDefault RunMode = iota
	// RunOnce performs at least one forward-progress step (a user callback
	// is guaranteed to run before Run returns) then returns.
	RunOnce
	// RunNoWait performs one step with a zero poll timeout; it may return
	// without running any callback.
	RunNoWait
)

// Loop is the per-process, single-owner event loop core. Nothing on Loop is
// safe to call concurrently except Async.Send and Signal delivery, which
// are the loop's only sanctioned cross-goroutine entry points.
type Loop struct {
	time int64 // monotonic milliseconds, updated only at defined points

	backend backend

	watchers watcherTable

	handleQueue    *list.List // every live handle
	watcherQueue   *list.List // io-watchers with a dirty desired mask
	pendingQueue   *list.List // io-watchers whose callback is deferred
	idleHandles    *list.List
	prepareHandles *list.List
	checkHandles   *list.List
	closingHandles closingQueue

	timers   timerHeap
	timerSeq uint64

	activeHandles  int
	activeRequests int
	stopFlag       bool

	signalIOWatcher *ioWatcher

	// in-flight dispatch state, published during the poll phase so that a
	// close triggered by one callback can invalidate events belonging to
	// fds later in the same ready batch.
	inflightEvents []readyEvent
	inflightFrom   int

	logger  *logiface.Logger[logiface.Event]
	metrics *Metrics

	startTime time.Time
}

// NewLoop creates a loop bound to a freshly-opened readiness backend.
func NewLoop(opts ...LoopOption) (*Loop, error) {
	cfg := resolveOptions(opts)

	b, err := newBackend(cfg.bufferSize)
	if err != nil {
		return nil, err
	}

	l := &Loop{
		backend:        b,
		handleQueue:    newElemList(),
		watcherQueue:   newElemList(),
		pendingQueue:   newElemList(),
		idleHandles:    newElemList(),
		prepareHandles: newElemList(),
		checkHandles:   newElemList(),
		logger:         cfg.logger,
		metrics:        cfg.metrics,
		startTime:      time.Now(),
	}
	l.UpdateTime()
	return l, nil
}

// BackendFd returns the readiness backend's own descriptor (epoll/kqueue
// fd), e.g. so a caller can embed this loop's readiness inside another
// poller.
func (l *Loop) BackendFd() int {
	return l.backend.fd()
}

// Now returns the loop's cached monotonic time, in milliseconds, as of the
// last UpdateTime call. It never advances implicitly.
func (l *Loop) Now() int64 {
	return l.time
}

// UpdateTime refreshes the loop's cached time from the monotonic clock.
// Called automatically at the top of every iteration and once more at the
// end of a RunOnce step; exposed so a caller driving the loop manually
// (e.g. a test) can force a refresh between steps.
func (l *Loop) UpdateTime() {
	l.time = time.Since(l.startTime).Milliseconds()
}

// Alive reports whether the loop has work left to do: active handles,
// active requests, or handles awaiting the closing phase.
func (l *Loop) Alive() bool {
	return l.activeHandles > 0 || l.activeRequests > 0 || !l.closingHandles.empty()
}

// Stop requests that Run return at the top of its next iteration check.
// stopFlag is cleared unconditionally when Run returns (a Stop issued
// before Run is (re-)entered is honored for only that first iteration).
func (l *Loop) Stop() {
	l.stopFlag = true
}

// Close releases the loop's backend fd. The loop must not be running and
// must have no live handles; it does not implicitly close handles, matching
// handles' independent lifetime from the loop that created them.
func (l *Loop) Close() error {
	return l.backend.close()
}

// Run drives the loop per the selected RunMode and returns whether the loop
// is still alive (true => the caller may Run again to continue processing).
func (l *Loop) Run(mode RunMode) bool {
	defer func() { l.stopFlag = false }()

	for {
		if l.stopFlag {
			break
		}

		l.UpdateTime()
		if l.metrics != nil {
			l.metrics.iterations.Inc()
			l.metrics.activeHandles.Set(float64(l.activeHandles))
		}
		l.runTimers()

		ranPending := l.drainPending()

		l.runQueueOnce(l.idleHandles)
		l.runQueueOnce(l.prepareHandles)

		timeout := l.backendTimeout()
		if mode == RunOnce && ranPending {
			timeout = 0
		}
		if mode == RunNoWait {
			timeout = 0
		}

		l.poll(timeout)

		l.runQueueOnce(l.checkHandles)
		l.runClosing()

		if mode == RunOnce {
			l.UpdateTime()
			l.runTimers()
			break
		}
		if mode == RunNoWait {
			break
		}
		if !l.Alive() {
			break
		}
	}

	return l.Alive()
}

// runQueueOnce invokes every handle currently linked into q exactly once,
// snapshotting membership first so a handle that re-arms itself from within
// its own callback runs again only on the next iteration.
func (l *Loop) runQueueOnce(q *list.List) {
	if q.Len() == 0 {
		return
	}
	var elems []*list.Element
	for e := q.Front(); e != nil; e = e.Next() {
		elems = append(elems, e)
	}
	for _, e := range elems {
		switch h := e.Value.(type) {
		case *Idle:
			if h.IsActive() {
				h.invoke()
			}
		case *Prepare:
			if h.IsActive() {
				h.invoke()
			}
		case *Check:
			if h.IsActive() {
				h.invoke()
			}
		}
	}
}

// backendTimeout computes the poll timeout: zero if stopFlag is set,
// there's no active work, idle handles exist, the pending queue is
// non-empty, or closing handles are queued; otherwise the time until the
// earliest timer, or -1 (infinite) if there are no timers.
func (l *Loop) backendTimeout() int {
	if l.stopFlag {
		return 0
	}
	if !l.Alive() {
		return 0
	}
	if l.idleHandles.Len() > 0 {
		return 0
	}
	if l.pendingQueue.Len() > 0 {
		return 0
	}
	if !l.closingHandles.empty() {
		return 0
	}

	deadline, ok := l.nextTimerDeadline()
	if !ok {
		return -1
	}
	delta := deadline - l.time
	if delta < 0 {
		delta = 0
	}
	return int(delta)
}

// invalidateFD scrubs any not-yet-processed entries of the current in-flight
// dispatch batch that reference fd, so a close triggered by one callback
// cannot resurrect stale events for an fd a later entry in the same batch
// still names.
func (l *Loop) invalidateFD(fd int) {
	if l.inflightEvents == nil {
		return
	}
	for i := l.inflightFrom; i < len(l.inflightEvents); i++ {
		if l.inflightEvents[i].fd == fd {
			l.inflightEvents[i].fd = -1
		}
	}
}

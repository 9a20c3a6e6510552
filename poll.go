//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

// maxRepoll bounds how many times poll will re-wait with a zero timeout to
// drain backlog after a batch arrives full. A full batch means more ready
// fds may be waiting; re-polling immediately avoids an extra trip through
// the timer/idle/prepare phases for backlog that's already known to exist,
// but is capped so a sufficiently busy loop still gets back to those phases
// eventually.
const maxRepoll = 48

// flushWatcherQueue reconciles every dirty io-watcher's desired mask with
// the backend. A watcher whose desired mask is now zero is removed;
// otherwise it's added (first bind) or modified. An add that races with an
// fd the backend already knows about (EEXIST) is retried as a modify, the
// one add/modify error this step tolerates; any other add or modify error
// is a fault. A failed remove is only logged.
func (l *Loop) flushWatcherQueue() {
	for e := l.watcherQueue.Front(); e != nil; {
		next := e.Next()
		w := e.Value.(*ioWatcher)
		l.watcherQueue.Remove(e)
		w.watcherElem = nil
		e = next

		switch {
		case w.pevents == 0 && w.events == 0:
			// never registered; nothing to flush.
		case w.pevents == 0:
			if err := l.backend.apply(backendRemove, w.fd, 0); err != nil {
				l.logError("backend remove", err)
			}
			w.events = 0
		case w.events == 0:
			if err := l.backend.apply(backendAdd, w.fd, w.pevents); err != nil {
				if isEExist(err) {
					if err2 := l.backend.apply(backendModify, w.fd, w.pevents); err2 != nil {
						fault("backend modify (after EEXIST) fd=%d: %v", w.fd, err2)
					}
				} else {
					fault("backend add fd=%d: %v", w.fd, err)
				}
			}
			w.events = w.pevents
		default:
			if err := l.backend.apply(backendModify, w.fd, w.pevents); err != nil {
				fault("backend modify fd=%d: %v", w.fd, err)
			}
			w.events = w.pevents
		}
	}
}

// drainPending invokes the callback of every io-watcher that was fed a
// simulated-readiness event via ioFeed, snapshotting membership first so a
// watcher that re-feeds itself from its own callback runs again only on the
// next iteration. Reports whether any callback ran.
func (l *Loop) drainPending() bool {
	if l.pendingQueue.Len() == 0 {
		return false
	}
	var watchers []*ioWatcher
	for e := l.pendingQueue.Front(); e != nil; e = e.Next() {
		watchers = append(watchers, e.Value.(*ioWatcher))
	}
	for _, w := range watchers {
		if w.pendingElem == nil {
			continue
		}
		l.pendingQueue.Remove(w.pendingElem)
		w.pendingElem = nil
		if w.cb != nil {
			w.cb(w.pevents)
		}
	}
	return len(watchers) > 0
}

// poll flushes dirty watchers, waits on the backend, and dispatches the
// resulting batch, re-waiting as needed so a single call to poll can
// deliver more than one backend wait's worth of readiness without
// returning control to the caller in between.
//
// A wait that comes back with no events at all (the backend's timeout
// expired, or the wait was interrupted and the backend swallowed it) is
// retried with whatever's left of the original timeout budget: a blocking
// wait (timeout < 0) simply waits again, a non-blocking one (timeout == 0)
// returns immediately, and a bounded one subtracts the time already spent
// and either waits again with the remainder or gives up once that
// remainder runs out.
//
// A wait that delivers events is dispatched in full. If any of them landed
// on the signal watcher, poll returns immediately afterward without
// re-waiting, so the loop cycles back through its other phases right
// away rather than risking another (possibly blocking) wait while a
// signal callback is owed a turn. Otherwise, if the batch filled the
// backend's buffer, there may be more backlog immediately available, so
// poll re-waits with a zero timeout (bounded by maxRepoll); if the batch
// didn't fill the buffer, there's nothing more to collect right now and
// poll returns.
func (l *Loop) poll(timeoutMs int) {
	l.flushWatcherQueue()

	if l.watchers.nfds == 0 && timeoutMs < 0 {
		// Nothing to wait on and no timer to wake us: avoid blocking
		// forever with zero registered fds.
		return
	}

	base := l.time
	timeout := timeoutMs
	realTimeout := timeoutMs
	repoll := maxRepoll
	var buf []readyEvent

	for {
		waitStart := l.time
		batch, err := l.backend.wait(buf[:0], timeout)
		l.UpdateTime()
		if l.metrics != nil {
			l.metrics.pollWaitSeconds.Observe(float64(l.time-waitStart) / 1000)
		}
		if err != nil {
			fault("backend wait: %v", err)
		}
		buf = batch

		if len(batch) == 0 {
			switch {
			case timeout == 0:
				return
			case timeout < 0:
				continue
			default:
				realTimeout -= l.time - base
				if realTimeout <= 0 {
					return
				}
				timeout = realTimeout
				continue
			}
		}

		nevents, haveSignals := l.dispatch(batch)
		if haveSignals {
			return
		}
		if nevents != 0 {
			if len(batch) == l.backend.batchSize() {
				repoll--
				if repoll != 0 {
					timeout = 0
					continue
				}
			}
			return
		}

		switch {
		case timeout == 0:
			return
		case timeout < 0:
			continue
		default:
			realTimeout -= l.time - base
			if realTimeout <= 0 {
				return
			}
			timeout = realTimeout
		}
	}
}

// dispatch delivers one ready batch to the watchers it names. Any event
// landing on the loop's signal watcher is deferred to the end of the
// batch rather than dispatched inline, and reported back via haveSignals
// so poll knows to cycle the loop instead of re-waiting. dispatch also
// publishes inflightEvents/inflightFrom so a callback that closes a later
// fd in the same batch can invalidate it via Loop.invalidateFD before it
// would otherwise be re-delivered.
func (l *Loop) dispatch(events []readyEvent) (nevents int, haveSignals bool) {
	l.inflightEvents = events
	defer func() {
		l.inflightEvents = nil
		l.inflightFrom = 0
	}()

	signalIdx := -1
	for i := range events {
		l.inflightFrom = i
		fd := events[i].fd
		if fd < 0 {
			continue // invalidated by a prior callback in this batch
		}
		w := l.watchers.lookup(fd)
		if w == nil {
			continue
		}
		if w == l.signalIOWatcher {
			if promoteMask(w, events[i].events) != 0 {
				signalIdx = i
				nevents++
			}
			continue
		}
		if l.dispatchOne(w, events[i].events) {
			nevents++
		}
	}

	l.inflightFrom = len(events)
	if signalIdx >= 0 {
		haveSignals = true
		if w := l.watchers.lookup(events[signalIdx].fd); w != nil {
			l.dispatchOne(w, EventRead)
		}
	}
	return nevents, haveSignals
}

// promoteMask narrows a raw readiness mask down to what the watcher asked
// for, always letting error/hangup bits through regardless of interest.
// If what's left is nothing but error/hangup, it merges back in whichever
// of read/write the watcher did ask for: backends sometimes report only
// an error or hangup bit even though the fd is also readable/writable, and
// without this the watcher would never be woken to discover the error.
func promoteMask(w *ioWatcher, mask IOEvents) IOEvents {
	mask &= w.pevents | errOrHangup
	if mask != 0 && mask&^errOrHangup == 0 {
		mask |= w.pevents & (EventRead | EventWrite)
	}
	return mask
}

// dispatchOne applies promoteMask to mask and invokes the watcher's
// callback if anything survives, reporting whether it did.
func (l *Loop) dispatchOne(w *ioWatcher, mask IOEvents) bool {
	mask = promoteMask(w, mask)
	if mask == 0 {
		return false
	}
	if l.metrics != nil {
		l.metrics.eventsDispatched.Inc()
	}
	if w.cb != nil {
		w.cb(mask)
	}
	return true
}

func (l *Loop) logError(op string, err error) {
	if l.logger == nil {
		return
	}
	l.logger.Err().Err(err).Log(op)
}

//go:build darwin || netbsd || freebsd || openbsd || dragonfly

package evloop

import (
	"time"

	"golang.org/x/sys/unix"
)

// kqueueBackend implements backend using kqueue, the Darwin/BSD analogue of
// epoll. Read and write readiness are distinct filters in kqueue, so a
// single fd's desired mask may require up to two kevent entries.
type kqueueBackend struct {
	kq  int
	buf []unix.Kevent_t
}

func newBackend(bufSize int) (backend, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, wrapErrno("kqueue", err)
	}
	unix.CloseOnExec(kq)
	return &kqueueBackend{kq: kq, buf: make([]unix.Kevent_t, bufSize)}, nil
}

func (b *kqueueBackend) fd() int { return b.kq }

func (b *kqueueBackend) apply(op backendOp, fd int, mask IOEvents) error {
	var changes []unix.Kevent_t

	addFilter := func(filter int16, enable bool) {
		flags := uint16(unix.EV_ADD | unix.EV_ENABLE)
		if !enable {
			flags = unix.EV_DELETE
		}
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: filter,
			Flags:  flags,
		})
	}

	switch op {
	case backendRemove:
		addFilter(unix.EVFILT_READ, false)
		addFilter(unix.EVFILT_WRITE, false)
	default:
		addFilter(unix.EVFILT_READ, mask&(EventRead|EventReadHangup|EventPriority) != 0)
		addFilter(unix.EVFILT_WRITE, mask&EventWrite != 0)
	}

	if _, err := unix.Kevent(b.kq, changes, nil, nil); err != nil {
		// Deleting a filter that was never added is harmless; every other
		// change-list error is a program bug.
		if op == backendRemove && isENOENT(err) {
			return nil
		}
		return wrapErrno("kevent(change)", err)
	}
	return nil
}

func isENOENT(err error) bool {
	return err == unix.ENOENT
}

func (b *kqueueBackend) wait(events []readyEvent, timeoutMs int) ([]readyEvent, error) {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		d := time.Duration(timeoutMs) * time.Millisecond
		spec := unix.NsecToTimespec(d.Nanoseconds())
		ts = &spec
	}

	n, err := unix.Kevent(b.kq, nil, b.buf[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return events, nil
		}
		return events, wrapErrno("kevent(wait)", err)
	}

	for i := 0; i < n; i++ {
		ev := &b.buf[i]
		var mask IOEvents
		switch ev.Filter {
		case unix.EVFILT_READ:
			mask = EventRead
		case unix.EVFILT_WRITE:
			mask = EventWrite
		}
		if ev.Flags&unix.EV_EOF != 0 {
			mask |= EventHangup
		}
		if ev.Flags&unix.EV_ERROR != 0 {
			mask |= EventError
		}
		events = append(events, readyEvent{fd: int(ev.Ident), events: mask})
	}
	return events, nil
}

func (b *kqueueBackend) batchSize() int { return len(b.buf) }

func (b *kqueueBackend) close() error {
	return wrapErrno("close", unix.Close(b.kq))
}

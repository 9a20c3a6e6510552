//go:build linux

package evloop

import (
	"golang.org/x/sys/unix"
)

// epollBackend implements backend using Linux epoll.
type epollBackend struct {
	epfd int
	buf  []unix.EpollEvent
}

func newBackend(bufSize int) (backend, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, wrapErrno("epoll_create1", err)
	}
	return &epollBackend{epfd: fd, buf: make([]unix.EpollEvent, bufSize)}, nil
}

func (b *epollBackend) fd() int { return b.epfd }

func toEpollEvents(mask IOEvents) uint32 {
	var e uint32
	if mask&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if mask&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	if mask&EventReadHangup != 0 {
		e |= unix.EPOLLRDHUP
	}
	if mask&EventPriority != 0 {
		e |= unix.EPOLLPRI
	}
	return e
}

func fromEpollEvents(e uint32) IOEvents {
	var mask IOEvents
	if e&unix.EPOLLIN != 0 {
		mask |= EventRead
	}
	if e&unix.EPOLLOUT != 0 {
		mask |= EventWrite
	}
	if e&unix.EPOLLRDHUP != 0 {
		mask |= EventReadHangup
	}
	if e&unix.EPOLLPRI != 0 {
		mask |= EventPriority
	}
	if e&unix.EPOLLERR != 0 {
		mask |= EventError
	}
	if e&unix.EPOLLHUP != 0 {
		mask |= EventHangup
	}
	return mask
}

func (b *epollBackend) apply(op backendOp, fd int, mask IOEvents) error {
	if op == backendRemove {
		err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		if err != nil {
			return wrapErrno("epoll_ctl(del)", err)
		}
		return nil
	}

	ctlOp := unix.EPOLL_CTL_ADD
	if op == backendModify {
		ctlOp = unix.EPOLL_CTL_MOD
	}
	ev := &unix.EpollEvent{Events: toEpollEvents(mask), Fd: int32(fd)}
	if err := unix.EpollCtl(b.epfd, ctlOp, fd, ev); err != nil {
		return wrapErrno("epoll_ctl", err)
	}
	return nil
}

// maxEpollTimeoutMs caps the timeout passed to epoll_wait to stay under the
// kernel's signed-32-bit argument; a larger value would silently wrap and
// turn a long bounded wait into an effectively immediate one.
const maxEpollTimeoutMs = 1<<31 - 1 - 1000

func (b *epollBackend) wait(events []readyEvent, timeoutMs int) ([]readyEvent, error) {
	wait := timeoutMs
	if wait > maxEpollTimeoutMs {
		wait = maxEpollTimeoutMs
	}

	n, err := unix.EpollWait(b.epfd, b.buf[:], wait)
	if err != nil {
		if err == unix.EINTR {
			return events, nil
		}
		return events, wrapErrno("epoll_wait", err)
	}

	for i := 0; i < n; i++ {
		events = append(events, readyEvent{
			fd:     int(b.buf[i].Fd),
			events: fromEpollEvents(b.buf[i].Events),
		})
	}
	return events, nil
}

func (b *epollBackend) batchSize() int { return len(b.buf) }

func (b *epollBackend) close() error {
	return wrapErrno("close", unix.Close(b.epfd))
}

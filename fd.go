//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import (
	"golang.org/x/sys/unix"
)

// prepareFD centralizes the fd-hygiene the core requires of every fd it
// registers with the readiness backend: non-blocking mode and close-on-exec.
// It must be applied before the fd is handed to accept(2)/socket(2)/open(2)
// callers, or immediately after dup2(2)/recvmsg(2) with ancillary fd
// passing, since none of those primitives reliably set both flags
// atomically across the platforms this package targets.
//
// On failure the fd is closed; the caller must not use it further.
func prepareFD(fd int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return wrapErrno("setnonblock", err)
	}
	unix.CloseOnExec(fd)
	return nil
}

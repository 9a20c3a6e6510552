//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

// logDebugf is a tiny convenience over the attached logiface logger,
// mirroring export.go's direct field usage: logiface.Logger tolerates a nil
// receiver and a nil *Builder safely no-ops, so every call site below is
// correct whether or not WithLogger was supplied.
func (l *Loop) logDebugf(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Debug().Logf(format, args...)
}

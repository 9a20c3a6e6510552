//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoop(t *testing.T) *Loop {
	t.Helper()
	l, err := NewLoop()
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestHandleRefUnrefTracksActiveHandles(t *testing.T) {
	l := newTestLoop(t)

	h := &Handle{}
	h.init(l, KindIdle)
	h.setActive(true)
	assert.Equal(t, 1, l.activeHandles)

	h.Unref()
	assert.Equal(t, 0, l.activeHandles, "unref must exclude an active handle from the count")

	h.Ref()
	assert.Equal(t, 1, l.activeHandles, "re-ref of an already-active handle restores the count")

	h.setActive(false)
	assert.Equal(t, 0, l.activeHandles)
}

func TestHandleDoubleCloseFaults(t *testing.T) {
	l := newTestLoop(t)

	h := &Handle{}
	h.init(l, KindIdle)
	h.Close(nil)

	assert.Panics(t, func() { h.Close(nil) })
}

func TestHandleCloseProtocol(t *testing.T) {
	l := newTestLoop(t)

	var finalized, closedCb bool
	h := &Handle{}
	h.init(l, KindIdle)
	h.finalize = func(*Handle) { finalized = true }
	h.setActive(true)

	h.Close(func(*Handle) { closedCb = true })
	assert.True(t, h.IsClosing())
	assert.False(t, finalized, "finalize only runs from finishClose")
	assert.Equal(t, 0, l.activeHandles, "Close deactivates the handle immediately")

	require.False(t, l.closingHandles.empty())
	l.runClosing()

	assert.True(t, finalized)
	assert.True(t, closedCb)
	assert.True(t, l.closingHandles.empty())
}

func TestFinishCloseOnNonClosingHandleFaults(t *testing.T) {
	l := newTestLoop(t)
	h := &Handle{}
	h.init(l, KindIdle)

	assert.Panics(t, func() { h.finishClose() })
}

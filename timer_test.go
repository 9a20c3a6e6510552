//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerFiresInDeadlineThenSeqOrder(t *testing.T) {
	l := newTestLoop(t)
	l.time = 100

	var fired []string

	a := NewTimer(l)
	a.Start(func(*Timer) { fired = append(fired, "a") }, 0, 0)
	b := NewTimer(l)
	b.Start(func(*Timer) { fired = append(fired, "b") }, 0, 0)
	c := NewTimer(l)
	c.Start(func(*Timer) { fired = append(fired, "c") }, 5, 0)

	l.runTimers()
	assert.Equal(t, []string{"a", "b"}, fired, "same-deadline timers fire in insertion order")

	l.time = 105
	l.runTimers()
	assert.Equal(t, []string{"a", "b", "c"}, fired)
}

func TestTimerOneShotDeactivatesAfterFiring(t *testing.T) {
	l := newTestLoop(t)
	timer := NewTimer(l)
	timer.Start(func(*Timer) {}, 0, 0)
	assert.True(t, timer.IsActive())

	l.runTimers()
	assert.False(t, timer.IsActive())
	assert.Equal(t, 0, l.activeHandles)
}

func TestTimerRepeatReschedulesAndClampsDrift(t *testing.T) {
	l := newTestLoop(t)
	l.time = 0

	var fireCount int
	timer := NewTimer(l)
	timer.Start(func(*Timer) { fireCount++ }, 10, 10)

	// Jump far past several repeat intervals: runTimers must not attempt to
	// "catch up" on missed intervals, it should fire once and clamp the new
	// deadline to time+1.
	l.time = 1000
	l.runTimers()
	assert.Equal(t, 1, fireCount)
	require.NotNil(t, timer.node)
	assert.Equal(t, int64(1001), timer.node.deadline)
}

func TestTimerStopCancelsPendingFire(t *testing.T) {
	l := newTestLoop(t)
	timer := NewTimer(l)
	timer.Start(func(*Timer) { t.Fatal("stopped timer must not fire") }, 0, 0)
	timer.Stop()

	l.runTimers()
	assert.False(t, timer.IsActive())
}

func TestTimerDueIn(t *testing.T) {
	l := newTestLoop(t)
	l.time = 50
	timer := NewTimer(l)
	assert.Equal(t, int64(-1), timer.DueIn())

	timer.Start(func(*Timer) {}, 25, 0)
	assert.Equal(t, int64(25), timer.DueIn())
}

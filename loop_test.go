//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunDefaultDrainsAPureTimerLoop(t *testing.T) {
	l := newTestLoop(t)

	var fired int
	timer := NewTimer(l)
	timer.Start(func(*Timer) { fired++ }, 0, 0)

	alive := l.Run(RunDefault)

	assert.False(t, alive)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, l.activeHandles)
}

func TestRunOnceMakesForwardProgress(t *testing.T) {
	l := newTestLoop(t)

	var fired int
	timer := NewTimer(l)
	timer.Start(func(*Timer) { fired++ }, 0, 50)

	alive := l.Run(RunOnce)

	assert.True(t, alive, "a repeating timer keeps the loop alive")
	assert.Equal(t, 1, fired, "RunOnce must run at least one callback")
}

func TestRunNoWaitMayDoNothing(t *testing.T) {
	l := newTestLoop(t)

	timer := NewTimer(l)
	timer.Start(func(*Timer) {}, 1000, 0)
	timer.Unref()

	alive := l.Run(RunNoWait)

	assert.False(t, alive, "an unref'd timer doesn't keep the loop alive")
}

func TestStopBreaksOutOfDefaultMode(t *testing.T) {
	l := newTestLoop(t)

	var fired int
	timer := NewTimer(l)
	timer.Start(func(tm *Timer) {
		fired++
		l.Stop()
	}, 0, 1) // repeats every 1ms so the loop would otherwise keep going

	l.Run(RunDefault)

	assert.Equal(t, 1, fired, "Stop must take effect before a second tick")
}

func TestIdleHandleForcesZeroTimeout(t *testing.T) {
	l := newTestLoop(t)

	idle := NewIdle(l)
	var ran int
	idle.Start(func(*Idle) {
		ran++
		if ran >= 3 {
			idle.Stop()
		}
	})

	start := time.Now()
	l.Run(RunDefault)
	elapsed := time.Since(start)

	assert.Equal(t, 3, ran)
	assert.Less(t, elapsed, 500*time.Millisecond, "an active idle handle must not let poll block")
}

func TestPrepareAndCheckRunAroundPoll(t *testing.T) {
	l := newTestLoop(t)

	var order []string
	prepare := NewPrepare(l)
	prepare.Start(func(*Prepare) { order = append(order, "prepare") })
	check := NewCheck(l)
	check.Start(func(*Check) {
		order = append(order, "check")
		prepare.Stop()
		check.Stop()
	})

	l.Run(RunOnce)

	assert.Equal(t, []string{"prepare", "check"}, order)
}

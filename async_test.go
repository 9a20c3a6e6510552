//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncSendWakesLoop(t *testing.T) {
	l := newTestLoop(t)

	done := make(chan struct{})
	var async *Async
	async, err := NewAsync(l, func(a *Async) {
		close(done)
		a.Close(nil)
	})
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		async.Send()
	}()

	alive := l.Run(RunDefault)

	select {
	case <-done:
	default:
		t.Fatal("async callback did not run before Run returned")
	}
	assert.False(t, alive)
}

func TestAsyncSendCoalescesConcurrentCalls(t *testing.T) {
	l := newTestLoop(t)

	var invocations int32
	async, err := NewAsync(l, func(a *Async) {
		atomic.AddInt32(&invocations, 1)
		a.Close(nil)
	})
	require.NoError(t, err)

	const senders = 8
	start := make(chan struct{})
	done := make(chan struct{}, senders)
	for i := 0; i < senders; i++ {
		go func() {
			<-start
			async.Send()
			done <- struct{}{}
		}()
	}
	close(start)
	for i := 0; i < senders; i++ {
		<-done
	}

	l.Run(RunDefault)

	assert.Equal(t, int32(1), atomic.LoadInt32(&invocations),
		"concurrent Sends before the callback runs must coalesce into one invocation")
}

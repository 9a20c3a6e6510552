//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClosingQueueLIFO(t *testing.T) {
	var q closingQueue
	assert.True(t, q.empty())

	a := &Handle{}
	b := &Handle{}
	c := &Handle{}
	q.push(a)
	q.push(b)
	q.push(c)

	assert.False(t, q.empty())

	var order []*Handle
	for h := q.drain(); h != nil; h = h.nextClosing {
		order = append(order, h)
	}
	assert.Equal(t, []*Handle{c, b, a}, order)
	assert.True(t, q.empty(), "drain must leave the queue empty")
}

func TestClosingQueueDrainIsOneShot(t *testing.T) {
	var q closingQueue
	q.push(&Handle{})

	first := q.drain()
	assert.NotNil(t, first)
	assert.True(t, q.empty())

	second := q.drain()
	assert.Nil(t, second)
}

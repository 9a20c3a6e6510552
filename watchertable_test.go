//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPow2(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"zero", 0, 1},
		{"one", 1, 1},
		{"two", 2, 2},
		{"three", 3, 4},
		{"just over", 513, 1024},
		{"exact power", 1 << 31, 1 << 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextPow2(tt.n))
		})
	}
}

func TestWatcherTableBindGrowsAndTracksNfds(t *testing.T) {
	var tbl watcherTable
	w := &ioWatcher{fd: 5}

	tbl.bind(w)
	assert.Equal(t, 1, tbl.nfds)
	assert.Same(t, w, tbl.lookup(5))
	assert.GreaterOrEqual(t, len(tbl.slots), 6)

	w2 := &ioWatcher{fd: 5}
	tbl.bind(w2)
	assert.Equal(t, 1, tbl.nfds, "rebinding the same fd must not double-count nfds")
	assert.Same(t, w2, tbl.lookup(5))

	tbl.release(w2)
	assert.Equal(t, 0, tbl.nfds)
	assert.Nil(t, tbl.lookup(5))
}

func TestWatcherTableReleaseIgnoresStaleOccupant(t *testing.T) {
	var tbl watcherTable
	w := &ioWatcher{fd: 3}
	tbl.bind(w)

	stale := &ioWatcher{fd: 3}
	tbl.release(stale)

	assert.Equal(t, 1, tbl.nfds)
	assert.Same(t, w, tbl.lookup(3))
}

func TestWatcherTableLookupOutOfRange(t *testing.T) {
	var tbl watcherTable
	assert.Nil(t, tbl.lookup(-1))
	assert.Nil(t, tbl.lookup(1000))
}

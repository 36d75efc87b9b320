package messaging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupWindowRemembers(t *testing.T) {
	w := newDedupWindow(4)

	assert.False(t, w.Seen("a"))
	w.Record("a")
	assert.True(t, w.Seen("a"))

	w.Record("a")
	assert.True(t, w.Seen("a"))
}

func TestDedupWindowEvictsOldest(t *testing.T) {
	w := newDedupWindow(3)
	w.Record("a")
	w.Record("b")
	w.Record("c")
	assert.True(t, w.Seen("a"))

	w.Record("d")
	assert.False(t, w.Seen("a"), "oldest id evicted once window is full")
	assert.True(t, w.Seen("b"))
	assert.True(t, w.Seen("c"))
	assert.True(t, w.Seen("d"))
}

func TestDedupWindowBounded(t *testing.T) {
	w := newDedupWindow(16)
	for i := 0; i < 1000; i++ {
		w.Record(fmt.Sprintf("evt-%d", i))
	}
	assert.Len(t, w.seen, 16)
}

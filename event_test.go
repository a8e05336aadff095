package statechart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventQueue_FIFO(t *testing.T) {
	var q eventQueue
	_, ok := q.pop()
	assert.False(t, ok)

	q.push("a", 1)
	q.push("b", 2)
	q.push(nil, nil)
	assert.Equal(t, 3, q.len())

	first, ok := q.pop()
	assert.True(t, ok)
	assert.Equal(t, queuedEvent{event: "a", args: 1}, first)

	q.push("c", 3)
	var order []any
	for e, ok := q.pop(); ok; e, ok = q.pop() {
		order = append(order, e.event)
	}
	assert.Equal(t, []any{"b", nil, "c"}, order)
	assert.Equal(t, 0, q.len())
	assert.Equal(t, 0, q.head)
}

func TestEventQueue_Clear(t *testing.T) {
	var q eventQueue
	q.push("a", nil)
	q.push("b", nil)
	_, _ = q.pop()

	q.clear()
	assert.Equal(t, 0, q.len())
	_, ok := q.pop()
	assert.False(t, ok)
}

func TestIsComparableEvent(t *testing.T) {
	type key struct{ name string }

	assert.True(t, isComparableEvent(nil))
	assert.True(t, isComparableEvent("Event1"))
	assert.True(t, isComparableEvent(42))
	assert.True(t, isComparableEvent(key{"x"}))
	assert.True(t, isComparableEvent(&key{"x"}))
	assert.False(t, isComparableEvent([]string{"x"}))
	assert.False(t, isComparableEvent(map[string]int{}))
	assert.False(t, isComparableEvent(func() {}))
}

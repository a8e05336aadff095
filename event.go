package statechart

import "reflect"

// queuedEvent is a trigger event waiting in the dispatch queue together with
// its arguments
type queuedEvent struct {
	event any
	args  any
}

// eventQueue is the FIFO of trigger events raised while a machine dispatches.
// Popped entries are reclaimed once the queue drains.
type eventQueue struct {
	items []queuedEvent
	head  int
}

func (q *eventQueue) push(event, args any) {
	q.items = append(q.items, queuedEvent{event: event, args: args})
}

func (q *eventQueue) pop() (queuedEvent, bool) {
	if q.head >= len(q.items) {
		return queuedEvent{}, false
	}
	e := q.items[q.head]
	q.items[q.head] = queuedEvent{}
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return e, true
}

func (q *eventQueue) len() int {
	return len(q.items) - q.head
}

func (q *eventQueue) clear() {
	for i := range q.items {
		q.items[i] = queuedEvent{}
	}
	q.items = q.items[:0]
	q.head = 0
}

// isComparableEvent reports whether event can be matched against transition
// triggers with ==. The completion event nil is always comparable.
func isComparableEvent(event any) bool {
	return event == nil || reflect.TypeOf(event).Comparable()
}

package sim

import (
	"container/heap"
	"sync"
)

// EventQueue holds pending events in the order they should be handled.
type EventQueue interface {
	Push(evt Event)
	Pop() Event
	Len() int
	Peek() Event
}

// EventQueueImpl is a mutex-guarded EventQueue. Events are ordered by time.
// At the same time, primary events go before secondary events, and events of
// the same kind go in the order they were pushed.
type EventQueueImpl struct {
	mu      sync.Mutex
	pending pendingEvents
	nextSeq uint64
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueueImpl {
	return &EventQueueImpl{}
}

// Push adds an event.
func (q *EventQueueImpl) Push(evt Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	heap.Push(&q.pending, pendingEvent{evt: evt, seq: q.nextSeq})
	q.nextSeq++
}

// Pop removes and returns the first event. It returns nil if the queue is
// empty.
func (q *EventQueueImpl) Pop() Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}

	return heap.Pop(&q.pending).(pendingEvent).evt
}

// Peek returns the first event without removing it. It returns nil if the
// queue is empty.
func (q *EventQueueImpl) Peek() Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}

	return q.pending[0].evt
}

// Len returns the number of pending events.
func (q *EventQueueImpl) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}

type pendingEvent struct {
	evt Event
	seq uint64
}

type pendingEvents []pendingEvent

func (p pendingEvents) Len() int { return len(p) }

func (p pendingEvents) Less(i, j int) bool {
	a, b := p[i], p[j]

	if ta, tb := a.evt.Time(), b.evt.Time(); ta != tb {
		return ta < tb
	}

	if sa, sb := a.evt.IsSecondary(), b.evt.IsSecondary(); sa != sb {
		return sb
	}

	return a.seq < b.seq
}

func (p pendingEvents) Swap(i, j int) { p[i], p[j] = p[j], p[i] }

func (p *pendingEvents) Push(x interface{}) {
	*p = append(*p, x.(pendingEvent))
}

func (p *pendingEvents) Pop() interface{} {
	last := len(*p) - 1
	e := (*p)[last]
	*p = (*p)[:last]

	return e
}

package input

import (
	"sync"

	"github.com/gogpu/gpucontext"
)

// Source delivers window events to the pump.
type Source interface {
	// WaitEvents blocks until at least one event is pending or Wake is
	// called, then returns the pending events in arrival order. It may
	// return an empty slice after a Wake.
	WaitEvents() []Event

	// Wake unblocks a pending WaitEvents call. Safe to call from any
	// goroutine.
	Wake()
}

// Queue is an in-memory Source. Producers Push events from any goroutine,
// or Attach a [gpucontext.EventSource] so its key and resize callbacks
// feed the queue.
type Queue struct {
	mu      sync.Mutex
	pending []Event
	signal  chan struct{}
}

var _ Source = (*Queue)(nil)

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Push appends ev and wakes a waiting consumer.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	q.mu.Unlock()
	q.Wake()
}

// Wake unblocks a pending WaitEvents call.
func (q *Queue) Wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// WaitEvents blocks until an event is pushed or Wake is called.
func (q *Queue) WaitEvents() []Event {
	if evs := q.Drain(); len(evs) > 0 {
		return evs
	}
	<-q.signal
	return q.Drain()
}

// Drain returns the pending events without blocking.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	evs := q.pending
	q.pending = nil
	return evs
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Attach registers callbacks on es that push key and resize events into
// the queue. Other event types are not used by the viewer.
func (q *Queue) Attach(es gpucontext.EventSource) {
	es.OnKeyPress(func(key gpucontext.Key, mods gpucontext.Modifiers) {
		q.Push(Event{Kind: KeyPress, Key: key, Mods: mods})
	})
	es.OnKeyRelease(func(key gpucontext.Key, mods gpucontext.Modifiers) {
		q.Push(Event{Kind: KeyRelease, Key: key, Mods: mods})
	})
	es.OnResize(func(width, height int) {
		q.Push(ResizeEvent(width, height))
	})
}

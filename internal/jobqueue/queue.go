// Package jobqueue implements the unbounded multi-producer multi-consumer
// FIFO queue that connects submitters to workers.
//
// The queue preserves arrival order at its head and delivers every pushed
// item to exactly one consumer. Producers never wait on capacity; the only
// blocking operation is Pop. Closing the producer side keeps already-queued
// items deliverable, so consumers drain the backlog before observing closure.
package jobqueue

import (
	"errors"
	"sync"
)

var (
	// ErrClosed is returned by Push after the producer side has been closed.
	ErrClosed = errors.New("jobqueue: queue is closed")

	// ErrNoConsumers is returned by Push once every consumer has detached,
	// so nothing could ever deliver the item.
	ErrNoConsumers = errors.New("jobqueue: all consumers detached")
)

// Queue is an unbounded FIFO shared by many producers and many consumers.
// The zero value is not usable; construct with New.
type Queue[T any] struct {
	mu        sync.Mutex
	cond      *sync.Cond
	items     []T
	head      int
	closed    bool
	consumers int
}

// New creates a queue with a fixed number of attached consumers.
// The consumer count only shrinks, via Detach; it is set once here because
// every consumer holds its reference to the queue from construction.
func New[T any](consumers int) *Queue[T] {
	q := &Queue[T]{consumers: consumers}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends v and wakes one waiting consumer. It never waits on capacity.
//
// Returns ErrNoConsumers if every consumer has detached, or ErrClosed if the
// producer side has been closed; in both cases v is not enqueued.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.consumers == 0 {
		return ErrNoConsumers
	}
	if q.closed {
		return ErrClosed
	}

	q.items = append(q.items, v)
	q.cond.Signal()
	return nil
}

// Pop blocks until an item is available or the queue is closed and drained.
// The second return value is false only in the closed-and-drained case, which
// is the consumer's signal to terminate. The queue's lock is released while
// waiting and is never held by the time Pop returns, so callers run items
// without any queue-internal synchronization.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == len(q.items) && !q.closed {
		q.cond.Wait()
	}

	if q.head == len(q.items) {
		var zero T
		return zero, false
	}

	v := q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head++

	// Reclaim the consumed prefix once it dominates the backing slice.
	if q.head > 256 && q.head*2 >= len(q.items) {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}

	return v, true
}

// Close shuts the producer side. Already-queued items remain poppable;
// consumers observe closure only once the queue is empty. Idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// Detach records that one consumer has left, normally or by crashing.
// When the last consumer detaches the queue closes itself: queued items can
// no longer be delivered and subsequent pushes fail with ErrNoConsumers.
func (q *Queue[T]) Detach() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.consumers > 0 {
		q.consumers--
	}
	if q.consumers == 0 && !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
}

// Len reports the number of queued, not-yet-delivered items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

package bus

import (
	"context"
	"sync/atomic"

	"github.com/yanun0323/errors"

	"main/internal/schema"
)

var (
	ErrQueueFull   = errors.New("bus: event queue full")
	ErrQueueClosed = errors.New("bus: event queue closed")
)

// Queue is the bounded intake queue between feed collaborators and the core
// loop. Financial events block the producer when it is full; telemetry-class
// events are shed instead, per the event kind's Droppable flag.
type Queue struct {
	ch     chan schema.Event
	closed atomic.Bool
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan schema.Event, capacity)}
}

// Publish enqueues an event, blocking while the queue is full. Use for
// events that must not be lost.
func (q *Queue) Publish(ctx context.Context, e schema.Event) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	select {
	case q.ch <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPublish enqueues an event without blocking, shedding it when full.
func (q *Queue) TryPublish(e schema.Event) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	select {
	case q.ch <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Enqueue routes an event through the backpressure policy for its kind.
func (q *Queue) Enqueue(ctx context.Context, e schema.Event) error {
	if e.Kind.Droppable() {
		return q.TryPublish(e)
	}
	return q.Publish(ctx, e)
}

// Next dequeues one event, waiting until one arrives, the context ends or
// the queue closes.
func (q *Queue) Next(ctx context.Context) (schema.Event, bool) {
	select {
	case <-ctx.Done():
		return schema.Event{}, false
	case e, ok := <-q.ch:
		return e, ok
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops the queue from accepting new events.
func (q *Queue) Close() {
	if q.closed.CompareAndSwap(false, true) {
		close(q.ch)
	}
}

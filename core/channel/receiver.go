package channel

import "sync"

// Receiver holds the values delivered to one consumer in FIFO order.
// All methods are safe for concurrent use and never block on producers for
// longer than a single queue operation.
type Receiver[T any] struct {
	ch *Channel[T]

	mu     sync.Mutex
	queue  []T
	closed bool
}

// receive is called by the channel with its lock held.
func (r *Receiver[T]) receive(v T) {
	r.mu.Lock()
	if !r.closed {
		r.queue = append(r.queue, v)
	}
	r.mu.Unlock()
}

// HasNext reports whether a value is queued.
func (r *Receiver[T]) HasNext() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue) > 0
}

// Next pops the oldest queued value. The boolean is false when the queue is
// empty.
func (r *Receiver[T]) Next() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	if len(r.queue) == 0 {
		return zero, false
	}
	v := r.queue[0]
	r.queue[0] = zero
	r.queue = r.queue[1:]
	if len(r.queue) == 0 {
		r.queue = nil
	}
	return v, true
}

// Drain empties the queue and returns only the most recent value.
func (r *Receiver[T]) Drain() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	if len(r.queue) == 0 {
		return zero, false
	}
	v := r.queue[len(r.queue)-1]
	r.queue = nil
	return v, true
}

// TakeAll empties the queue and returns every value in arrival order.
func (r *Receiver[T]) TakeAll() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.queue
	r.queue = nil
	return q
}

// Len returns the number of queued values.
func (r *Receiver[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Close unsubscribes the receiver from its channel and drops queued values.
// It is safe to call more than once.
func (r *Receiver[T]) Close() {
	// Unsubscribe first so no push can be in flight once closed is set.
	r.ch.unsubscribe(r)
	r.mu.Lock()
	r.closed = true
	r.queue = nil
	r.mu.Unlock()
}

// Closed reports whether Close has been called.
func (r *Receiver[T]) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

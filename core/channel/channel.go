package channel

import (
	"reflect"
	"slices"
	"sync"
)

// AbstractChannel is the type-erased view of a Channel, allowing channels of
// different event types to share one registry.
type AbstractChannel interface {
	EventType() reflect.Type
	Subscribers() int
}

// Channel broadcasts values of type T to its subscribed Receivers.
type Channel[T any] struct {
	mu   sync.Mutex
	subs []*Receiver[T]
}

// New returns an empty Channel with no subscribers.
func New[T any]() *Channel[T] { return &Channel[T]{} }

// EventType reports the event type carried by the channel.
func (c *Channel[T]) EventType() reflect.Type { return reflect.TypeFor[T]() }

// Subscribers returns the number of currently subscribed receivers.
func (c *Channel[T]) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Receiver subscribes a new Receiver. Any push that starts after Receiver
// returns is observed by it.
func (c *Channel[T]) Receiver() *Receiver[T] {
	r := &Receiver[T]{ch: c}
	c.mu.Lock()
	c.subs = append(c.subs, r)
	c.mu.Unlock()
	return r
}

// Sender returns a handle for pushing values into the channel.
func (c *Channel[T]) Sender() Sender[T] { return Sender[T]{ch: c} }

// Push delivers v to every current subscriber. Pushing into a channel
// without subscribers does nothing.
func (c *Channel[T]) Push(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.subs {
		r.receive(v)
	}
}

func (c *Channel[T]) unsubscribe(r *Receiver[T]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.subs {
		if s == r {
			// slices.Delete zeroes the vacated tail slot.
			c.subs = slices.Delete(c.subs, i, i+1)
			return true
		}
	}
	return false
}

// Sender pushes values into a Channel. The zero Sender discards values.
type Sender[T any] struct {
	ch *Channel[T]
}

// Push broadcasts v to the channel's subscribers.
func (s Sender[T]) Push(v T) {
	if s.ch == nil {
		return
	}
	s.ch.Push(v)
}

// Valid reports whether the sender is bound to a channel.
func (s Sender[T]) Valid() bool { return s.ch != nil }

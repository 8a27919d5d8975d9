package eventbus

import (
	"reflect"

	"github.com/google/uuid"

	"github.com/kilianp07/pulse/core/channel"
	"github.com/kilianp07/pulse/core/logger"
)

// Option configures a Bus.
type Option func(*Bus)

// WithLogger injects the logger used for bookkeeping messages.
func WithLogger(l logger.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.log = l
		}
	}
}

// WithName labels the bus in logs and metrics.
func WithName(name string) Option {
	return func(b *Bus) {
		if name != "" {
			b.name = name
		}
	}
}

// Bus owns the per-type channels, the each/last callback groups and the
// weakly held observers. It must be driven from a single goroutine.
type Bus struct {
	id   uuid.UUID
	name string
	log  logger.Logger

	channels map[reflect.Type]channel.AbstractChannel
	each     registry
	last     registry

	observers []*observerRef
	sweeping  bool

	stats Stats
}

// New creates an empty Bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		id:       uuid.New(),
		name:     "bus",
		log:      logger.Nop{},
		channels: make(map[reflect.Type]channel.AbstractChannel),
		each:     newRegistry(),
		last:     newRegistry(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.stats.reset()
	return b
}

// ID returns the unique identity of the bus.
func (b *Bus) ID() uuid.UUID { return b.id }

// Name returns the label given with WithName.
func (b *Bus) Name() string { return b.name }

// Channels returns the number of event types with a channel.
func (b *Bus) Channels() int { return len(b.channels) }

// Process runs one cycle: the observer sweep followed by Flush.
func (b *Bus) Process() {
	b.updateObservers()
	b.Flush()
}

// Flush delivers queued values to the each callbacks, then the last
// callbacks, group by group in creation order.
func (b *Bus) Flush() {
	b.stats.Flushes++
	for _, g := range b.each.order {
		if n := g.flush(); n > 0 {
			b.stats.EachDelivered += n
			b.stats.EachByType[TypeName(g.eventType())] += n
		}
	}
	for _, g := range b.last.order {
		if n := g.flush(); n > 0 {
			b.stats.LastDelivered += n
			b.stats.LastByType[TypeName(g.eventType())] += n
		}
	}
}

// Close unsubscribes the bus's internal receivers from their channels and
// forgets every observer. Senders obtained from the bus stay usable but
// nothing is delivered to callbacks anymore.
func (b *Bus) Close() {
	for _, g := range b.each.order {
		g.close()
	}
	for _, g := range b.last.order {
		g.close()
	}
	clear(b.observers)
	b.observers = nil
	b.log.Debugw("bus closed", map[string]any{"bus": b.name, "id": b.id.String()})
}

// TypeName returns the name under which deliveries of t are counted: the
// import path and name for named types, the type literal otherwise.
func TypeName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func channelFor[T any](b *Bus) *channel.Channel[T] {
	t := reflect.TypeFor[T]()
	if c, ok := b.channels[t]; ok {
		return c.(*channel.Channel[T])
	}
	c := channel.New[T]()
	b.channels[t] = c
	b.log.Debugw("channel created", map[string]any{"bus": b.name, "event_type": TypeName(t)})
	return c
}

func groupFor[T any](b *Bus, mode Mode) *callbackGroup[T] {
	reg := &b.each
	if mode == ModeLast {
		reg = &b.last
	}
	t := reflect.TypeFor[T]()
	if g, ok := reg.groups[t]; ok {
		return g.(*callbackGroup[T])
	}
	g := &callbackGroup[T]{mode: mode, rx: channelFor[T](b).Receiver()}
	reg.add(t, g)
	return g
}

// RequestSender returns a new Sender for T, creating the channel and both
// callback groups for T on first use.
func RequestSender[T any](b *Bus) channel.Sender[T] {
	groupFor[T](b, ModeEach)
	groupFor[T](b, ModeLast)
	return channelFor[T](b).Sender()
}

// RequestReceiver subscribes an independent Receiver to the channel for T.
// The caller owns it and should Close it when done.
func RequestReceiver[T any](b *Bus) *channel.Receiver[T] {
	return channelFor[T](b).Receiver()
}

// Each registers cb to receive every value of T. Callbacks run in
// registration order.
func Each[T any](b *Bus, cb func(T)) {
	g := groupFor[T](b, ModeEach)
	g.callbacks = append(g.callbacks, cb)
}

// Last registers cb to receive only the newest value of T per flush.
func Last[T any](b *Bus, cb func(T)) {
	g := groupFor[T](b, ModeLast)
	g.callbacks = append(g.callbacks, cb)
}

// Unobserved returns the number of values of T waiting for the next each
// flush.
func Unobserved[T any](b *Bus) int {
	if g, ok := b.each.groups[reflect.TypeFor[T]()]; ok {
		return g.pending()
	}
	return 0
}

// UnobservedLast returns the number of values of T waiting for the next last
// flush.
func UnobservedLast[T any](b *Bus) int {
	if g, ok := b.last.groups[reflect.TypeFor[T]()]; ok {
		return g.pending()
	}
	return 0
}

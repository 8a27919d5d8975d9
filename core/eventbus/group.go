package eventbus

import (
	"reflect"

	"github.com/kilianp07/pulse/core/channel"
)

// Mode selects the delivery discipline of a callback group.
type Mode int

const (
	// ModeEach delivers every queued value in arrival order.
	ModeEach Mode = iota
	// ModeLast delivers only the newest queued value.
	ModeLast
)

func (m Mode) String() string {
	switch m {
	case ModeEach:
		return "each"
	case ModeLast:
		return "last"
	default:
		return "unknown"
	}
}

// group is the type-erased view of a callbackGroup.
type group interface {
	eventType() reflect.Type
	// flush delivers queued values and returns how many were delivered.
	flush() int
	pending() int
	close()
}

// callbackGroup owns one private receiver on Channel[T] and the callbacks
// registered for T under a single mode.
type callbackGroup[T any] struct {
	mode      Mode
	rx        *channel.Receiver[T]
	callbacks []func(T)
}

func (g *callbackGroup[T]) eventType() reflect.Type { return reflect.TypeFor[T]() }

func (g *callbackGroup[T]) pending() int { return g.rx.Len() }

func (g *callbackGroup[T]) close() { g.rx.Close() }

func (g *callbackGroup[T]) flush() int {
	if g.mode == ModeLast {
		v, ok := g.rx.Drain()
		if !ok {
			return 0
		}
		for _, cb := range g.callbacks {
			cb(v)
		}
		return g.delivered(1)
	}
	// Values pushed by the callbacks themselves land in the next flush.
	values := g.rx.TakeAll()
	for _, v := range values {
		for _, cb := range g.callbacks {
			cb(v)
		}
	}
	return g.delivered(len(values))
}

// delivered discounts values discarded by a group without callbacks.
func (g *callbackGroup[T]) delivered(n int) int {
	if len(g.callbacks) == 0 {
		return 0
	}
	return n
}

// registry keeps groups of one mode, indexed by event type, in creation order.
type registry struct {
	groups map[reflect.Type]group
	order  []group
}

func newRegistry() registry {
	return registry{groups: make(map[reflect.Type]group)}
}

func (r *registry) add(t reflect.Type, g group) {
	r.groups[t] = g
	r.order = append(r.order, g)
}

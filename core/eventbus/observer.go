package eventbus

import (
	"errors"
	"fmt"
	"reflect"
	"weak"
)

// ErrDuplicateObserver is the panic value cause when an observer is attached
// twice to the same bus.
var ErrDuplicateObserver = errors.New("observer already attached")

// Observer is a collaborator that registers callbacks once and then gets a
// chance to push events on every Process.
type Observer interface {
	// Attach is called exactly once, when the observer is attached.
	Attach(b *Bus)
	// Update is called once per Process, before callbacks are flushed.
	Update()
}

// observerRef is a weak handle to an observer. id holds the weak.Pointer,
// which compares equal for the same allocation even after it was reclaimed.
type observerRef struct {
	id      any
	typ     reflect.Type
	get     func() Observer
	removed bool
}

// Attach attaches obs to the bus without keeping it alive. obs.Attach is
// called immediately. Attaching the same observer twice panics.
func Attach[O any, P interface {
	*O
	Observer
}](b *Bus, obs P) {
	AttachWeak[O, P](b, weak.Make((*O)(obs)))
}

// AttachWeak attaches the observer behind wp. Nothing happens when wp has
// already expired.
func AttachWeak[O any, P interface {
	*O
	Observer
}](b *Bus, wp weak.Pointer[O]) {
	ref := &observerRef{
		id:  wp,
		typ: reflect.TypeFor[P](),
		get: func() Observer {
			p := wp.Value()
			if p == nil {
				return nil
			}
			return P(p)
		},
	}
	for _, r := range b.observers {
		if !r.removed && r.id == ref.id {
			panic(fmt.Errorf("eventbus %s: %w: %s", b.name, ErrDuplicateObserver, ref.typ))
		}
	}
	obs := ref.get()
	if obs == nil {
		return
	}
	obs.Attach(b)
	b.observers = append(b.observers, ref)
	b.log.Debugw("observer attached", map[string]any{"bus": b.name, "observer": ref.typ.String()})
}

// Detach removes obs from the bus. It reports whether obs was attached.
func Detach[O any, P interface {
	*O
	Observer
}](b *Bus, obs P) bool {
	id := weak.Make((*O)(obs))
	for i, r := range b.observers {
		if r.removed || r.id != any(id) {
			continue
		}
		r.removed = true
		if !b.sweeping {
			b.observers = append(b.observers[:i], b.observers[i+1:]...)
		}
		return true
	}
	return false
}

// Observers returns the number of attached observers, including expired
// ones not yet swept by Process.
func (b *Bus) Observers() int {
	n := 0
	for _, r := range b.observers {
		if !r.removed {
			n++
		}
	}
	return n
}

// updateObservers drops expired observers and updates the others in
// attachment order. Observers attached during the sweep are updated in the
// same sweep.
func (b *Bus) updateObservers() {
	b.sweeping = true
	n := 0
	for i := 0; i < len(b.observers); i++ {
		ref := b.observers[i]
		if ref.removed {
			continue
		}
		obs := ref.get()
		if obs == nil {
			b.stats.Expired++
			b.log.Debugw("observer expired", map[string]any{"bus": b.name, "observer": ref.typ.String()})
			continue
		}
		b.observers[n] = ref
		n++
		obs.Update()
	}
	b.sweeping = false
	// An observer detached by a later sibling's Update was already kept.
	kept := b.observers[:0]
	for _, r := range b.observers[:n] {
		if !r.removed {
			kept = append(kept, r)
		}
	}
	clear(b.observers[len(kept):])
	b.observers = kept
}

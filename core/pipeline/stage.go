package pipeline

import "github.com/kilianp07/pulse/core/eventbus"

// Stage is one deterministic unit of event emission.
type Stage interface {
	Name() string
	Emit(b *eventbus.Bus)
}

type funcStage struct {
	name string
	fn   func(*eventbus.Bus)
}

func (s funcStage) Name() string         { return s.name }
func (s funcStage) Emit(b *eventbus.Bus) { s.fn(b) }

// Func adapts fn into a Stage.
func Func(name string, fn func(b *eventbus.Bus)) Stage {
	return funcStage{name: name, fn: fn}
}

// Emit returns a Stage that pushes the value produced by fn on every run.
func Emit[T any](name string, fn func() T) Stage {
	return Func(name, func(b *eventbus.Bus) {
		eventbus.RequestSender[T](b).Push(fn())
	})
}

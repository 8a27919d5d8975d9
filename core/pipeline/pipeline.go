// Package pipeline layers staged, deterministic emission on top of an event
// bus. Once stages run on the first Process only; always stages run on every
// Process after the observer sweep. Callbacks are flushed after every stage,
// so each stage observes the effects of the stages before it.
package pipeline

import "github.com/kilianp07/pulse/core/eventbus"

// State is the lifecycle state of a Pipeline.
type State int

const (
	// NotStarted means the once stages have not run yet.
	NotStarted State = iota
	// Running is terminal: the once stages ran during the first Process.
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "not_started"
}

// Pipeline is an event bus with ordered once and always stages. Like the bus
// it embeds, it must be driven from a single goroutine.
type Pipeline struct {
	*eventbus.Bus

	once   []Stage
	always []Stage
	state  State
}

// New creates a pipeline around a fresh bus.
func New(opts ...eventbus.Option) *Pipeline {
	return &Pipeline{Bus: eventbus.New(opts...)}
}

// Once appends a stage that runs during the first Process only. Stages added
// after the first Process never run.
func (p *Pipeline) Once(s Stage) *Pipeline {
	p.once = append(p.once, s)
	return p
}

// Then appends a stage that runs on every Process.
func (p *Pipeline) Then(s Stage) *Pipeline {
	p.always = append(p.always, s)
	return p
}

// Always is an alias for Then.
func (p *Pipeline) Always(s Stage) *Pipeline { return p.Then(s) }

// State returns the current lifecycle state.
func (p *Pipeline) State() State { return p.state }

// Stages returns the number of once and always stages.
func (p *Pipeline) Stages() (once, always int) { return len(p.once), len(p.always) }

// Process runs the once stages on the first call, then the bus cycle, then
// the always stages. Each stage is followed by a flush.
func (p *Pipeline) Process() {
	if p.state == NotStarted {
		p.runStages(p.once)
		p.state = Running
	}
	p.Bus.Process()
	p.runStages(p.always)
}

func (p *Pipeline) runStages(stages []Stage) {
	for _, s := range stages {
		s.Emit(p.Bus)
		p.Flush()
	}
}

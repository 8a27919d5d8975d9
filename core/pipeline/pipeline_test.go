package pipeline

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pulse/core/eventbus"
)

type marker struct {
	Stage string
}

func traceStage(name string, trace *[]string) Stage {
	return Func(name, func(b *eventbus.Bus) {
		*trace = append(*trace, name)
		eventbus.RequestSender[marker](b).Push(marker{Stage: name})
	})
}

func TestOnceThenOrder(t *testing.T) {
	var trace []string
	p := New()
	p.Once(traceStage("S1", &trace)).
		Once(traceStage("S2", &trace)).
		Then(traceStage("S3", &trace)).
		Then(traceStage("S4", &trace))

	assert.Equal(t, NotStarted, p.State())
	p.Process()
	assert.Equal(t, []string{"S1", "S2", "S3", "S4"}, trace)
	assert.Equal(t, Running, p.State())

	trace = nil
	p.Process()
	assert.Equal(t, []string{"S3", "S4"}, trace)

	trace = nil
	p.Process()
	assert.Equal(t, []string{"S3", "S4"}, trace)
}

func TestEachCallbackSeesStagesInOrder(t *testing.T) {
	var trace, seen []string
	p := New()
	eventbus.Each(p.Bus, func(m marker) { seen = append(seen, m.Stage) })
	p.Once(traceStage("S1", &trace)).
		Once(traceStage("S2", &trace)).
		Always(traceStage("S3", &trace))

	p.Process()
	assert.Equal(t, []string{"S1", "S2", "S3"}, seen)
}

func TestPerStageFlush(t *testing.T) {
	// A last callback sees every stage's value because each stage is
	// flushed before the next one runs.
	var trace, seen []string
	p := New()
	eventbus.Last(p.Bus, func(m marker) { seen = append(seen, m.Stage) })
	p.Then(traceStage("A", &trace)).Then(traceStage("B", &trace))

	p.Process()
	assert.Equal(t, []string{"A", "B"}, seen)
}

func TestStageReadsPreviousStageResult(t *testing.T) {
	p := New()
	latest := 0
	eventbus.Last(p.Bus, func(v int) { latest = v })
	var observed []int
	p.Then(Emit("produce", func() int { return 41 })).
		Then(Func("consume", func(b *eventbus.Bus) {
			observed = append(observed, latest)
			eventbus.RequestSender[int](b).Push(latest + 1)
		}))

	p.Process()
	assert.Equal(t, []int{41}, observed)
	assert.Equal(t, 42, latest)
}

type pushingObserver struct {
	bus *eventbus.Bus
	log *[]string
}

func (o *pushingObserver) Attach(b *eventbus.Bus) { o.bus = b }
func (o *pushingObserver) Update() {
	*o.log = append(*o.log, "observer")
	eventbus.RequestSender[marker](o.bus).Push(marker{Stage: "observer"})
}

func TestObserversRunBetweenOnceAndAlways(t *testing.T) {
	var trace, seen []string
	p := New()
	eventbus.Each(p.Bus, func(m marker) { seen = append(seen, m.Stage) })
	obs := &pushingObserver{log: &trace}
	eventbus.Attach(p.Bus, obs)
	p.Once(traceStage("once", &trace)).Then(traceStage("always", &trace))

	p.Process()
	assert.Equal(t, []string{"once", "observer", "always"}, trace)
	assert.Equal(t, []string{"once", "observer", "always"}, seen)
	require.Equal(t, 1, p.Observers())
	runtime.KeepAlive(obs)
}

func TestStagesAddedLater(t *testing.T) {
	var trace []string
	p := New()
	p.Process()
	p.Once(traceStage("late-once", &trace))
	p.Then(traceStage("late-always", &trace))
	p.Process()
	assert.Equal(t, []string{"late-always"}, trace)

	once, always := p.Stages()
	assert.Equal(t, 1, once)
	assert.Equal(t, 1, always)
}

func TestStageNames(t *testing.T) {
	assert.Equal(t, "tick", Func("tick", func(*eventbus.Bus) {}).Name())
	assert.Equal(t, "value", Emit("value", func() int { return 1 }).Name())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "not_started", NotStarted.String())
}

func TestPipelineStats(t *testing.T) {
	var trace []string
	p := New(eventbus.WithName("stats"))
	eventbus.Each(p.Bus, func(marker) {})
	p.Once(traceStage("a", &trace)).Then(traceStage("b", &trace))
	p.Process()

	st := p.TakeStats()
	// one flush per stage plus the bus cycle
	assert.Equal(t, 3, st.Flushes)
	assert.Equal(t, 2, st.EachDelivered)
}

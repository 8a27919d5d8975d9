package eventbus

import (
	"errors"
	"reflect"
	"runtime"
	"testing"
	"weak"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pulse/core/eventbus/internal/events"
	coreevents "github.com/kilianp07/pulse/core/events"
)

const testPkg = "github.com/kilianp07/pulse/core/eventbus"

type sampleEvent struct {
	Value int
}

type otherEvent struct {
	Name string
}

func TestEachDeliversEveryValue(t *testing.T) {
	bus := New()
	var got []int
	Each(bus, func(e sampleEvent) { got = append(got, e.Value) })

	tx := RequestSender[sampleEvent](bus)
	tx.Push(sampleEvent{Value: 12})

	assert.Equal(t, 1, Unobserved[sampleEvent](bus))
	bus.Process()
	assert.Equal(t, 0, Unobserved[sampleEvent](bus))
	assert.Equal(t, []int{12}, got)

	bus.Process()
	assert.Equal(t, []int{12}, got, "no redelivery on an empty cycle")
}

func TestEachCallbackOrder(t *testing.T) {
	bus := New()
	var trace []string
	Each(bus, func(e sampleEvent) { trace = append(trace, "a") })
	Each(bus, func(e sampleEvent) { trace = append(trace, "b") })

	tx := RequestSender[sampleEvent](bus)
	tx.Push(sampleEvent{Value: 1})
	tx.Push(sampleEvent{Value: 2})
	bus.Process()

	assert.Equal(t, []string{"a", "b", "a", "b"}, trace)
}

func TestLastDeliversNewestOnly(t *testing.T) {
	bus := New()
	var calls []int
	Last(bus, func(e sampleEvent) { calls = append(calls, e.Value) })

	tx := RequestSender[sampleEvent](bus)
	for i := 1; i <= 4; i++ {
		tx.Push(sampleEvent{Value: i})
	}
	assert.Equal(t, 4, UnobservedLast[sampleEvent](bus))
	bus.Process()

	assert.Equal(t, []int{4}, calls)
	assert.Equal(t, 0, UnobservedLast[sampleEvent](bus))
}

func TestEachAndLastAreIndependent(t *testing.T) {
	bus := New()
	var each, last []int
	Each(bus, func(e sampleEvent) { each = append(each, e.Value) })
	Last(bus, func(e sampleEvent) { last = append(last, e.Value) })

	tx := RequestSender[sampleEvent](bus)
	tx.Push(sampleEvent{Value: 1})
	tx.Push(sampleEvent{Value: 2})
	bus.Process()

	assert.Equal(t, []int{1, 2}, each)
	assert.Equal(t, []int{2}, last)
}

func TestChannelSharedPerType(t *testing.T) {
	bus := New()
	var got []int
	Each(bus, func(e sampleEvent) { got = append(got, e.Value) })

	a := RequestSender[sampleEvent](bus)
	b := RequestSender[sampleEvent](bus)
	RequestSender[otherEvent](bus)
	a.Push(sampleEvent{Value: 1})
	b.Push(sampleEvent{Value: 2})
	bus.Process()

	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, 2, bus.Channels())
}

func TestRequestReceiverIsIndependent(t *testing.T) {
	bus := New()
	rx := RequestReceiver[sampleEvent](bus)
	defer rx.Close()
	var got []int
	Each(bus, func(e sampleEvent) { got = append(got, e.Value) })

	RequestSender[sampleEvent](bus).Push(sampleEvent{Value: 3})
	bus.Process()

	assert.Equal(t, []int{3}, got)
	v, ok := rx.Next()
	require.True(t, ok)
	assert.Equal(t, 3, v.Value)
}

func TestRequestSenderCreatesGroups(t *testing.T) {
	bus := New()
	tx := RequestSender[otherEvent](bus)
	tx.Push(otherEvent{Name: "early"})
	assert.Equal(t, 1, Unobserved[otherEvent](bus))
	assert.Equal(t, 1, UnobservedLast[otherEvent](bus))

	var got []string
	Each(bus, func(e otherEvent) { got = append(got, e.Name) })
	tx.Push(otherEvent{Name: "late"})
	bus.Process()

	assert.Equal(t, []string{"early", "late"}, got)
}

func TestUnobservedWithoutGroup(t *testing.T) {
	bus := New()
	RequestReceiver[otherEvent](bus)
	assert.Equal(t, 0, Unobserved[otherEvent](bus))
	assert.Equal(t, 0, UnobservedLast[otherEvent](bus))
}

func TestValuesPushedDuringFlushWaitForNextFlush(t *testing.T) {
	bus := New()
	tx := RequestSender[sampleEvent](bus)
	var got []int
	Each(bus, func(e sampleEvent) {
		got = append(got, e.Value)
		if e.Value < 3 {
			tx.Push(sampleEvent{Value: e.Value + 1})
		}
	})
	tx.Push(sampleEvent{Value: 1})

	bus.Flush()
	assert.Equal(t, []int{1}, got)
	bus.Flush()
	bus.Flush()
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestStats(t *testing.T) {
	bus := New(WithName("stats"))
	Each(bus, func(sampleEvent) {})
	Last(bus, func(otherEvent) {})
	RequestSender[sampleEvent](bus).Push(sampleEvent{})
	RequestSender[sampleEvent](bus).Push(sampleEvent{})
	tx := RequestSender[otherEvent](bus)
	tx.Push(otherEvent{})
	tx.Push(otherEvent{})
	bus.Process()

	st := bus.TakeStats()
	assert.Equal(t, 1, st.Flushes)
	assert.Equal(t, 2, st.EachDelivered)
	assert.Equal(t, 1, st.LastDelivered)
	assert.Equal(t, 2, st.EachByType[testPkg+".sampleEvent"])
	assert.Equal(t, 1, st.LastByType[testPkg+".otherEvent"])
	assert.Zero(t, st.EachByType[testPkg+".otherEvent"])

	empty := bus.TakeStats()
	assert.Equal(t, 0, empty.Flushes)
	assert.Empty(t, empty.EachByType)
	assert.Empty(t, empty.LastByType)
}

func TestCloseStopsDelivery(t *testing.T) {
	bus := New()
	calls := 0
	Each(bus, func(sampleEvent) { calls++ })
	tx := RequestSender[sampleEvent](bus)
	bus.Close()
	tx.Push(sampleEvent{Value: 1})
	bus.Process()
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, bus.Observers())
}

// recordingObserver keeps pointer fields so it is never placed in a tiny
// allocation block, which would delay its reclamation.
type recordingObserver struct {
	attached *int
	updates  *int
	bus      *Bus
}

func (o *recordingObserver) Attach(b *Bus) {
	*o.attached++
	o.bus = b
}

func (o *recordingObserver) Update() { *o.updates++ }

func newRecordingObserver() (*recordingObserver, *int, *int) {
	attached, updates := new(int), new(int)
	return &recordingObserver{attached: attached, updates: updates}, attached, updates
}

func TestAttachCallsAttachOnce(t *testing.T) {
	bus := New()
	obs, attached, updates := newRecordingObserver()
	Attach(bus, obs)
	assert.Equal(t, 1, *attached)
	assert.Same(t, bus, obs.bus)

	bus.Process()
	bus.Process()
	assert.Equal(t, 1, *attached)
	assert.Equal(t, 2, *updates)
	runtime.KeepAlive(obs)
}

func TestObserverExpiry(t *testing.T) {
	bus := New()
	first, _, _ := newRecordingObserver()
	second, _, secondUpdates := newRecordingObserver()
	Attach(bus, first)
	Attach(bus, second)
	require.Equal(t, 2, bus.Observers())

	first = nil
	runtime.GC()
	bus.Process()
	assert.Equal(t, 1, bus.Observers())
	assert.Equal(t, 1, *secondUpdates)

	second = nil
	runtime.GC()
	bus.Process()
	assert.Equal(t, 0, bus.Observers())
	assert.Equal(t, 2, bus.TakeStats().Expired)
}

func TestDuplicateAttachPanics(t *testing.T) {
	bus := New()
	obs, attached, _ := newRecordingObserver()
	Attach(bus, obs)

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic on duplicate attach")
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrDuplicateObserver))
		assert.Equal(t, 1, *attached)
		runtime.KeepAlive(obs)
	}()
	AttachWeak(bus, weak.Make(obs))
}

func TestAttachExpiredWeakPointer(t *testing.T) {
	bus := New()
	obs, attached, _ := newRecordingObserver()
	wp := weak.Make(obs)
	obs = nil
	runtime.GC()
	AttachWeak(bus, wp)
	assert.Equal(t, 0, *attached)
	assert.Equal(t, 0, bus.Observers())
}

func TestDetach(t *testing.T) {
	bus := New()
	obs, _, updates := newRecordingObserver()
	Attach(bus, obs)
	assert.True(t, Detach(bus, obs))
	assert.False(t, Detach(bus, obs))
	bus.Process()
	assert.Equal(t, 0, *updates)
	assert.Equal(t, 0, bus.Observers())

	// Re-attaching after detach is allowed.
	Attach(bus, obs)
	assert.Equal(t, 1, bus.Observers())
}

type detachingObserver struct {
	target  *recordingObserver
	bus     *Bus
	updates *int
}

func (o *detachingObserver) Attach(b *Bus) { o.bus = b }
func (o *detachingObserver) Update() {
	*o.updates++
	Detach(o.bus, o.target)
}

func TestDetachDuringSweep(t *testing.T) {
	bus := New()
	target, _, targetUpdates := newRecordingObserver()
	d := &detachingObserver{target: target, updates: new(int)}
	Attach(bus, d)
	Attach(bus, target)

	bus.Process()
	assert.Equal(t, 0, *targetUpdates)
	assert.Equal(t, 1, bus.Observers())
	runtime.KeepAlive(d)
	runtime.KeepAlive(target)
}

type emittingObserver struct {
	bus   *Bus
	value *int
}

func (o *emittingObserver) Attach(b *Bus) { o.bus = b }
func (o *emittingObserver) Update() {
	*o.value++
	RequestSender[sampleEvent](o.bus).Push(sampleEvent{Value: *o.value})
}

func TestObserverPushesBeforeFlush(t *testing.T) {
	bus := New()
	var got []int
	Each(bus, func(e sampleEvent) { got = append(got, e.Value) })
	obs := &emittingObserver{value: new(int)}
	Attach(bus, obs)

	bus.Process()
	bus.Process()
	assert.Equal(t, []int{1, 2}, got)
	runtime.KeepAlive(obs)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "each", ModeEach.String())
	assert.Equal(t, "last", ModeLast.String())
	assert.Equal(t, "unknown", Mode(9).String())
}

func TestStatsSeparateTypesWithSameName(t *testing.T) {
	bus := New()
	Each(bus, func(events.Key) {})
	Each(bus, func(coreevents.Key) {})
	RequestSender[events.Key](bus).Push(events.Key{Code: 'a'})
	tx := RequestSender[coreevents.Key](bus)
	tx.Push(coreevents.Key{Code: 'b'})
	tx.Push(coreevents.Key{Code: 'c'})
	bus.Process()

	st := bus.TakeStats()
	require.Len(t, st.EachByType, 2)
	assert.Equal(t, 1, st.EachByType[testPkg+"/internal/events.Key"])
	assert.Equal(t, 2, st.EachByType["github.com/kilianp07/pulse/core/events.Key"])
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, testPkg+".sampleEvent", TypeName(reflect.TypeFor[sampleEvent]()))
	assert.Equal(t, "int", TypeName(reflect.TypeFor[int]()))
	assert.Equal(t, "[]eventbus.sampleEvent", TypeName(reflect.TypeFor[[]sampleEvent]()))
}

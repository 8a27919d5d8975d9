// Package timing provides pipeline stages for the frame clock: a Ticker that
// emits one events.Tick per cycle and a Stats stage that publishes rolling
// frame delta statistics as events.FrameTiming.
package timing

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/pulse/core/eventbus"
	"github.com/kilianp07/pulse/core/events"
)

// DefaultWindow is the number of deltas kept by Stats when none is given.
const DefaultWindow = 120

// Ticker is a stage emitting events.Tick with a monotonically increasing
// frame number.
type Ticker struct {
	now   func() time.Time
	frame uint64
	last  time.Time
}

// NewTicker returns a Ticker reading time from now. A nil now uses time.Now.
func NewTicker(now func() time.Time) *Ticker {
	if now == nil {
		now = time.Now
	}
	return &Ticker{now: now}
}

func (t *Ticker) Name() string { return "tick" }

// Emit pushes the next Tick. The first tick has a zero delta.
func (t *Ticker) Emit(b *eventbus.Bus) {
	now := t.now()
	var delta time.Duration
	if !t.last.IsZero() {
		delta = now.Sub(t.last)
	}
	t.last = now
	t.frame++
	eventbus.RequestSender[events.Tick](b).Push(events.Tick{Frame: t.frame, Delta: delta, Time: now})
}

// Frame returns the number of ticks emitted so far.
func (t *Ticker) Frame() uint64 { return t.frame }

// Stats collects tick deltas and emits their mean and standard deviation.
type Stats struct {
	window  int
	samples []float64
	frame   uint64
}

// NewStats subscribes to ticks on b and keeps the last window deltas.
func NewStats(b *eventbus.Bus, window int) *Stats {
	if window <= 0 {
		window = DefaultWindow
	}
	s := &Stats{window: window}
	eventbus.Each(b, s.record)
	return s
}

func (s *Stats) record(t events.Tick) {
	s.frame = t.Frame
	if t.Delta <= 0 {
		return
	}
	s.samples = append(s.samples, float64(t.Delta))
	if len(s.samples) > s.window {
		s.samples = s.samples[len(s.samples)-s.window:]
	}
}

func (s *Stats) Name() string { return "frame-timing" }

// Emit pushes a FrameTiming once at least one delta was recorded.
func (s *Stats) Emit(b *eventbus.Bus) {
	if len(s.samples) == 0 {
		return
	}
	eventbus.RequestSender[events.FrameTiming](b).Push(s.Snapshot())
}

// Snapshot computes the statistics over the current window.
func (s *Stats) Snapshot() events.FrameTiming {
	ft := events.FrameTiming{Frame: s.frame, Samples: len(s.samples)}
	if len(s.samples) == 0 {
		return ft
	}
	mean, std := stat.MeanStdDev(s.samples, nil)
	if len(s.samples) < 2 || math.IsNaN(std) {
		std = 0
	}
	ft.Mean = time.Duration(math.Round(mean))
	ft.StdDev = time.Duration(math.Round(std))
	return ft
}

package metrics

import (
	"errors"
	"io"
	"time"

	"github.com/kilianp07/pulse/core/eventbus"
)

// CycleStats describes one Process cycle of a bus.
type CycleStats struct {
	Bus           string         `json:"bus"`
	Cycle         uint64         `json:"cycle"`
	Started       time.Time      `json:"started"`
	Duration      time.Duration  `json:"duration"`
	Observers     int            `json:"observers"`
	Expired       int            `json:"expired"`
	Flushes       int            `json:"flushes"`
	EachDelivered int            `json:"each_delivered"`
	LastDelivered int            `json:"last_delivered"`
	EachByType    map[string]int `json:"each_by_type,omitempty"`
	LastByType    map[string]int `json:"last_by_type,omitempty"`
}

// FromStats builds a CycleStats from the counters taken from a bus.
func FromStats(b *eventbus.Bus, cycle uint64, started time.Time, d time.Duration, st eventbus.Stats) CycleStats {
	return CycleStats{
		Bus:           b.Name(),
		Cycle:         cycle,
		Started:       started,
		Duration:      d,
		Observers:     b.Observers(),
		Expired:       st.Expired,
		Flushes:       st.Flushes,
		EachDelivered: st.EachDelivered,
		LastDelivered: st.LastDelivered,
		EachByType:    st.EachByType,
		LastByType:    st.LastByType,
	}
}

// MetricsSink records cycle statistics for observability purposes.
type MetricsSink interface {
	RecordCycle(CycleStats) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordCycle(CycleStats) error { return nil }

// MultiSink fans cycle statistics out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCycle forwards the record to every sink and joins their errors.
func (m *MultiSink) RecordCycle(cs CycleStats) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordCycle(cs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink implementing io.Closer.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/pulse/core/metrics"
)

// PromSink records bus cycles in Prometheus metrics.
type PromSink struct {
	cycles    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	observers *prometheus.GaugeVec
	delivered *prometheus.CounterVec
	expired   *prometheus.CounterVec
}

// NewPromSink registers cycle metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_cycles_total",
			Help: "Total number of processed bus cycles",
		}, []string{"bus"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulse_cycle_duration_seconds",
			Help:    "Wall time spent in one bus cycle",
			Buckets: []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1},
		}, []string{"bus"}),
		observers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pulse_observers",
			Help: "Number of observers attached to the bus",
		}, []string{"bus"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_events_delivered_total",
			Help: "Values handed to callbacks by event type and group mode",
		}, []string{"bus", "event_type", "mode"}),
		expired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_observers_expired_total",
			Help: "Observers dropped after being reclaimed",
		}, []string{"bus"}),
	}
	var err error
	if s.cycles, err = register(reg, s.cycles); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.observers, err = register(reg, s.observers); err != nil {
		return nil, err
	}
	if s.delivered, err = register(reg, s.delivered); err != nil {
		return nil, err
	}
	if s.expired, err = register(reg, s.expired); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordCycle updates every cycle metric.
func (s *PromSink) RecordCycle(cs coremetrics.CycleStats) error {
	s.cycles.WithLabelValues(cs.Bus).Inc()
	s.duration.WithLabelValues(cs.Bus).Observe(cs.Duration.Seconds())
	s.observers.WithLabelValues(cs.Bus).Set(float64(cs.Observers))
	if cs.Expired > 0 {
		s.expired.WithLabelValues(cs.Bus).Add(float64(cs.Expired))
	}
	for typ, n := range cs.EachByType {
		s.delivered.WithLabelValues(cs.Bus, typ, "each").Add(float64(n))
	}
	for typ, n := range cs.LastByType {
		s.delivered.WithLabelValues(cs.Bus, typ, "last").Add(float64(n))
	}
	return nil
}

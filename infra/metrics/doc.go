// Package metrics provides the Prometheus and InfluxDB cycle sinks and
// registers them, together with "nop", in the core metrics factory. Import it
// for its side effects before calling coremetrics.NewMetricsSink.
package metrics

// Package metrics defines the sinks recording per-cycle statistics of a bus
// or pipeline. Implementations such as the Prometheus, InfluxDB and journal
// sinks are registered by name through the factory helpers; NewMetricsSink
// returns a MultiSink automatically when several sinks are configured.
package metrics

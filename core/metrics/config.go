package metrics

import "github.com/kilianp07/pulse/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort is the listen address of the /metrics endpoint. Empty
	// disables the HTTP server.
	PrometheusPort string `json:"prometheus_port"`
}

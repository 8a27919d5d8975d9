package journal

import (
	"github.com/kilianp07/pulse/core/factory"
	coremetrics "github.com/kilianp07/pulse/core/metrics"
)

// init registers the journal backends as metrics sinks.
func init() {
	for _, backend := range []string{BackendJSONL, BackendSQLite} {
		_ = coremetrics.RegisterMetricsSink(backend, func(conf map[string]any) (coremetrics.MetricsSink, error) {
			var c Config
			if err := factory.Decode(conf, &c); err != nil {
				return nil, err
			}
			c.Backend = backend
			st, err := Open(c)
			if err != nil {
				return nil, err
			}
			return Sink{Store: st}, nil
		})
	}
}

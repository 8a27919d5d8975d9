package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pulse/core/factory"
	coremetrics "github.com/kilianp07/pulse/core/metrics"
)

func TestBuiltinSinksRegistered(t *testing.T) {
	names := coremetrics.RegisteredSinks()
	for _, n := range []string{"nop", "prometheus", "influx"} {
		assert.Contains(t, names, n)
	}
}

func TestNewMetricsSinkFromConfig(t *testing.T) {
	sink, err := coremetrics.NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, coremetrics.NopSink{}, sink)

	sink, err = coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "prometheus"}})
	require.NoError(t, err)
	assert.IsType(t, &PromSink{}, sink)

	sink, err = coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "prometheus"}})
	require.NoError(t, err)
	multi, ok := sink.(*coremetrics.MultiSink)
	require.True(t, ok)
	assert.Len(t, multi.Sinks, 2)
	assert.NoError(t, sink.RecordCycle(coremetrics.CycleStats{Bus: "factory"}))

	_, err = coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "graphite"}})
	assert.ErrorIs(t, err, factory.ErrUnknownType)
}

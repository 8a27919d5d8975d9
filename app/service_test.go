package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pulse/config"
	"github.com/kilianp07/pulse/core/eventbus"
	"github.com/kilianp07/pulse/core/events"
	"github.com/kilianp07/pulse/core/factory"
	"github.com/kilianp07/pulse/infra/journal"
	"github.com/kilianp07/pulse/infra/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Loop.FPS = 500
	cfg.Loop.MaxFrames = 6
	cfg.Logging.Level = "error"
	cfg.Journal = journal.Config{Enabled: true, Path: filepath.Join(t.TempDir(), "cycles.jsonl")}
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "nop"}}
	cfg.Input.Enabled = true
	cfg.Input.RateHz = 1000
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServiceRunsMaxFrames(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, svc.Close()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, svc.Run(ctx))
	assert.Equal(t, uint64(6), svc.Cycles())

	counts := svc.Console().Counts()
	assert.Equal(t, int64(1), counts.Started, "started is emitted by the first cycle only")
	assert.Equal(t, int64(1), counts.Resizes, "initial window size reported once")
	assert.Equal(t, int64(5), counts.Timings, "every frame after the first has a delta")

	st, err := journal.Open(cfg.Journal)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()
	recs, err := st.Query(ctx, journal.Query{Bus: "frame"})
	require.NoError(t, err)
	require.Len(t, recs, 6)
	assert.Equal(t, uint64(1), recs[0].Cycle)
	assert.Equal(t, 2, recs[0].Observers)
	// once stage, bus cycle, ticker and stats stages
	assert.Equal(t, 4, recs[0].Flushes)
	assert.Equal(t, 3, recs[1].Flushes)
}

func TestServiceStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Loop.MaxFrames = 0
	cfg.Input.Enabled = false
	cfg.Journal.Enabled = false
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestConsoleCountsCallbacks(t *testing.T) {
	b := eventbus.New()
	c := NewConsole(logger.NopLogger{})
	eventbus.Attach(b, c)

	keys := eventbus.RequestSender[events.Key](b)
	keys.Push(events.Key{Code: 'a', Action: events.KeyPress})
	keys.Push(events.Key{Code: 'a', Action: events.KeyRelease})
	cursor := eventbus.RequestSender[events.CursorPosition](b)
	for i := 0; i < 10; i++ {
		cursor.Push(events.CursorPosition{X: float64(i)})
	}
	eventbus.RequestSender[events.RemoteMessage](b).Push(events.RemoteMessage{Topic: "t", Payload: []byte("x")})
	b.Process()

	counts := c.Counts()
	assert.Equal(t, int64(2), counts.Keys)
	assert.Equal(t, int64(1), counts.Cursor)
	assert.Equal(t, int64(1), counts.Remote)
	assert.Zero(t, counts.Resizes)
}

package app

import (
	"sync/atomic"

	"github.com/kilianp07/pulse/core/eventbus"
	"github.com/kilianp07/pulse/core/events"
	"github.com/kilianp07/pulse/infra/logger"
)

// ConsoleCounts is a snapshot of what the console observed.
type ConsoleCounts struct {
	Started int64
	Keys    int64
	Cursor  int64
	Resizes int64
	Remote  int64
	Timings int64
}

// Console is an Observer logging the input, remote and timing events of a
// bus. Keys and remote messages are logged one by one; cursor, resize and
// timing updates only keep the newest value per flush.
type Console struct {
	log logger.Logger

	started, keys, cursor, resizes, remote, timings atomic.Int64
}

// NewConsole returns a console writing to log.
func NewConsole(log logger.Logger) *Console {
	return &Console{log: log}
}

func (c *Console) Attach(b *eventbus.Bus) {
	eventbus.Each(b, func(ev events.Started) {
		c.started.Add(1)
		c.log.Infof("bus %s started", ev.Bus)
	})
	eventbus.Each(b, func(k events.Key) {
		c.keys.Add(1)
		c.log.Debugw("key", map[string]any{"code": string(k.Code), "action": k.Action.String()})
	})
	eventbus.Last(b, func(p events.CursorPosition) {
		c.cursor.Add(1)
		c.log.Debugw("cursor", map[string]any{"x": p.X, "y": p.Y})
	})
	eventbus.Last(b, func(r events.WindowResize) {
		c.resizes.Add(1)
		c.log.Infof("window resized to %dx%d", r.Width, r.Height)
	})
	eventbus.Each(b, func(m events.RemoteMessage) {
		c.remote.Add(1)
		c.log.Infof("remote command on %s: %s", m.Topic, m.Payload)
	})
	eventbus.Last(b, func(ft events.FrameTiming) {
		c.timings.Add(1)
		c.log.Debugw("frame timing", map[string]any{"frame": ft.Frame, "mean": ft.Mean.String(), "stddev": ft.StdDev.String()})
	})
}

// Update is a no-op: the console only reacts to callbacks.
func (c *Console) Update() {}

// Counts returns the number of callbacks run per event kind.
func (c *Console) Counts() ConsoleCounts {
	return ConsoleCounts{
		Started: c.started.Load(),
		Keys:    c.keys.Load(),
		Cursor:  c.cursor.Load(),
		Resizes: c.resizes.Load(),
		Remote:  c.remote.Load(),
		Timings: c.timings.Load(),
	}
}

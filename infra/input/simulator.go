// Package input simulates an operating system input backend. A Simulator is
// an eventbus Observer: its producer goroutine plays the role of the OS input
// thread and pushes key and cursor events through Senders, while Update polls
// the window size on the frame thread.
package input

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kilianp07/pulse/core/channel"
	"github.com/kilianp07/pulse/core/eventbus"
	"github.com/kilianp07/pulse/core/events"
	"github.com/kilianp07/pulse/core/monitoring"
	"github.com/kilianp07/pulse/infra/logger"
)

// ErrNotAttached is returned by Start before the simulator is attached to a bus.
var ErrNotAttached = errors.New("input simulator not attached")

// Config tunes the synthetic input stream.
type Config struct {
	Enabled bool    `json:"enabled"`
	RateHz  float64 `json:"rate_hz"`
	Seed    uint64  `json:"seed"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	// KeyChance is the probability that a step emits a key press and release.
	KeyChance float64 `json:"key_chance"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.RateHz == 0 {
		c.RateHz = 120
	}
	if c.Width == 0 {
		c.Width = 1280
	}
	if c.Height == 0 {
		c.Height = 720
	}
	if c.KeyChance == 0 {
		c.KeyChance = 0.1
	}
}

// Validate checks the configured values.
func (c Config) Validate() error {
	if !(c.RateHz > 0) {
		return fmt.Errorf("rate_hz must be positive")
	}
	if c.Interval() <= 0 {
		return fmt.Errorf("rate_hz %g is too high: interval is below 1ns", c.RateHz)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("window size must be positive")
	}
	if c.KeyChance < 0 || c.KeyChance > 1 {
		return fmt.Errorf("key_chance must be within [0,1]")
	}
	return nil
}

// Interval is the period between two producer steps.
func (c Config) Interval() time.Duration {
	return time.Duration(float64(time.Second) / c.RateHz)
}

// Simulator produces input events from a seeded random source.
type Simulator struct {
	cfg Config
	log logger.Logger

	mu       sync.Mutex
	attached bool
	keys     channel.Sender[events.Key]
	cursor   channel.Sender[events.CursorPosition]
	resize   channel.Sender[events.WindowResize]
	rng      *rand.Rand
	x, y     float64
	width    int
	height   int

	// frame thread only
	reportedW, reportedH int

	pushed atomic.Uint64
}

// NewSimulator returns a detached simulator.
func NewSimulator(cfg Config) *Simulator {
	cfg.SetDefaults()
	return &Simulator{
		cfg:    cfg,
		log:    logger.New("input"),
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		width:  cfg.Width,
		height: cfg.Height,
		x:      float64(cfg.Width) / 2,
		y:      float64(cfg.Height) / 2,
	}
}

// Attach requests the senders used by the producer and by Update.
func (s *Simulator) Attach(b *eventbus.Bus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = eventbus.RequestSender[events.Key](b)
	s.cursor = eventbus.RequestSender[events.CursorPosition](b)
	s.resize = eventbus.RequestSender[events.WindowResize](b)
	s.attached = true
}

// Update pushes a WindowResize when the window size differs from the last
// reported one. The first Update reports the initial size.
func (s *Simulator) Update() {
	s.mu.Lock()
	w, h, tx := s.width, s.height, s.resize
	s.mu.Unlock()
	if w == s.reportedW && h == s.reportedH {
		return
	}
	s.reportedW, s.reportedH = w, h
	tx.Push(events.WindowResize{Width: w, Height: h})
}

// Resize changes the simulated window size. It is safe to call from any
// goroutine.
func (s *Simulator) Resize(width, height int) {
	s.mu.Lock()
	s.width, s.height = width, height
	s.x = min(s.x, float64(width))
	s.y = min(s.y, float64(height))
	s.mu.Unlock()
}

// Step emits one cursor move and, with probability KeyChance, a key press
// followed by its release.
func (s *Simulator) Step() {
	s.mu.Lock()
	s.x = clamp(s.x+s.rng.NormFloat64()*8, 0, float64(s.width))
	s.y = clamp(s.y+s.rng.NormFloat64()*8, 0, float64(s.height))
	pos := events.CursorPosition{X: s.x, Y: s.y}
	var key rune
	if s.rng.Float64() < s.cfg.KeyChance {
		key = 'a' + rune(s.rng.IntN(26))
	}
	keys, cursor := s.keys, s.cursor
	s.mu.Unlock()

	cursor.Push(pos)
	s.pushed.Add(1)
	if key != 0 {
		keys.Push(events.Key{Code: key, Action: events.KeyPress})
		keys.Push(events.Key{Code: key, Action: events.KeyRelease})
		s.pushed.Add(2)
	}
}

// Start launches the producer goroutine. It stops when ctx is done; the
// returned channel is closed once it has exited.
func (s *Simulator) Start(ctx context.Context) (<-chan struct{}, error) {
	s.mu.Lock()
	attached := s.attached
	s.mu.Unlock()
	if !attached {
		return nil, ErrNotAttached
	}
	interval := s.cfg.Interval()
	if interval <= 0 {
		return nil, fmt.Errorf("input rate %g Hz has no usable interval", s.cfg.RateHz)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer monitoring.Recover()
		t := time.NewTicker(interval)
		defer t.Stop()
		s.log.Infof("input producer started at %.0f Hz", s.cfg.RateHz)
		for {
			select {
			case <-ctx.Done():
				s.log.Infof("input producer stopped after %d events", s.pushed.Load())
				return
			case <-t.C:
				s.Step()
			}
		}
	}()
	return done, nil
}

// Pushed returns the number of events produced so far.
func (s *Simulator) Pushed() uint64 { return s.pushed.Load() }

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

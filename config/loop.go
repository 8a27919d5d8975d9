package config

import (
	"fmt"
	"time"
)

// LoopConfig drives the frame loop.
type LoopConfig struct {
	// Name labels the bus in logs and metrics.
	Name string `json:"name"`
	// FPS is the target number of cycles per second.
	FPS float64 `json:"fps"`
	// MaxFrames stops the loop after that many cycles when positive.
	MaxFrames uint64 `json:"max_frames"`
	// StatsWindow is the number of frame deltas kept by the timing stage.
	StatsWindow int `json:"stats_window"`
}

// SetDefaults applies sane defaults.
func (c *LoopConfig) SetDefaults() {
	if c.Name == "" {
		c.Name = "frame"
	}
	if c.FPS == 0 {
		c.FPS = 60
	}
	if c.StatsWindow == 0 {
		c.StatsWindow = 120
	}
}

// Validate checks the loop settings.
func (c LoopConfig) Validate() error {
	if !(c.FPS > 0) {
		return fmt.Errorf("fps must be positive")
	}
	if c.Interval() <= 0 {
		return fmt.Errorf("fps %g is too high: frame interval is below 1ns", c.FPS)
	}
	if c.StatsWindow < 0 {
		return fmt.Errorf("stats_window must not be negative")
	}
	return nil
}

// Interval is the period between two cycles.
func (c LoopConfig) Interval() time.Duration {
	return time.Duration(float64(time.Second) / c.FPS)
}

package config

import (
	"fmt"
	"slices"
)

var logLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}

// LoggingConfig selects the log level and backend.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error, fatal, panic or disabled.
	Level string `json:"level"`
	// Backend selects the logger implementation: "zerolog" or "logrus".
	Backend string `json:"backend"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Backend == "" {
		c.Backend = "zerolog"
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	if !slices.Contains(logLevels, c.Level) {
		return fmt.Errorf("unknown level %s", c.Level)
	}
	if c.Backend != "zerolog" && c.Backend != "logrus" {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	return nil
}

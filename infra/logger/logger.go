// Package logger builds the structured loggers used outside the core
// packages. zerolog is the default backend; logrus is available as an
// alternative for deployments that already ship logrus JSON.
package logger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"

	corelogger "github.com/kilianp07/pulse/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.Nop

const (
	BackendZerolog = "zerolog"
	BackendLogrus  = "logrus"
)

var (
	mu      sync.RWMutex
	backend = BackendZerolog
)

// Configure sets the global level and the backend used by New. An empty
// level keeps the current one.
func Configure(level, name string) error {
	if name == "" {
		name = BackendZerolog
	}
	if name != BackendZerolog && name != BackendLogrus {
		return fmt.Errorf("unknown log backend %s", name)
	}
	if level != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		zerolog.SetGlobalLevel(lvl)
		lrLevel, err := logrus.ParseLevel(lvl.String())
		if err != nil {
			lrLevel = logrus.InfoLevel
		}
		setLogrusLevel(lrLevel)
	}
	mu.Lock()
	backend = name
	mu.Unlock()
	return nil
}

// New returns a Logger for the given component. The environment is detected via
// the APP_ENV variable.
func New(component string) Logger {
	mu.RLock()
	b := backend
	mu.RUnlock()
	if b == BackendLogrus {
		return NewLogrusLogger(component)
	}
	return NewZerologLogger(component)
}

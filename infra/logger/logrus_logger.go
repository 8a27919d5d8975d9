package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logrusMu    sync.Mutex
	logrusLevel = logrus.InfoLevel
)

func setLogrusLevel(l logrus.Level) {
	logrusMu.Lock()
	logrusLevel = l
	logrusMu.Unlock()
}

// LogrusLogger implements Logger using sirupsen/logrus with JSON output.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger creates a JSON logrus logger tagged with component.
func NewLogrusLogger(component string) Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)
	logrusMu.Lock()
	l.SetLevel(logrusLevel)
	logrusMu.Unlock()
	return &LogrusLogger{entry: l.WithField("component", component)}
}

func (l *LogrusLogger) Debugf(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

func (l *LogrusLogger) Debugw(msg string, fields map[string]any) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (l *LogrusLogger) Infof(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *LogrusLogger) Warnf(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *LogrusLogger) Errorf(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

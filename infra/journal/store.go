// Package journal persists the statistics of every bus cycle so that a run
// can be inspected afterwards. Two backends exist: rotating JSONL files and
// SQLite. Both can also be used as metrics sinks named "jsonl" and "sqlite".
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	coremetrics "github.com/kilianp07/pulse/core/metrics"
)

// ErrUnknownBackend is returned by Open for unsupported backends.
var ErrUnknownBackend = errors.New("unknown journal backend")

const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

// Query defines filters for retrieving cycles.
type Query struct {
	Bus   string
	Start time.Time
	End   time.Time
	// Limit keeps only the latest Limit matches when positive.
	Limit int
}

func (q Query) match(cs coremetrics.CycleStats) bool {
	if q.Bus != "" && cs.Bus != q.Bus {
		return false
	}
	if !q.Start.IsZero() && cs.Started.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && cs.Started.After(q.End) {
		return false
	}
	return true
}

func (q Query) tail(res []coremetrics.CycleStats) []coremetrics.CycleStats {
	if q.Limit > 0 && len(res) > q.Limit {
		return res[len(res)-q.Limit:]
	}
	return res
}

// Store persists cycle statistics and supports querying.
type Store interface {
	Append(ctx context.Context, cs coremetrics.CycleStats) error
	Query(ctx context.Context, q Query) ([]coremetrics.CycleStats, error)
	Close() error
}

// Config selects and tunes the journal backend.
type Config struct {
	Enabled bool `json:"enabled"`
	// Backend selects the store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendJSONL
	}
	if c.Path == "" {
		if c.Backend == BackendSQLite {
			c.Path = "cycles.db"
		} else {
			c.Path = "cycles.jsonl"
		}
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Backend != BackendJSONL && c.Backend != BackendSQLite {
		return fmt.Errorf("%w: %s", ErrUnknownBackend, c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// Open creates the store described by cfg.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
}

// Sink adapts a Store to coremetrics.MetricsSink.
type Sink struct {
	Store Store
}

// RecordCycle appends the cycle to the store.
func (s Sink) RecordCycle(cs coremetrics.CycleStats) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Store.Append(ctx, cs)
}

// Close closes the store.
func (s Sink) Close() error { return s.Store.Close() }

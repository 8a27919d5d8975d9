package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	coremetrics "github.com/kilianp07/pulse/core/metrics"
)

// RotatingJSONLStore stores cycles in a JSONL file with automatic rotation.
type RotatingJSONLStore struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
	path   string
}

// NewRotatingJSONLStore creates a store with rotation options in megabytes and days.
func NewRotatingJSONLStore(path string, maxSizeMB, maxBackups, maxAgeDays int) (*RotatingJSONLStore, error) {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   false,
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &RotatingJSONLStore{logger: lj, path: path}, nil
}

// Append writes the cycle and triggers rotation if needed.
func (s *RotatingJSONLStore) Append(_ context.Context, cs coremetrics.CycleStats) error {
	b, err := json.Marshal(cs)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.logger.Write(append(b, '\n'))
	return err
}

// files returns the active file and its rotated backups. Backups are named
// <name>-<timestamp><ext> by lumberjack.
func (s *RotatingJSONLStore) files() ([]string, error) {
	ext := filepath.Ext(s.path)
	pattern := strings.TrimSuffix(s.path, ext) + "*" + ext
	return filepath.Glob(pattern)
}

// Query reads all journal files including rotated ones and returns the
// matching cycles ordered by start time.
func (s *RotatingJSONLStore) Query(ctx context.Context, q Query) ([]coremetrics.CycleStats, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	var res []coremetrics.CycleStats
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := readJSONL(f, q)
		if err != nil {
			continue
		}
		res = append(res, recs...)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Started.Before(res[j].Started) })
	return q.tail(res), nil
}

func readJSONL(path string, q Query) ([]coremetrics.CycleStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	var res []coremetrics.CycleStats
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var cs coremetrics.CycleStats
		if err := json.Unmarshal(scanner.Bytes(), &cs); err != nil {
			continue
		}
		if q.match(cs) {
			res = append(res, cs)
		}
	}
	return res, scanner.Err()
}

// Close closes the underlying writer.
func (s *RotatingJSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger.Close()
}

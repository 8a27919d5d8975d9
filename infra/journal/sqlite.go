package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	coremetrics "github.com/kilianp07/pulse/core/metrics"
)

// SQLiteStore persists cycles to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS bus_cycles (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        bus TEXT,
        cycle INTEGER,
        started INTEGER,
        record TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the cycle to the database.
func (s *SQLiteStore) Append(ctx context.Context, cs coremetrics.CycleStats) error {
	b, err := json.Marshal(cs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bus_cycles (bus, cycle, started, record) VALUES (?, ?, ?, ?)`,
		cs.Bus, int64(cs.Cycle), cs.Started.UnixNano(), string(b))
	return err
}

// Query returns cycles matching q ordered by start time.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]coremetrics.CycleStats, error) {
	var args []any
	query := `SELECT record FROM bus_cycles WHERE 1=1`
	if q.Bus != "" {
		query += ` AND bus = ?`
		args = append(args, q.Bus)
	}
	if !q.Start.IsZero() {
		query += ` AND started >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND started <= ?`
		args = append(args, q.End.UnixNano())
	}
	query += ` ORDER BY started, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []coremetrics.CycleStats
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var cs coremetrics.CycleStats
		if err := json.Unmarshal([]byte(data), &cs); err != nil {
			return nil, fmt.Errorf("unmarshal cycle: %w", err)
		}
		res = append(res, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return q.tail(res), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Package sqlite is the file-backed probe-history store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/pipecdn/agent/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS probe_results (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	node_id    TEXT NOT NULL,
	ip         TEXT NOT NULL,
	latency_ms INTEGER NOT NULL,
	status     TEXT NOT NULL,
	checked_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_probe_results_checked_at ON probe_results (checked_at);
`

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Append(ctx context.Context, r *domain.ProbeRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO probe_results (node_id, ip, latency_ms, status, checked_at) VALUES (?, ?, ?, ?, ?)`,
		r.NodeID, r.IP, r.LatencyMS, string(r.Status), r.CheckedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert probe result: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]domain.ProbeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT node_id, ip, latency_ms, status, checked_at
		 FROM probe_results ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query probe results: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ProbeRecord, 0, limit)
	for rows.Next() {
		var r domain.ProbeRecord
		var status string
		if err := rows.Scan(&r.NodeID, &r.IP, &r.LatencyMS, &status, &r.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan probe result: %w", err)
		}
		r.Status = domain.NodeStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Package store persists emitted aggregate records in SQLite so the CLI
// can answer stats and tail queries without re-reading batch files.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/sessionwatch/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	type           TEXT    NOT NULL,
	date_ms        INTEGER NOT NULL,
	application_id TEXT    NOT NULL,
	session_id     TEXT    NOT NULL,
	view_id        TEXT    NOT NULL,
	view_name      TEXT,
	doc_version    INTEGER,
	payload        TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_session ON records(session_id);
CREATE INDEX IF NOT EXISTS idx_records_type ON records(type);
`

// Store persists records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the record store at path and bootstraps the
// schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("store: ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("store: bootstrap schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Write implements the sink contract: insert failures are logged, never
// propagated back into the processing lane.
func (s *Store) Write(rec model.Record) {
	if err := s.Insert(context.Background(), rec); err != nil {
		fmt.Fprintf(os.Stderr, "sessionwatch: store write: %v\n", err)
	}
}

// Insert persists one record.
func (s *Store) Insert(ctx context.Context, rec model.Record) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("store is not configured")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	var docVersion int64
	if rec.ViewDetail != nil {
		docVersion = rec.ViewDetail.DocVersion
	}
	_, err = s.sqlDB.ExecContext(ctx, `
		INSERT INTO records (type, date_ms, application_id, session_id, view_id, view_name, doc_version, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.Type),
		rec.Date.UTC().UnixMilli(),
		rec.Application.ID,
		rec.Session.ID,
		rec.View.ID,
		rec.View.Name,
		docVersion,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Stats summarizes the stored records.
type Stats struct {
	Total    int64            `json:"total"`
	ByType   map[string]int64 `json:"by_type"`
	Sessions int64            `json:"sessions"`
	Views    int64            `json:"views"`
}

// Summarize computes aggregate statistics over all stored records.
func (s *Store) Summarize(ctx context.Context) (*Stats, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("store is not configured")
	}
	stats := &Stats{ByType: make(map[string]int64)}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT type, COUNT(*) FROM records GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("count by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var n int64
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		stats.ByType[typ] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate type counts: %w", err)
	}

	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT session_id) FROM records`).Scan(&stats.Sessions); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT view_id) FROM records`).Scan(&stats.Views); err != nil {
		return nil, fmt.Errorf("count views: %w", err)
	}
	return stats, nil
}

// StoredRecord is one persisted record with its storage metadata.
type StoredRecord struct {
	ID      int64        `json:"id"`
	Date    time.Time    `json:"date"`
	Record  model.Record `json:"record"`
	Session string       `json:"session_id"`
}

// Tail returns the most recent n records, newest first.
func (s *Store) Tail(ctx context.Context, n int) ([]StoredRecord, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("store is not configured")
	}
	if n <= 0 {
		n = 20
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, date_ms, session_id, payload FROM records
		ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query tail: %w", err)
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		var sr StoredRecord
		var dateMS int64
		var payload string
		if err := rows.Scan(&sr.ID, &dateMS, &sr.Session, &payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		sr.Date = time.UnixMilli(dateMS).UTC()
		if err := json.Unmarshal([]byte(payload), &sr.Record); err != nil {
			return nil, fmt.Errorf("unmarshal record %d: %w", sr.ID, err)
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

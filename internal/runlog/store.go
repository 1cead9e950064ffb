package runlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Record describes one completed report run.
type Record struct {
	ID            string
	WindowStart   time.Time
	WindowEnd     time.Time
	Channels      int
	Senders       int
	TotalMessages int
	ReportPath    string
	FinishedAt    time.Time
}

// Store manages SQLite persistence for run history.
type Store struct {
	db *sql.DB
}

// NewStore opens the history database at ~/.chanstats/history.db, creating
// the directory and schema when missing.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".chanstats")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .chanstats directory: %w", err)
	}
	return NewStoreWithPath(filepath.Join(dir, "history.db"))
}

// NewStoreWithPath opens the history database at a custom path. This is
// useful for testing.
func NewStoreWithPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS report_runs (
			id TEXT PRIMARY KEY,
			window_start TEXT NOT NULL,
			window_end TEXT NOT NULL,
			channels INTEGER NOT NULL,
			senders INTEGER NOT NULL,
			total_messages INTEGER NOT NULL,
			report_path TEXT NOT NULL,
			finished_at TEXT NOT NULL
		);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &Store{db: db}, nil
}

// Append inserts a run record, assigning it a fresh id when empty.
func (s *Store) Append(rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now().UTC()
	}

	insertSQL := `
		INSERT INTO report_runs
			(id, window_start, window_end, channels, senders, total_messages, report_path, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err := s.db.Exec(insertSQL,
		rec.ID,
		rec.WindowStart.UTC().Format(time.RFC3339),
		rec.WindowEnd.UTC().Format(time.RFC3339Nano),
		rec.Channels,
		rec.Senders,
		rec.TotalMessages,
		rec.ReportPath,
		rec.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run record: %w", err)
	}
	return rec.ID, nil
}

// Recent returns up to limit run records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(`
		SELECT id, window_start, window_end, channels, senders, total_messages, report_path, finished_at
		FROM report_runs
		ORDER BY finished_at DESC, id
		LIMIT ?;
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var start, end, finished string
		if err := rows.Scan(&rec.ID, &start, &end, &rec.Channels, &rec.Senders,
			&rec.TotalMessages, &rec.ReportPath, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		rec.WindowStart, _ = time.Parse(time.RFC3339, start)
		rec.WindowEnd, _ = time.Parse(time.RFC3339Nano, end)
		rec.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run records: %w", err)
	}
	return records, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

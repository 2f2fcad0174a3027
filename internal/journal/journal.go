package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"reelpress/internal/services"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	ended_at   TEXT
);
CREATE TABLE IF NOT EXISTS run_items (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	page_id    TEXT NOT NULL,
	title      TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	error      TEXT,
	video_url  TEXT,
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS run_items_recorded_at ON run_items(recorded_at);
`

// Outcome classifies how an item left a run.
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomeError    Outcome = "error"
	OutcomeManual   Outcome = "manual"
	OutcomeSkipped  Outcome = "skipped"
)

// Entry is one journaled item, joined with its run.
type Entry struct {
	RunID      string
	PageID     string
	Title      string
	Outcome    Outcome
	Error      string
	VideoURL   string
	RecordedAt time.Time
}

// Journal is a local, non-authoritative record of pipeline runs backed
// by SQLite. The task database stays the system of record; the journal
// only feeds run history on the command line.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the journal database at path, applying the
// schema on first use.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "journal", "open", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "journal", "open", path, err)
	}
	// The journal has a single writer; one connection avoids lock churn.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, services.Wrap(services.ErrConfiguration, "journal", "open", "apply schema", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// BeginRun records the start of a pipeline run.
func (j *Journal) BeginRun(ctx context.Context, runID string) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		runID, j.now().UTC().Format(time.RFC3339))
	if err != nil {
		return services.Wrap(services.ErrTransient, "journal", "begin_run", runID, err)
	}
	return nil
}

// EndRun stamps the run's completion time.
func (j *Journal) EndRun(ctx context.Context, runID string) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE runs SET ended_at = ? WHERE id = ?`,
		j.now().UTC().Format(time.RFC3339), runID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "journal", "end_run", runID, err)
	}
	return nil
}

// RecordItem journals one processed item.
func (j *Journal) RecordItem(ctx context.Context, runID string, entry Entry) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO run_items (run_id, page_id, title, outcome, error, video_url, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, entry.PageID, entry.Title, string(entry.Outcome), entry.Error, entry.VideoURL,
		j.now().UTC().Format(time.RFC3339))
	if err != nil {
		return services.Wrap(services.ErrTransient, "journal", "record_item", entry.PageID, err)
	}
	return nil
}

// Recent returns the newest journaled items, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, page_id, title, outcome, COALESCE(error, ''), COALESCE(video_url, ''), recorded_at
		 FROM run_items ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "journal", "recent", "query", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var outcome, recordedAt string
		if err := rows.Scan(&entry.RunID, &entry.PageID, &entry.Title, &outcome, &entry.Error, &entry.VideoURL, &recordedAt); err != nil {
			return nil, services.Wrap(services.ErrTransient, "journal", "recent", "scan", err)
		}
		entry.Outcome = Outcome(outcome)
		if parsed, err := time.Parse(time.RFC3339, recordedAt); err == nil {
			entry.RecordedAt = parsed
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "journal", "recent", "iterate", err)
	}
	return entries, nil
}

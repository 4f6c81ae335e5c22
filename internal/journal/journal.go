// Package journal keeps an operational log of refresh cycles, compile
// exclusions, and resolution outcomes in a local sqlite file. It replaces
// the old excluded-channels text log with something /status.json can
// query. A nil *Journal is valid and drops everything, so the pipeline
// never has to care whether journalling is available.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cycles (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	fetched     INTEGER NOT NULL,
	kept        INTEGER NOT NULL,
	dropped     INTEGER NOT NULL,
	err         TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS exclusions (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	at     INTEGER NOT NULL,
	name   TEXT NOT NULL,
	reason TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS resolutions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	at          INTEGER NOT NULL,
	channel_id  TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycles(started_at);
CREATE INDEX IF NOT EXISTS idx_exclusions_at ON exclusions(at);
CREATE INDEX IF NOT EXISTS idx_resolutions_at ON resolutions(at);
`

// Journal is a handle on the sqlite journal file.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal at path and ensures the schema.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// One connection: writers arrive from the refresh loop and request
	// handlers at once, and sqlite returns SQLITE_BUSY on a second one.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Cycle is one refresh loop pass.
type Cycle struct {
	StartedAt time.Time
	Took      time.Duration
	Fetched   int
	Kept      int
	Dropped   int
	Err       string
}

// RecordCycle stores one refresh cycle.
func (j *Journal) RecordCycle(c Cycle) error {
	if j == nil || j.db == nil {
		return nil
	}
	_, err := j.db.Exec(
		"INSERT INTO cycles (started_at, duration_ms, fetched, kept, dropped, err) VALUES (?, ?, ?, ?, ?, ?)",
		c.StartedAt.Unix(), c.Took.Milliseconds(), c.Fetched, c.Kept, c.Dropped, c.Err,
	)
	return err
}

// Exclusion is one channel dropped during compilation.
type Exclusion struct {
	Name   string
	Reason string
}

// RecordExclusions stores a batch of exclusions under one timestamp.
func (j *Journal) RecordExclusions(at time.Time, excl []Exclusion) error {
	if j == nil || j.db == nil || len(excl) == 0 {
		return nil
	}
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT INTO exclusions (at, name, reason) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	ts := at.Unix()
	for _, e := range excl {
		if _, err := stmt.Exec(ts, e.Name, e.Reason); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// RecordResolution stores one resolution outcome.
func (j *Journal) RecordResolution(channelID, outcome string, took time.Duration) error {
	if j == nil || j.db == nil {
		return nil
	}
	_, err := j.db.Exec(
		"INSERT INTO resolutions (at, channel_id, outcome, duration_ms) VALUES (?, ?, ?, ?)",
		time.Now().Unix(), channelID, outcome, took.Milliseconds(),
	)
	return err
}

// CycleRecord is a stored cycle as returned by Summary.
type CycleRecord struct {
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Fetched    int       `json:"fetched"`
	Kept       int       `json:"kept"`
	Dropped    int       `json:"dropped"`
	Err        string    `json:"error,omitempty"`
}

// Summary is the journal digest served by /status.json.
type Summary struct {
	Recent      []CycleRecord  `json:"recent_cycles"`
	Exclusions  map[string]int `json:"exclusions_by_reason"`
	Resolutions map[string]int `json:"resolutions_by_outcome"`
}

// Summarize returns the most recent cycles (capped at limit) and count
// breakdowns over everything still retained.
func (j *Journal) Summarize(ctx context.Context, limit int) (Summary, error) {
	sum := Summary{
		Exclusions:  map[string]int{},
		Resolutions: map[string]int{},
	}
	if j == nil || j.db == nil {
		return sum, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx,
		"SELECT started_at, duration_ms, fetched, kept, dropped, err FROM cycles ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return sum, err
	}
	defer rows.Close()
	for rows.Next() {
		var rec CycleRecord
		var ts int64
		if err := rows.Scan(&ts, &rec.DurationMS, &rec.Fetched, &rec.Kept, &rec.Dropped, &rec.Err); err != nil {
			return sum, err
		}
		rec.StartedAt = time.Unix(ts, 0).UTC()
		sum.Recent = append(sum.Recent, rec)
	}
	if err := rows.Err(); err != nil {
		return sum, err
	}

	if err := countBy(ctx, j.db, "SELECT reason, COUNT(*) FROM exclusions GROUP BY reason", sum.Exclusions); err != nil {
		return sum, err
	}
	if err := countBy(ctx, j.db, "SELECT outcome, COUNT(*) FROM resolutions GROUP BY outcome", sum.Resolutions); err != nil {
		return sum, err
	}
	return sum, nil
}

func countBy(ctx context.Context, db *sql.DB, query string, into map[string]int) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}

// Prune removes records older than the retention window.
func (j *Journal) Prune(olderThan time.Duration) error {
	if j == nil || j.db == nil {
		return nil
	}
	cutoff := time.Now().Add(-olderThan).Unix()
	for _, q := range []string{
		"DELETE FROM cycles WHERE started_at < ?",
		"DELETE FROM exclusions WHERE at < ?",
		"DELETE FROM resolutions WHERE at < ?",
	} {
		if _, err := j.db.Exec(q, cutoff); err != nil {
			return err
		}
	}
	return nil
}

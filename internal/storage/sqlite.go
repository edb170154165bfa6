package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database. The parent directory is
// created when missing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at INTEGER NOT NULL,
			root TEXT NOT NULL,
			dry_run INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS updates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			organization TEXT NOT NULL,
			artifact TEXT NOT NULL,
			from_version TEXT NOT NULL,
			to_version TEXT NOT NULL,
			file TEXT NOT NULL,
			start_offset INTEGER NOT NULL,
			end_offset INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_updates_run ON updates(run_id);`,
		`CREATE INDEX IF NOT EXISTS idx_updates_dep ON updates(organization, artifact);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun saves the run and its updates in one transaction.
func (s *SQLiteStore) RecordRun(ctx context.Context, run Run) (int64, error) {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, root, dry_run) VALUES (?, ?, ?)`,
		run.StartedAt.UnixMilli(), run.Root, boolToInt(run.DryRun))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO updates (run_id, organization, artifact, from_version, to_version, file, start_offset, end_offset)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, u := range run.Updates {
		if _, err := stmt.ExecContext(ctx, runID, u.Organization, u.Artifact, u.FromVersion, u.ToVersion, u.File, u.Start, u.End); err != nil {
			return 0, fmt.Errorf("failed to insert update for %s:%s: %w", u.Organization, u.Artifact, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// History returns up to limit updates from non-dry runs, newest first. A
// non-positive limit returns every update.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]UpdateRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.run_id, r.started_at, u.organization, u.artifact, u.from_version, u.to_version, u.file, u.start_offset, u.end_offset
		FROM updates u
		JOIN runs r ON r.id = u.run_id
		WHERE r.dry_run = 0
		ORDER BY r.id DESC, u.id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UpdateRecord
	for rows.Next() {
		var u UpdateRecord
		var startedAt int64
		if err := rows.Scan(&u.RunID, &startedAt, &u.Organization, &u.Artifact, &u.FromVersion, &u.ToVersion, &u.File, &u.Start, &u.End); err != nil {
			return nil, err
		}
		u.AppliedAt = time.UnixMilli(startedAt)
		out = append(out, u)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

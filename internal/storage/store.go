package storage

import (
	"context"
	"time"
)

// Store persists an audit trail of applied dependency updates.
type Store interface {
	HistoryStore
	Close() error
}

// HistoryStore records update runs. Nothing in a scan or update reads the
// history back; it exists for the user.
type HistoryStore interface {
	// RecordRun saves a run with its updates and returns the run ID.
	RecordRun(ctx context.Context, run Run) (int64, error)

	// History returns the most recent updates, newest first.
	History(ctx context.Context, limit int) ([]UpdateRecord, error)
}

// Run is one invocation of the update command.
type Run struct {
	ID        int64
	StartedAt time.Time
	Root      string
	DryRun    bool
	Updates   []UpdateRecord
}

// UpdateRecord is one version literal rewritten during a run.
type UpdateRecord struct {
	RunID        int64
	AppliedAt    time.Time
	Organization string
	Artifact     string
	FromVersion  string
	ToVersion    string
	File         string
	Start        int
	End          int
}

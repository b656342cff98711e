package storage

import (
	"context"

	"draft-strategy-lab/internal/domain"
)

// MatchStore provides access to the replay match feed.
type MatchStore interface {
	// Insert adds a new match. Returns ErrDuplicateKey if the match id exists.
	Insert(ctx context.Context, m *domain.Match) error

	// InsertBulk adds multiple matches atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, matches []*domain.Match) error

	// GetByID retrieves a match by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int) (*domain.Match, error)

	// GetAll retrieves every match ordered by (sequence ASC, id ASC).
	GetAll(ctx context.Context) ([]*domain.Match, error)
}

// SnapshotStore provides access to graph snapshots taken during replays.
type SnapshotStore interface {
	// Insert adds a new snapshot. Returns ErrDuplicateKey if snapshot_id exists.
	Insert(ctx context.Context, s *domain.GraphSnapshot) error

	// GetBySession retrieves snapshots of one session and mode, ordered by step ASC.
	GetBySession(ctx context.Context, sessionID string, mode domain.GraphMode) ([]*domain.GraphSnapshot, error)

	// GetLatest retrieves the highest-step snapshot of a session and mode.
	// Returns ErrNotFound if none exist.
	GetLatest(ctx context.Context, sessionID string, mode domain.GraphMode) (*domain.GraphSnapshot, error)
}

// SimulationRunStore provides access to persisted Monte Carlo runs.
type SimulationRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.SimulationRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.SimulationRun, error)

	// GetByKind retrieves all runs of a kind, ordered by (created_at ASC, run_id ASC).
	GetByKind(ctx context.Context, kind domain.SimulationKind) ([]*domain.SimulationRun, error)
}

// PreferenceStore is a small string key-value store for user preferences.
// Unlike the append-only stores, values are overwritten.
type PreferenceStore interface {
	// GetValue returns the value for a key. Returns ErrNotFound if unset.
	GetValue(ctx context.Context, key string) (string, error)

	// SetValue creates or replaces the value for a key.
	SetValue(ctx context.Context, key, value string) error
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
// Node and edge states are stored as JSONB.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const selectSnapshotSQL = `
	SELECT snapshot_id, session_id, mode, step, match_id, wins, nodes, edges, created_at
	FROM graph_snapshots
`

// Insert adds a new snapshot. Returns ErrDuplicateKey if snapshot_id exists.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.GraphSnapshot) error {
	if snap == nil || snap.SnapshotID == "" || !snap.Mode.IsValid() {
		return storage.ErrInvalidInput
	}

	nodes, err := json.Marshal(snap.Nodes)
	if err != nil {
		return fmt.Errorf("marshal nodes: %w", err)
	}
	edges, err := json.Marshal(snap.Edges)
	if err != nil {
		return fmt.Errorf("marshal edges: %w", err)
	}

	query := `
		INSERT INTO graph_snapshots (
			snapshot_id, session_id, mode, step, match_id, wins, nodes, edges, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.pool.Exec(ctx, query,
		snap.SnapshotID, snap.SessionID, string(snap.Mode), snap.Step, snap.MatchID, snap.Wins,
		nodes, edges, snap.CreatedAt,
	)
	return translate("insert graph snapshot", err)
}

// GetBySession retrieves snapshots of one session and mode, ordered by step ASC.
func (s *SnapshotStore) GetBySession(ctx context.Context, sessionID string, mode domain.GraphMode) ([]*domain.GraphSnapshot, error) {
	query := selectSnapshotSQL + `
		WHERE session_id = $1 AND mode = $2
		ORDER BY step ASC, snapshot_id ASC
	`
	rows, err := s.pool.Query(ctx, query, sessionID, string(mode))
	if err != nil {
		return nil, fmt.Errorf("get snapshots by session: %w", err)
	}
	defer rows.Close()

	var result []*domain.GraphSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return result, nil
}

// GetLatest retrieves the highest-step snapshot. Returns ErrNotFound if none exist.
func (s *SnapshotStore) GetLatest(ctx context.Context, sessionID string, mode domain.GraphMode) (*domain.GraphSnapshot, error) {
	query := selectSnapshotSQL + `
		WHERE session_id = $1 AND mode = $2
		ORDER BY step DESC, snapshot_id DESC
		LIMIT 1
	`
	snap, err := scanSnapshot(s.pool.QueryRow(ctx, query, sessionID, string(mode)))
	if err != nil {
		return nil, translate("get latest snapshot", err)
	}
	return snap, nil
}

func scanSnapshot(row pgx.Row) (*domain.GraphSnapshot, error) {
	var (
		snap         domain.GraphSnapshot
		mode         string
		nodes, edges []byte
	)
	err := row.Scan(
		&snap.SnapshotID, &snap.SessionID, &mode, &snap.Step, &snap.MatchID, &snap.Wins,
		&nodes, &edges, &snap.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	snap.Mode = domain.GraphMode(mode)
	if err := json.Unmarshal(nodes, &snap.Nodes); err != nil {
		return nil, fmt.Errorf("unmarshal nodes: %w", err)
	}
	if err := json.Unmarshal(edges, &snap.Edges); err != nil {
		return nil, fmt.Errorf("unmarshal edges: %w", err)
	}
	return &snap, nil
}

package clickhouse

import (
	"context"
	"fmt"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/storage"
)

// SimulationRunStore implements storage.SimulationRunStore using ClickHouse.
type SimulationRunStore struct {
	conn *Conn
}

// NewSimulationRunStore creates a new SimulationRunStore.
func NewSimulationRunStore(conn *Conn) *SimulationRunStore {
	return &SimulationRunStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SimulationRunStore = (*SimulationRunStore)(nil)

const selectRunSQL = `
	SELECT
		run_id, kind, params, trials, successes, success_rate,
		mean_duration, duration_stddev, volatility, label, created_at
	FROM simulation_runs FINAL
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
// ReplacingMergeTree would silently replace, so existence is checked first.
func (s *SimulationRunStore) Insert(ctx context.Context, r *domain.SimulationRun) error {
	if r == nil || r.RunID == "" || r.Trials < 0 || r.Successes < 0 {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, r.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO simulation_runs (
			run_id, kind, params, trials, successes, success_rate,
			mean_duration, duration_stddev, volatility, label, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	err = batch.Append(
		r.RunID, string(r.Kind), r.Params, uint32(r.Trials), uint32(r.Successes), r.SuccessRate,
		r.MeanDuration, r.DurationStddev, r.Volatility, r.Label, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("insert simulation run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *SimulationRunStore) GetByID(ctx context.Context, runID string) (*domain.SimulationRun, error) {
	runs, err := s.query(ctx, selectRunSQL+" WHERE run_id = ? LIMIT 1", runID)
	if err != nil {
		return nil, fmt.Errorf("get simulation run by id: %w", err)
	}
	if len(runs) == 0 {
		return nil, storage.ErrNotFound
	}
	return runs[0], nil
}

// GetByKind retrieves all runs of a kind, ordered by (created_at ASC, run_id ASC).
func (s *SimulationRunStore) GetByKind(ctx context.Context, kind domain.SimulationKind) ([]*domain.SimulationRun, error) {
	runs, err := s.query(ctx, selectRunSQL+" WHERE kind = ? ORDER BY created_at ASC, run_id ASC", string(kind))
	if err != nil {
		return nil, fmt.Errorf("get simulation runs by kind: %w", err)
	}
	return runs, nil
}

func (s *SimulationRunStore) exists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	row := s.conn.QueryRow(ctx, `SELECT count() FROM simulation_runs WHERE run_id = ?`, runID)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SimulationRunStore) query(ctx context.Context, query string, args ...any) ([]*domain.SimulationRun, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.SimulationRun
	for rows.Next() {
		var (
			r                 domain.SimulationRun
			kind              string
			trials, successes uint32
		)
		err := rows.Scan(
			&r.RunID, &kind, &r.Params, &trials, &successes, &r.SuccessRate,
			&r.MeanDuration, &r.DurationStddev, &r.Volatility, &r.Label, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan simulation run: %w", err)
		}
		r.Kind = domain.SimulationKind(kind)
		r.Trials = int(trials)
		r.Successes = int(successes)
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

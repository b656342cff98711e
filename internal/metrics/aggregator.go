package metrics

import (
	"context"
	"errors"
	"fmt"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/storage"
)

// ErrNoRuns is returned when no simulation runs are available for aggregation.
var ErrNoRuns = errors.New("no simulation runs available for aggregation")

// RunSummary aggregates persisted simulation runs of one kind.
type RunSummary struct {
	Kind        domain.SimulationKind
	Runs        int
	Trials      int
	Successes   int
	PooledRate  float64 // total successes / total trials
	SuccessRate Distribution
}

// Aggregator computes summaries over persisted simulation runs.
type Aggregator struct {
	runStore storage.SimulationRunStore
}

// NewAggregator creates a new run aggregator.
func NewAggregator(runStore storage.SimulationRunStore) *Aggregator {
	return &Aggregator{runStore: runStore}
}

// Summarize loads every run of the kind and aggregates their success rates.
// Returns ErrNoRuns if none exist.
func (a *Aggregator) Summarize(ctx context.Context, kind domain.SimulationKind) (*RunSummary, error) {
	runs, err := a.runStore.GetByKind(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load %s runs: %w", kind, err)
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return SummarizeRuns(kind, runs), nil
}

// SummarizeRuns aggregates already-loaded runs.
func SummarizeRuns(kind domain.SimulationKind, runs []*domain.SimulationRun) *RunSummary {
	s := &RunSummary{Kind: kind}
	rates := make([]float64, 0, len(runs))
	for _, r := range runs {
		if r.Kind != kind {
			continue
		}
		s.Runs++
		s.Trials += r.Trials
		s.Successes += r.Successes
		rates = append(rates, r.SuccessRate)
	}
	s.PooledRate = WinRate(s.Successes, s.Trials)
	s.SuccessRate = Summarize(rates)
	return s
}

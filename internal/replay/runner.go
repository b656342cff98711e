package replay

import (
	"context"
	"fmt"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/storage"
)

// Runner loads matches from storage and replays them in deterministic order.
type Runner struct {
	matchStore storage.MatchStore
}

// NewRunner creates a new replay runner.
func NewRunner(matchStore storage.MatchStore) *Runner {
	return &Runner{matchStore: matchStore}
}

// Load returns every stored match in (sequence, id) order.
func (r *Runner) Load(ctx context.Context) ([]*domain.Match, error) {
	matches, err := r.matchStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}
	SortMatches(matches)
	return matches, nil
}

// Run loads all matches and replays them through the engine without delay.
func (r *Runner) Run(ctx context.Context, mode domain.GraphMode, engine ReplayEngine) error {
	matches, err := r.Load(ctx)
	if err != nil {
		return err
	}
	return ReplayAll(ctx, mode, matches, engine)
}

// ReplayAll feeds matches through the engine in the given order.
func ReplayAll(ctx context.Context, mode domain.GraphMode, matches []*domain.Match, engine ReplayEngine) error {
	for i, m := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := &Step{Index: i, Total: len(matches), Mode: mode, Match: m}
		if err := engine.OnMatch(ctx, st); err != nil {
			return fmt.Errorf("replay match %d: %w", m.ID, err)
		}
	}
	return nil
}

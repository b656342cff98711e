package verification

import (
	"context"
	"errors"
	"fmt"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/graph"
	"draft-strategy-lab/internal/replay"
	"draft-strategy-lab/internal/storage"
)

var (
	// ErrNoSnapshots is returned when a session has no persisted snapshots.
	ErrNoSnapshots = errors.New("no snapshots stored for session")

	// ErrNoSnapshotStore is returned by VerifySession when the verifier has no snapshot store.
	ErrNoSnapshotStore = errors.New("snapshot store not configured")
)

// verifySession is the session id used for replays that are not persisted.
const verifySession = "verification"

// ReplayVerifier implements Verifier over a match store.
type ReplayVerifier struct {
	matchStore    storage.MatchStore
	snapshotStore storage.SnapshotStore // optional; required by VerifySession
	cfg           graph.Config
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	MatchStore    storage.MatchStore
	SnapshotStore storage.SnapshotStore
	GraphConfig   graph.Config
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	return &ReplayVerifier{
		matchStore:    opts.MatchStore,
		snapshotStore: opts.SnapshotStore,
		cfg:           opts.GraphConfig,
	}
}

// VerifyDeterminism replays the stored feed twice and compares every step.
func (v *ReplayVerifier) VerifyDeterminism(ctx context.Context, mode domain.GraphMode) (*VerificationReport, error) {
	matches, err := replay.NewRunner(v.matchStore).Load(ctx)
	if err != nil {
		return nil, err
	}

	first, err := v.replay(ctx, verifySession, mode, matches)
	if err != nil {
		return nil, err
	}
	second, err := v.replay(ctx, verifySession, mode, matches)
	if err != nil {
		return nil, err
	}

	report := v.compare(first, second)
	report.Mode = mode
	return report, nil
}

// VerifySession replays the stored feed and compares it with the snapshots
// persisted under sessionID.
func (v *ReplayVerifier) VerifySession(ctx context.Context, sessionID string, mode domain.GraphMode) (*VerificationReport, error) {
	if v.snapshotStore == nil {
		return nil, ErrNoSnapshotStore
	}
	stored, err := v.snapshotStore.GetBySession(ctx, sessionID, mode)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoSnapshots, sessionID, mode)
	}

	matches, err := replay.NewRunner(v.matchStore).Load(ctx)
	if err != nil {
		return nil, err
	}
	replayed, err := v.replay(ctx, sessionID, mode, matches)
	if err != nil {
		return nil, err
	}

	report := v.compare(stored, replayed)
	report.SessionID = sessionID
	report.Mode = mode
	return report, nil
}

// replay runs the feed through a fresh graph engine and collects the snapshot of every step.
func (v *ReplayVerifier) replay(ctx context.Context, sessionID string, mode domain.GraphMode, matches []*domain.Match) ([]*domain.GraphSnapshot, error) {
	snaps := make([]*domain.GraphSnapshot, 0, len(matches))
	engine := replay.NewGraphEngine(sessionID, mode, v.cfg, replay.WithObserver(func(ev replay.StepEvent) {
		snaps = append(snaps, ev.Snapshot)
	}))
	if err := replay.ReplayAll(ctx, mode, matches, engine); err != nil {
		return nil, err
	}
	return snaps, nil
}

// compare pairs expected and actual snapshots by position and checks the
// invariants of the actual sequence.
func (v *ReplayVerifier) compare(expected, actual []*domain.GraphSnapshot) *VerificationReport {
	total := len(expected)
	if len(actual) > total {
		total = len(actual)
	}
	report := &VerificationReport{
		TotalSteps: total,
		Results:    make([]StepResult, 0, total),
	}

	for i := 0; i < total; i++ {
		res := StepResult{Step: i + 1}
		switch {
		case i >= len(expected):
			res.MatchID = actual[i].MatchID
			res.Divergences = []FieldDivergence{{Field: "Snapshot", Expected: nil, Actual: actual[i].SnapshotID}}
		case i >= len(actual):
			res.MatchID = expected[i].MatchID
			res.Divergences = []FieldDivergence{{Field: "Snapshot", Expected: expected[i].SnapshotID, Actual: nil}}
		default:
			res.MatchID = expected[i].MatchID
			res.Divergences = CompareSnapshots(expected[i], actual[i])
		}
		res.Match = len(res.Divergences) == 0
		if res.Match {
			report.MatchedSteps++
		} else {
			report.DivergentSteps++
		}
		report.Results = append(report.Results, res)
	}

	var prev *domain.GraphSnapshot
	for _, snap := range actual {
		report.Violations = append(report.Violations, CheckInvariants(v.cfg, prev, snap)...)
		prev = snap
	}
	return report
}

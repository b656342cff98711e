package replay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/graph"
	"draft-strategy-lab/internal/idhash"
	"draft-strategy-lab/internal/observability"
	"draft-strategy-lab/internal/storage"
)

// StepEvent is published after every applied step.
type StepEvent struct {
	SessionID string                `json:"session_id"`
	Mode      domain.GraphMode      `json:"mode"`
	Index     int                   `json:"index"`
	Total     int                   `json:"total"`
	Result    graph.DepositResult   `json:"result"`
	Snapshot  *domain.GraphSnapshot `json:"snapshot"`
}

// Observer receives step events. It runs on the replay goroutine and must not block.
type Observer func(ev StepEvent)

// GraphEngine deposits each replayed match into a strategy graph.
// Reads from other goroutines go through View or Snapshot.
type GraphEngine struct {
	sessionID string
	mode      domain.GraphMode

	mu    sync.RWMutex
	graph *graph.StrategyGraph
	step  int
	last  int

	snapshots storage.SnapshotStore // optional
	observer  Observer              // optional
	logger    *log.Logger           // optional
	clock     func() time.Time
}

// GraphEngineOption configures a GraphEngine.
type GraphEngineOption func(*GraphEngine)

// WithSnapshotStore persists a snapshot after every step.
func WithSnapshotStore(s storage.SnapshotStore) GraphEngineOption {
	return func(e *GraphEngine) { e.snapshots = s }
}

// WithObserver registers a step callback.
func WithObserver(o Observer) GraphEngineOption {
	return func(e *GraphEngine) { e.observer = o }
}

// WithLogger enables per-step logging.
func WithLogger(l *log.Logger) GraphEngineOption {
	return func(e *GraphEngine) { e.logger = l }
}

// WithEngineClock sets the clock used for snapshot timestamps.
func WithEngineClock(clock func() time.Time) GraphEngineOption {
	return func(e *GraphEngine) { e.clock = clock }
}

// NewGraphEngine creates an engine over a fresh graph.
func NewGraphEngine(sessionID string, mode domain.GraphMode, cfg graph.Config, opts ...GraphEngineOption) *GraphEngine {
	e := &GraphEngine{
		sessionID: sessionID,
		mode:      mode,
		graph:     graph.New(cfg),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnMatch applies one step. Steps for another mode are rejected.
func (e *GraphEngine) OnMatch(ctx context.Context, st *Step) error {
	if st.Mode != e.mode {
		return fmt.Errorf("engine for %s received %s step", e.mode, st.Mode)
	}
	start := time.Now()

	e.mu.Lock()
	res := e.graph.Deposit(st.Match, e.mode)
	e.step++
	e.last = res.MatchID
	snap := e.graph.Snapshot(e.sessionID, e.mode, e.step, res.MatchID)
	e.mu.Unlock()

	snap.SnapshotID = idhash.ComputeSnapshotID(e.sessionID, e.mode, snap.Step, snap.MatchID)
	snap.CreatedAt = e.clock().UnixMilli()

	reasons := make([]string, len(res.Ignored))
	for i, ig := range res.Ignored {
		reasons[i] = ig.Reason
	}
	outcome := "loss"
	if res.Won {
		outcome = "win"
	}
	observability.RecordDeposit(string(e.mode), outcome, len(res.Applied), len(res.EdgesTouched), reasons, time.Since(start).Seconds())

	if e.logger != nil {
		e.logger.Printf("%s step %d/%d: match %d (%s) nodes=%d edges=%d ignored=%d",
			e.mode, st.Index+1, st.Total, res.MatchID, outcome, len(res.Applied), len(res.EdgesTouched), len(res.Ignored))
	}

	if e.snapshots != nil {
		dbStart := time.Now()
		err := e.snapshots.Insert(ctx, snap)
		observability.RecordDBQuery("snapshots", "insert", time.Since(dbStart).Seconds(), err)
		// A replay after Reset regenerates identical snapshots.
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("persist snapshot step %d: %w", snap.Step, err)
		}
	}

	if e.observer != nil {
		e.observer(StepEvent{
			SessionID: e.sessionID,
			Mode:      e.mode,
			Index:     st.Index,
			Total:     st.Total,
			Result:    res,
			Snapshot:  snap,
		})
	}
	return nil
}

// Reset clears the graph for a fresh replay.
func (e *GraphEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.graph.Reset()
	e.step = 0
	e.last = 0
}

// View runs fn with read access to the live graph. fn must not retain it.
func (e *GraphEngine) View(fn func(g *graph.StrategyGraph)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.graph)
}

// Graph returns an independent copy of the current graph.
func (e *GraphEngine) Graph() *graph.StrategyGraph {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.Clone()
}

// Snapshot captures the current graph state.
func (e *GraphEngine) Snapshot() *domain.GraphSnapshot {
	e.mu.RLock()
	snap := e.graph.Snapshot(e.sessionID, e.mode, e.step, e.last)
	e.mu.RUnlock()
	snap.SnapshotID = idhash.ComputeSnapshotID(e.sessionID, e.mode, snap.Step, snap.MatchID)
	snap.CreatedAt = e.clock().UnixMilli()
	return snap
}

// Mode returns the engine's graph mode.
func (e *GraphEngine) Mode() domain.GraphMode {
	return e.mode
}

// Package orchestrator provides the end-to-end analysis run.
// It coordinates: match replay → outcome sampling → rollout robustness → persisted runs.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"draft-strategy-lab/internal/datasource"
	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/graph"
	"draft-strategy-lab/internal/observability"
	"draft-strategy-lab/internal/replay"
	"draft-strategy-lab/internal/simulation"
	"draft-strategy-lab/internal/storage"
)

// Orchestrator coordinates the end-to-end pipeline execution.
type Orchestrator struct {
	// Stores
	matchStore    storage.MatchStore
	snapshotStore storage.SnapshotStore      // optional
	runStore      storage.SimulationRunStore // optional

	// Configs
	graphCfg   graph.Config
	samplerCfg simulation.SamplerConfig
	toggles    []domain.ScenarioToggle
	rolloutCfg simulation.RolloutConfig
	bundle     *datasource.Bundle

	// Options
	sessionID string
	clock     func() time.Time
	verbose   bool
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	MatchStore storage.MatchStore

	// Optional stores; nil skips persistence
	SnapshotStore storage.SnapshotStore
	RunStore      storage.SimulationRunStore

	// Model configs
	GraphConfig   graph.Config
	SamplerConfig simulation.SamplerConfig
	Toggles       []domain.ScenarioToggle // nil means domain.DefaultToggles
	RolloutConfig simulation.RolloutConfig

	// Bundle supplies the win transition graph; nil uses the embedded mock.
	Bundle *datasource.Bundle

	// Options
	SessionID string // snapshot session; derived from the clock when empty
	Clock     func() time.Time
	Verbose   bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		matchStore:    opts.MatchStore,
		snapshotStore: opts.SnapshotStore,
		runStore:      opts.RunStore,
		graphCfg:      opts.GraphConfig,
		samplerCfg:    opts.SamplerConfig,
		toggles:       opts.Toggles,
		rolloutCfg:    opts.RolloutConfig,
		bundle:        opts.Bundle,
		sessionID:     opts.SessionID,
		clock:         opts.Clock,
		verbose:       opts.Verbose,
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.toggles == nil {
		o.toggles = domain.DefaultToggles()
	}
	if o.bundle == nil {
		o.bundle = datasource.MockBundle()
	}
	return o
}

// ModeResult is the final state of one replayed graph.
type ModeResult struct {
	Mode        domain.GraphMode
	Snapshot    *domain.GraphSnapshot
	Totals      graph.Totals
	Conclusions graph.Conclusions
}

// ScenarioResult is one sampler run; the baseline has no active toggles.
type ScenarioResult struct {
	Toggles []string
	Result  *domain.SamplerResult
	RunID   string
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	SessionID     string
	GeneratedAt   time.Time
	Matches       int
	Modes         []ModeResult
	Scenarios     []ScenarioResult // baseline first, then one per toggle
	Robustness    *domain.RobustnessReport
	Lynchpins     []string
	Stalls        *simulation.StallReport
	Bundle        *datasource.Bundle
	RunsPersisted int
	Errors        []string
}

// Baseline returns the scenario without toggles.
func (r *RunResult) Baseline() *ScenarioResult {
	for i := range r.Scenarios {
		if len(r.Scenarios[i].Toggles) == 0 {
			return &r.Scenarios[i]
		}
	}
	return nil
}

// Mode returns the result for one graph mode.
func (r *RunResult) Mode(mode domain.GraphMode) *ModeResult {
	for i := range r.Modes {
		if r.Modes[i].Mode == mode {
			return &r.Modes[i]
		}
	}
	return nil
}

// Run executes the full pipeline.
// Phases:
//  1. Load matches
//  2. Replay the picks and bans graphs
//  3. Run the outcome sampler for the baseline and each toggle
//  4. Run the rollout robustness sweep on the win transition graph
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	now := o.clock()
	result := &RunResult{
		SessionID:   o.sessionID,
		GeneratedAt: now,
		Bundle:      o.bundle,
	}
	if result.SessionID == "" {
		result.SessionID = fmt.Sprintf("pipeline-%d", now.UnixMilli())
	}

	// Phase 1: Load all matches
	o.log("Phase 1: Loading matches...")
	start := time.Now()
	matches, err := replay.NewRunner(o.matchStore).Load(ctx)
	o.record("load", start, err)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load matches) failed: %w", err)
	}
	result.Matches = len(matches)
	o.log("  Found %d matches", len(matches))

	// Phase 2: Replay
	o.log("Phase 2: Replaying %d modes...", len(domain.Modes))
	start = time.Now()
	for _, mode := range domain.Modes {
		mr, err := o.replayMode(ctx, result.SessionID, mode, matches)
		if err != nil {
			o.record("replay", start, err)
			return nil, fmt.Errorf("phase 2 (replay %s) failed: %w", mode, err)
		}
		result.Modes = append(result.Modes, *mr)
		o.log("  %s: %d steps, node strength %.2f", mode, mr.Totals.Matches, mr.Totals.NodeStrength)
	}
	o.record("replay", start, nil)

	// Phase 3: Outcome sampler
	o.log("Phase 3: Sampling outcomes...")
	start = time.Now()
	scenarios, err := o.runSampler(ctx)
	o.record("sampler", start, err)
	if err != nil {
		return nil, fmt.Errorf("phase 3 (sampler) failed: %w", err)
	}
	result.Scenarios = scenarios
	o.log("  Ran %d scenarios", len(scenarios))

	// Phase 4: Rollout robustness
	o.log("Phase 4: Rollout robustness...")
	start = time.Now()
	err = o.runRollout(ctx, result)
	o.record("rollout", start, err)
	if err != nil {
		return nil, fmt.Errorf("phase 4 (rollout) failed: %w", err)
	}
	o.log("  Baseline success %.3f, lynchpins %v", result.Robustness.Baseline.SuccessRate, result.Lynchpins)

	// Phase 5: Persist runs
	if o.runStore != nil {
		o.log("Phase 5: Persisting runs...")
		start = time.Now()
		o.persistRuns(ctx, now.UnixMilli(), result)
		o.record("persist", start, nil)
		o.log("  Persisted %d runs (%d errors)", result.RunsPersisted, len(result.Errors))
	}

	o.log("Pipeline completed: %d matches, %d scenarios, %d denials",
		result.Matches, len(result.Scenarios), len(result.Robustness.Rows))

	return result, nil
}

// replayMode feeds every match through a fresh graph engine.
func (o *Orchestrator) replayMode(ctx context.Context, sessionID string, mode domain.GraphMode, matches []*domain.Match) (*ModeResult, error) {
	opts := []replay.GraphEngineOption{replay.WithEngineClock(o.clock)}
	if o.snapshotStore != nil {
		opts = append(opts, replay.WithSnapshotStore(o.snapshotStore))
	}
	engine := replay.NewGraphEngine(sessionID, mode, o.graphCfg, opts...)

	if err := replay.ReplayAll(ctx, mode, matches, engine); err != nil {
		observability.RecordReplayFinished(string(mode), "failed")
		return nil, err
	}
	observability.RecordReplayFinished(string(mode), "completed")

	mr := &ModeResult{Mode: mode, Snapshot: engine.Snapshot()}
	engine.View(func(g *graph.StrategyGraph) {
		mr.Totals = g.Totals()
		mr.Conclusions = g.Conclude(mode)
	})
	return mr, nil
}

// runSampler runs the baseline and one scenario per registered toggle.
func (o *Orchestrator) runSampler(ctx context.Context) ([]ScenarioResult, error) {
	sampler, err := simulation.NewSampler(o.samplerCfg, o.toggles)
	if err != nil {
		return nil, err
	}

	sets := [][]string{nil}
	for _, t := range sampler.Toggles() {
		sets = append(sets, []string{t.ID})
	}

	out := make([]ScenarioResult, 0, len(sets))
	for _, active := range sets {
		res, err := sampler.Run(ctx, active)
		if err != nil {
			return nil, fmt.Errorf("scenario %v: %w", active, err)
		}
		out = append(out, ScenarioResult{Toggles: res.ActiveToggles, Result: res})
	}
	return out, nil
}

// runRollout runs the robustness sweep and the stall analysis under the
// primary lynchpin, or the baseline when there is none.
func (o *Orchestrator) runRollout(ctx context.Context, result *RunResult) error {
	g, err := o.bundle.WinGraph.TransitionGraph()
	if err != nil {
		return err
	}
	walker, err := simulation.NewWalker(g, o.rolloutCfg)
	if err != nil {
		return err
	}

	report, err := walker.Robustness(ctx, simulation.DefaultDenySet)
	if err != nil {
		return err
	}
	result.Robustness = report
	result.Lynchpins = simulation.Lynchpins(report)

	var deny []string
	if len(result.Lynchpins) > 0 {
		deny = result.Lynchpins[:1]
	}
	stalls, err := walker.AnalyzeStalls(ctx, deny, 5)
	if err != nil {
		return err
	}
	result.Stalls = stalls
	return nil
}

// persistRuns stores the sampler runs and the rollout baseline.
// Duplicate runs are skipped; other failures are collected as errors.
func (o *Orchestrator) persistRuns(ctx context.Context, createdAt int64, result *RunResult) {
	insert := func(run *domain.SimulationRun) bool {
		dbStart := time.Now()
		err := o.runStore.Insert(ctx, run)
		observability.RecordDBQuery("simulation_runs", "insert", time.Since(dbStart).Seconds(), err)
		if err != nil {
			// Skip duplicate key errors (already persisted)
			if errors.Is(err, storage.ErrDuplicateKey) {
				return true
			}
			result.Errors = append(result.Errors, fmt.Sprintf("persist %s run %s: %v", run.Kind, run.Params, err))
			return false
		}
		result.RunsPersisted++
		return true
	}

	for i := range result.Scenarios {
		run := simulation.SamplerRun(result.Scenarios[i].Result, o.samplerCfg.Seed, createdAt)
		if insert(run) {
			result.Scenarios[i].RunID = run.RunID
		}
	}
	if result.Robustness != nil {
		insert(simulation.RolloutRun(result.Robustness.Baseline, o.rolloutCfg.Seed, createdAt))
	}
}

func (o *Orchestrator) record(phase string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.RecordPipelineRun(phase, status, time.Since(start).Seconds())
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}

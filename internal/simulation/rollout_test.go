package simulation

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draft-strategy-lab/internal/domain"
)

// forkGraph: S splits evenly between M (which always converts to T) and X
// (which only loops on itself and stalls).
func forkGraph(t *testing.T) *TransitionGraph {
	t.Helper()
	g, err := NewTransitionGraph([]string{"S", "M", "X", "T"}, map[string]map[string]float64{
		"S": {"M": 0.5, "X": 0.5},
		"M": {"T": 1},
		"X": {"X": 1},
	})
	require.NoError(t, err)
	return g
}

func testRolloutConfig() RolloutConfig {
	return RolloutConfig{
		Runs:        2000,
		MaxSteps:    12,
		Seed:        7,
		Starters:    []string{"S"},
		Targets:     []string{"T"},
		StallVisits: 2,
		TopPaths:    5,
	}
}

func newWalker(t *testing.T, g *TransitionGraph, cfg RolloutConfig) *Walker {
	t.Helper()
	w, err := NewWalker(g, cfg)
	require.NoError(t, err)
	return w
}

func TestNewTransitionGraph_DropsInvalidWeights(t *testing.T) {
	g, err := NewTransitionGraph([]string{"A", "B", "", "A"}, map[string]map[string]float64{
		"A":     {"B": 0.4, "Z": 0.6, "A": -1},
		"GHOST": {"A": 1},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, g.Nodes())
	assert.Equal(t, 0.4, g.Weight("A", "B"))
	assert.Equal(t, 0.0, g.Weight("A", "Z"))
	assert.Equal(t, 0.0, g.Weight("A", "A"))
	assert.False(t, g.Has("GHOST"))

	_, err = NewTransitionGraph(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidGraph)
}

func TestWalk_ReachesTarget(t *testing.T) {
	g, err := NewTransitionGraph([]string{"S", "T"}, map[string]map[string]float64{"S": {"T": 1}})
	require.NoError(t, err)
	w := newWalker(t, g, testRolloutConfig())

	o := w.Walk(rand.New(rand.NewSource(1)), DenialState{})
	assert.True(t, o.Success)
	assert.Equal(t, ReasonReachedTarget, o.Reason)
	assert.Equal(t, []string{"S", "T"}, o.Path)
}

func TestWalk_TempoStall(t *testing.T) {
	g, err := NewTransitionGraph([]string{"A", "B", "T"}, map[string]map[string]float64{
		"A": {"B": 1},
		"B": {"A": 1},
	})
	require.NoError(t, err)
	cfg := testRolloutConfig()
	cfg.Starters = []string{"A"}
	w := newWalker(t, g, cfg)

	o := w.Walk(rand.New(rand.NewSource(1)), DenialState{})
	assert.False(t, o.Success)
	assert.Equal(t, ReasonTempoStall, o.Reason)
	assert.Equal(t, "A", o.StallNode)
	assert.Equal(t, []string{"A", "B", "A", "B", "A"}, o.Path)
}

func TestWalk_MaxSteps(t *testing.T) {
	g, err := NewTransitionGraph([]string{"A", "B", "T"}, map[string]map[string]float64{
		"A": {"B": 1},
		"B": {"A": 1},
	})
	require.NoError(t, err)
	cfg := testRolloutConfig()
	cfg.Starters = []string{"A"}
	cfg.MaxSteps = 3
	cfg.StallVisits = 100
	w := newWalker(t, g, cfg)

	o := w.Walk(rand.New(rand.NewSource(1)), DenialState{})
	assert.Equal(t, ReasonMaxSteps, o.Reason)
	assert.Len(t, o.Path, 4)
}

func TestWalk_NoValidStarters(t *testing.T) {
	w := newWalker(t, forkGraph(t), testRolloutConfig())

	o := w.Walk(rand.New(rand.NewSource(1)), Deny("S"))
	assert.Equal(t, ReasonNoValidStarters, o.Reason)
	assert.Empty(t, o.Path)
}

func TestDistribution_ConversionPressure(t *testing.T) {
	g, err := NewTransitionGraph([]string{"S", "M", "T"}, map[string]map[string]float64{
		"S": {"M": 0.5, "T": 0.5},
	})
	require.NoError(t, err)
	cfg := testRolloutConfig()
	cfg.ConversionFromStep = 4
	cfg.ConversionBoost = map[string]float64{"T": 3}
	w := newWalker(t, g, cfg)

	early := w.distribution("S", DenialState{}, 3)
	assert.InDelta(t, 0.5, early[2], 1e-12)

	late := w.distribution("S", DenialState{}, 4)
	assert.InDelta(t, 0.25, late[1], 1e-12)
	assert.InDelta(t, 0.75, late[2], 1e-12)
}

func TestDistribution_EmptyRowIsUniformOverLiveNodes(t *testing.T) {
	g, err := NewTransitionGraph([]string{"S", "M", "T"}, nil)
	require.NoError(t, err)
	w := newWalker(t, g, testRolloutConfig())

	dist := w.distribution("S", Deny("M"), 0)
	assert.InDeltaSlice(t, []float64{0.5, 0, 0.5}, dist, 1e-12)
}

func TestRun_ForkGraph(t *testing.T) {
	w := newWalker(t, forkGraph(t), testRolloutConfig())

	sum, err := w.Run(context.Background(), DenialState{})
	require.NoError(t, err)

	assert.Equal(t, 2000, sum.Runs)
	assert.InDelta(t, 0.5, sum.SuccessRate, 0.05)
	assert.Equal(t, sum.Successes, sum.FailureReasons[ReasonReachedTarget])
	assert.Equal(t, sum.Runs-sum.Successes, sum.FailureReasons[ReasonTempoStall])
	assert.Equal(t, sum.Runs-sum.Successes, sum.StallNodes["X"])
	require.Len(t, sum.TopSuccessPaths, 1)
	assert.Equal(t, "S -> M -> T", sum.TopSuccessPaths[0].Path)
	assert.Empty(t, sum.Denied)
}

func TestRun_DampActsLikeSoftDenial(t *testing.T) {
	w := newWalker(t, forkGraph(t), testRolloutConfig())

	sum, err := w.Run(context.Background(), DenialState{Damp: map[string]float64{"X": 0}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, sum.SuccessRate)
	assert.Equal(t, map[string]float64{"X": 0}, sum.Damp)
}

func TestRun_Deterministic(t *testing.T) {
	w := newWalker(t, forkGraph(t), testRolloutConfig())
	ctx := context.Background()

	a, err := w.Run(ctx, DenialState{})
	require.NoError(t, err)
	b, err := w.Run(ctx, DenialState{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRun_Cancelled(t *testing.T) {
	w := newWalker(t, forkGraph(t), testRolloutConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Run(ctx, DenialState{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRobustness_RanksMostDamagingFirst(t *testing.T) {
	w := newWalker(t, forkGraph(t), testRolloutConfig())

	rep, err := w.Robustness(context.Background(), []string{"X", "M"})
	require.NoError(t, err)
	require.NotNil(t, rep.Baseline)
	require.Len(t, rep.Rows, 2)

	assert.Equal(t, "M", rep.Rows[0].Deny)
	assert.Equal(t, 0.0, rep.Rows[0].SuccessRate)
	assert.Equal(t, 0.0, rep.Rows[0].Robustness)
	require.NotEmpty(t, rep.Rows[0].TopFailures)
	assert.Equal(t, ReasonTempoStall, rep.Rows[0].TopFailures[0].Path)

	assert.Equal(t, "X", rep.Rows[1].Deny)
	assert.Equal(t, 1.0, rep.Rows[1].SuccessRate)
	assert.InDelta(t, 1/rep.Baseline.SuccessRate, rep.Rows[1].Robustness, 1e-12)

	assert.Equal(t, []string{"M"}, Lynchpins(rep))
}

func TestAnalyzeStalls(t *testing.T) {
	w := newWalker(t, forkGraph(t), testRolloutConfig())

	rep, err := w.AnalyzeStalls(context.Background(), nil, 5)
	require.NoError(t, err)
	require.Len(t, rep.Nodes, 1)
	assert.Equal(t, "X", rep.Nodes[0].Node)
	assert.Equal(t, 1.0, rep.Nodes[0].Share)
	assert.Equal(t, rep.TotalStalls, rep.Nodes[0].Count)

	rep, err = w.AnalyzeStalls(context.Background(), []string{"M"}, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"M"}, rep.Denied)
	assert.Equal(t, 0.0, rep.SuccessRate)
	assert.Equal(t, 2000, rep.TotalStalls)
}

func TestCompressPath(t *testing.T) {
	assert.Equal(t, "", CompressPath(nil))
	assert.Equal(t, "A -> B -> A", CompressPath([]string{"A", "A", "B", "A", "A"}))
}

func TestRolloutRun_Conversion(t *testing.T) {
	w := newWalker(t, forkGraph(t), testRolloutConfig())
	sum, err := w.Run(context.Background(), Deny("X"))
	require.NoError(t, err)

	run := RolloutRun(sum, 7, 1700000000000)
	assert.Equal(t, domain.SimulationRollout, run.Kind)
	assert.Equal(t, "runs=2000;max_steps=12;deny=X", run.Params)
	assert.Equal(t, 2000, run.Successes)
	assert.InDelta(t, 3.0, run.MeanDuration, 1e-12)
}

func TestRolloutConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultRolloutConfig().Validate())

	cfg := DefaultRolloutConfig()
	cfg.Runs = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidTrials)

	cfg = DefaultRolloutConfig()
	cfg.Targets = nil
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	_, err := NewWalker(nil, DefaultRolloutConfig())
	assert.ErrorIs(t, err, ErrInvalidGraph)
}

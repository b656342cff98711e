package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/observability"
)

// Rollout outcome reasons.
const (
	ReasonReachedTarget   = "reached_target"
	ReasonTempoStall      = "tempo_stall"
	ReasonMaxSteps        = "max_steps"
	ReasonNoValidStarters = "no_valid_starters"
)

// Flow states of the default transition graph.
const (
	FlowMidTempo          = "MID_TEMPO"
	FlowTopPressure       = "TOP_PRESSURE"
	FlowBotPressure       = "BOT_PRESSURE"
	FlowRiverControl      = "RIVER_CONTROL"
	FlowPickOriented      = "PICK_ORIENTED"
	FlowTeamfightCommit   = "TEAMFIGHT_COMMIT"
	FlowObjectiveStacking = "OBJECTIVE_STACKING"
)

// TransitionGraph is a row-stochastic walk graph over flow states.
// Rows are renormalised at sampling time, so weights need not sum to one.
type TransitionGraph struct {
	nodes []string
	index map[string]int
	out   map[string]map[string]float64
}

// NewTransitionGraph builds a graph over nodes. Weights to or from unknown
// nodes and non-positive weights are dropped.
func NewTransitionGraph(nodes []string, out map[string]map[string]float64) (*TransitionGraph, error) {
	g := &TransitionGraph{
		index: make(map[string]int, len(nodes)),
		out:   make(map[string]map[string]float64, len(nodes)),
	}
	for _, n := range nodes {
		if n == "" {
			continue
		}
		if _, dup := g.index[n]; dup {
			continue
		}
		g.index[n] = len(g.nodes)
		g.nodes = append(g.nodes, n)
	}
	if len(g.nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrInvalidGraph)
	}
	for from, row := range out {
		if _, ok := g.index[from]; !ok {
			continue
		}
		clean := make(map[string]float64, len(row))
		for to, w := range row {
			if _, ok := g.index[to]; ok && w > 0 {
				clean[to] = w
			}
		}
		g.out[from] = clean
	}
	return g, nil
}

// Nodes returns the node list in graph order.
func (g *TransitionGraph) Nodes() []string {
	return append([]string(nil), g.nodes...)
}

// Has reports whether n is a node of the graph.
func (g *TransitionGraph) Has(n string) bool {
	_, ok := g.index[n]
	return ok
}

// Weight returns the raw from->to weight.
func (g *TransitionGraph) Weight(from, to string) float64 {
	return g.out[from][to]
}

// DenialState disables nodes outright or damps them by a multiplier in [0,1].
type DenialState struct {
	Disabled map[string]bool
	Damp     map[string]float64
}

// Deny returns a state that hard-disables the given nodes.
func Deny(nodes ...string) DenialState {
	st := DenialState{Disabled: make(map[string]bool, len(nodes))}
	for _, n := range nodes {
		st.Disabled[n] = true
	}
	return st
}

func (st DenialState) disabledList() []string {
	out := make([]string, 0, len(st.Disabled))
	for n, off := range st.Disabled {
		if off {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// RolloutConfig holds graph-walk Monte Carlo settings.
type RolloutConfig struct {
	Runs     int      `yaml:"runs"`
	MaxSteps int      `yaml:"max_steps"`
	Seed     int64    `yaml:"seed"`
	Starters []string `yaml:"starters"`
	Targets  []string `yaml:"targets"`

	// From this step index onward, target rows are multiplied by ConversionBoost.
	ConversionFromStep int                `yaml:"conversion_from_step"`
	ConversionBoost    map[string]float64 `yaml:"conversion_boost"`

	// A walk stalls when any node is entered more than StallVisits times.
	StallVisits int `yaml:"stall_visits"`
	TopPaths    int `yaml:"top_paths"`
}

// DefaultRolloutConfig returns the stock rollout settings.
func DefaultRolloutConfig() RolloutConfig {
	return RolloutConfig{
		Runs:     20000,
		MaxSteps: 12,
		Seed:     7,
		Starters: []string{FlowBotPressure, FlowTopPressure, FlowPickOriented, FlowMidTempo},
		Targets:  []string{FlowTeamfightCommit, FlowObjectiveStacking},

		ConversionFromStep: 4,
		ConversionBoost: map[string]float64{
			FlowTeamfightCommit:   1.3,
			FlowObjectiveStacking: 1.2,
		},
		StallVisits: 2,
		TopPaths:    10,
	}
}

// Validate checks the rollout settings.
func (c RolloutConfig) Validate() error {
	if c.Runs <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTrials, c.Runs)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("%w: max steps must be positive", ErrInvalidConfig)
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("%w: no target nodes", ErrInvalidConfig)
	}
	if c.StallVisits <= 0 {
		return fmt.Errorf("%w: stall visits must be positive", ErrInvalidConfig)
	}
	return nil
}

// RolloutOutcome is the result of one walk.
type RolloutOutcome struct {
	Success   bool
	Reason    string
	StallNode string
	Path      []string
}

// Walker runs seeded walks over one transition graph.
type Walker struct {
	graph   *TransitionGraph
	cfg     RolloutConfig
	targets map[string]bool
}

// NewWalker creates a walker.
func NewWalker(g *TransitionGraph, cfg RolloutConfig) (*Walker, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrInvalidGraph)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	targets := make(map[string]bool, len(cfg.Targets))
	for _, t := range cfg.Targets {
		targets[t] = true
	}
	return &Walker{graph: g, cfg: cfg, targets: targets}, nil
}

// Walk performs one rollout.
func (w *Walker) Walk(rng *rand.Rand, st DenialState) RolloutOutcome {
	var starters []string
	for _, s := range w.cfg.Starters {
		if w.graph.Has(s) && !st.Disabled[s] {
			starters = append(starters, s)
		}
	}
	if len(starters) == 0 {
		return RolloutOutcome{Reason: ReasonNoValidStarters}
	}

	current := starters[rng.Intn(len(starters))]
	path := []string{current}
	visits := map[string]int{current: 1}

	for step := 0; step < w.cfg.MaxSteps; step++ {
		dist := w.distribution(current, st, step)
		next := sample(rng, w.graph.nodes, dist)
		path = append(path, next)

		if w.targets[next] {
			return RolloutOutcome{Success: true, Reason: ReasonReachedTarget, Path: path}
		}

		visits[next]++
		if visits[next] > w.cfg.StallVisits {
			return RolloutOutcome{Reason: ReasonTempoStall, StallNode: next, Path: path}
		}
		current = next
	}
	return RolloutOutcome{Reason: ReasonMaxSteps, Path: path}
}

// distribution returns the normalised next-node probabilities, indexed like graph.nodes.
func (w *Walker) distribution(from string, st DenialState, step int) []float64 {
	row := w.graph.out[from]
	dist := make([]float64, len(w.graph.nodes))
	for i, n := range w.graph.nodes {
		v := row[n]
		if st.Disabled[n] {
			v = 0
		}
		if m, ok := st.Damp[n]; ok {
			v *= clamp01(m)
		}
		dist[i] = v
	}
	w.normalize(dist, st)

	if step >= w.cfg.ConversionFromStep && len(w.cfg.ConversionBoost) > 0 {
		for i, n := range w.graph.nodes {
			if b, ok := w.cfg.ConversionBoost[n]; ok {
				dist[i] *= b
			}
		}
		w.normalize(dist, st)
	}
	return dist
}

// normalize scales dist to sum to one. An all-zero row becomes uniform over
// the nodes that are not disabled.
func (w *Walker) normalize(dist []float64, st DenialState) {
	sum := 0.0
	for _, v := range dist {
		sum += v
	}
	if sum > 0 {
		for i := range dist {
			dist[i] /= sum
		}
		return
	}

	live := 0
	for _, n := range w.graph.nodes {
		if !st.Disabled[n] {
			live++
		}
	}
	for i, n := range w.graph.nodes {
		switch {
		case live == 0:
			dist[i] = 1 / float64(len(dist))
		case st.Disabled[n]:
			dist[i] = 0
		default:
			dist[i] = 1 / float64(live)
		}
	}
}

func sample(rng *rand.Rand, nodes []string, dist []float64) string {
	r := rng.Float64()
	c := 0.0
	for i, p := range dist {
		c += p
		if r <= c {
			return nodes[i]
		}
	}
	// rounding fallback: last node with mass
	for i := len(dist) - 1; i >= 0; i-- {
		if dist[i] > 0 {
			return nodes[i]
		}
	}
	return nodes[0]
}

// CompressPath collapses consecutive repeats and joins with " -> ".
func CompressPath(path []string) string {
	out := make([]string, 0, len(path))
	for _, n := range path {
		if len(out) == 0 || out[len(out)-1] != n {
			out = append(out, n)
		}
	}
	return strings.Join(out, " -> ")
}

// Run performs cfg.Runs walks under the denial state and aggregates them.
func (w *Walker) Run(ctx context.Context, st DenialState) (*domain.RolloutSummary, error) {
	start := time.Now()
	rng := rand.New(rand.NewSource(w.cfg.Seed)) // #nosec G404 -- simulation only

	sum := &domain.RolloutSummary{
		Runs:           w.cfg.Runs,
		MaxSteps:       w.cfg.MaxSteps,
		Denied:         st.disabledList(),
		Damp:           copyDamp(st.Damp),
		FailureReasons: make(map[string]int),
		StallNodes:     make(map[string]int),
	}
	paths := make(map[string]int)
	totalLen := 0

	for i := 0; i < w.cfg.Runs; i++ {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		o := w.Walk(rng, st)
		sum.FailureReasons[o.Reason]++
		totalLen += len(o.Path)
		if o.Success {
			sum.Successes++
			paths[CompressPath(o.Path)]++
		}
		if o.Reason == ReasonTempoStall {
			sum.StallNodes[o.StallNode]++
		}
	}

	sum.SuccessRate = float64(sum.Successes) / float64(w.cfg.Runs)
	sum.MeanPathLength = float64(totalLen) / float64(w.cfg.Runs)
	sum.TopSuccessPaths = topCounts(paths, w.cfg.TopPaths)

	observability.RecordRolloutRun(sum.SuccessRate, time.Since(start).Seconds())
	return sum, nil
}

// topCounts returns the n largest counts, ties broken by key.
func topCounts(counts map[string]int, n int) []domain.PathCount {
	out := make([]domain.PathCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, domain.PathCount{Path: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Path < out[j].Path
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func copyDamp(m map[string]float64) map[string]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// RolloutParams renders the canonical parameter string of a rollout summary.
func RolloutParams(sum *domain.RolloutSummary) string {
	return fmt.Sprintf("runs=%d;max_steps=%d;deny=%s",
		sum.Runs, sum.MaxSteps, strings.Join(sum.Denied, ","))
}

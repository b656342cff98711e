package graph

import (
	"fmt"
	"math"

	"draft-strategy-lab/internal/domain"
)

// Ignore reasons reported by Deposit.
const (
	ReasonUnknownNode = "unknown_node"
	ReasonDuplicate   = "duplicate"
	ReasonEmptyLabel  = "empty_label"
)

// IgnoredLabel is a strategy label that produced no node deposit.
type IgnoredLabel struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// DepositResult describes what one match contributed to the graph.
type DepositResult struct {
	MatchID      int              `json:"match_id"`
	Mode         domain.GraphMode `json:"mode"`
	Won          bool             `json:"won"`
	NodeDeposit  float64          `json:"node_deposit"`
	EdgeDeposit  float64          `json:"edge_deposit"`
	Applied      []domain.NodeID  `json:"applied"`
	Ignored      []IgnoredLabel   `json:"ignored,omitempty"`
	EdgesTouched []domain.EdgeDef `json:"edges_touched,omitempty"`
}

// Totals summarises the accumulated evidence.
type Totals struct {
	Matches       int     `json:"matches"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	NodeStrength  float64 `json:"node_strength"`
	EdgePheromone float64 `json:"edge_pheromone"`
}

// StrategyGraph accumulates win/loss-weighted evidence on the fixed capability graph.
// Accumulators only grow; there is no evaporation.
// Not safe for concurrent use; callers serialise access.
type StrategyGraph struct {
	cfg   Config
	nodes map[domain.NodeID]*domain.NodeState
	edges []*domain.EdgeState

	matches int
	wins    int
}

// New creates a zeroed graph over the node catalog and static edges.
func New(cfg Config) *StrategyGraph {
	g := &StrategyGraph{cfg: cfg}
	g.Reset()
	return g
}

// Reset zeroes every accumulator.
func (g *StrategyGraph) Reset() {
	g.nodes = make(map[domain.NodeID]*domain.NodeState, len(domain.NodeCatalog))
	for _, info := range domain.NodeCatalog {
		g.nodes[info.ID] = &domain.NodeState{ID: info.ID}
	}
	g.edges = make([]*domain.EdgeState, len(domain.StaticEdges))
	for i, def := range domain.StaticEdges {
		g.edges[i] = &domain.EdgeState{From: def.From, To: def.To, Type: def.Type}
	}
	g.matches = 0
	g.wins = 0
}

// Config returns the deposit constants in use.
func (g *StrategyGraph) Config() Config {
	return g.cfg
}

// Deposit applies one match to the graph, reading picks or bans per mode.
// Unknown or repeated labels are skipped and reported, never an error.
func (g *StrategyGraph) Deposit(match *domain.Match, mode domain.GraphMode) DepositResult {
	res := DepositResult{Mode: mode}
	if match == nil {
		return res
	}
	res.MatchID = match.ID
	res.Won = match.Won

	mult := g.cfg.multiplier(match.Won)
	res.NodeDeposit = g.cfg.BaseNodeDeposit * mult
	res.EdgeDeposit = g.cfg.BaseEdgeDeposit * mult

	// Resolve labels first so edges only see distinct known nodes.
	seen := make(map[domain.NodeID]bool)
	var active []domain.NodeID
	for _, label := range match.Labels(mode) {
		if label == "" {
			res.Ignored = append(res.Ignored, IgnoredLabel{Label: label, Reason: ReasonEmptyLabel})
			continue
		}
		id, ok := domain.ParseNodeID(label)
		if !ok {
			res.Ignored = append(res.Ignored, IgnoredLabel{Label: label, Reason: ReasonUnknownNode})
			continue
		}
		if seen[id] {
			res.Ignored = append(res.Ignored, IgnoredLabel{Label: label, Reason: ReasonDuplicate})
			continue
		}
		seen[id] = true
		active = append(active, id)
	}

	for _, id := range active {
		n := g.nodes[id]
		n.Strength += res.NodeDeposit
		if match.Won {
			n.WinStrength += res.NodeDeposit
			n.WinCount++
		} else {
			n.LossStrength += res.NodeDeposit
			n.LossCount++
		}
		n.Confidence = g.cfg.stepConfidence(n.Confidence)
	}
	res.Applied = active

	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			e := g.findEdge(active[i], active[j])
			if e == nil {
				continue
			}
			e.Pheromone += res.EdgeDeposit
			if match.Won {
				e.WinPheromone += res.EdgeDeposit
			} else {
				e.LossPheromone += res.EdgeDeposit
			}
			e.Confidence = g.cfg.stepConfidence(e.Confidence)
			res.EdgesTouched = append(res.EdgesTouched, domain.EdgeDef{From: e.From, To: e.To, Type: e.Type})
		}
	}

	g.matches++
	if match.Won {
		g.wins++
	}
	return res
}

// findEdge returns the first static edge joining a and b in either direction.
func (g *StrategyGraph) findEdge(a, b domain.NodeID) *domain.EdgeState {
	for _, e := range g.edges {
		if (e.From == a && e.To == b) || (e.From == b && e.To == a) {
			return e
		}
	}
	return nil
}

// Degree counts edges touching the node that carry pheromone.
func (g *StrategyGraph) Degree(id domain.NodeID) int {
	degree := 0
	for _, e := range g.edges {
		if (e.From == id || e.To == id) && e.Pheromone > 0 {
			degree++
		}
	}
	return degree
}

// Fragility scores how much a node is both connected and outcome-skewed:
// degree × |winRate − 0.5| × strength. Zero for untouched or unknown nodes.
func (g *StrategyGraph) Fragility(id domain.NodeID) float64 {
	n, ok := g.nodes[id]
	if !ok || n.Strength == 0 {
		return 0
	}
	games := n.WinCount + n.LossCount
	if games == 0 {
		return 0
	}
	winRate := float64(n.WinCount) / float64(games)
	return float64(g.Degree(id)) * math.Abs(winRate-0.5) * n.Strength
}

// Node returns a copy of the node state, with fragility filled in.
func (g *StrategyGraph) Node(id domain.NodeID) (domain.NodeState, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return domain.NodeState{}, false
	}
	out := *n
	out.Fragility = g.Fragility(id)
	return out, true
}

// Nodes returns copies of all node states in catalog order.
func (g *StrategyGraph) Nodes() []domain.NodeState {
	out := make([]domain.NodeState, 0, len(domain.NodeCatalog))
	for _, info := range domain.NodeCatalog {
		n, _ := g.Node(info.ID)
		out = append(out, n)
	}
	return out
}

// Edges returns copies of all edge states in static order.
func (g *StrategyGraph) Edges() []domain.EdgeState {
	out := make([]domain.EdgeState, len(g.edges))
	for i, e := range g.edges {
		out[i] = *e
	}
	return out
}

// Edge returns the directed edge from -> to.
func (g *StrategyGraph) Edge(from, to domain.NodeID) (domain.EdgeState, bool) {
	for _, e := range g.edges {
		if e.From == from && e.To == to {
			return *e, true
		}
	}
	return domain.EdgeState{}, false
}

// Totals returns match tallies and summed accumulators.
func (g *StrategyGraph) Totals() Totals {
	t := Totals{Matches: g.matches, Wins: g.wins, Losses: g.matches - g.wins}
	for _, info := range domain.NodeCatalog {
		t.NodeStrength += g.nodes[info.ID].Strength
	}
	for _, e := range g.edges {
		t.EdgePheromone += e.Pheromone
	}
	return t
}

// Clone returns an independent deep copy.
func (g *StrategyGraph) Clone() *StrategyGraph {
	c := &StrategyGraph{
		cfg:     g.cfg,
		nodes:   make(map[domain.NodeID]*domain.NodeState, len(g.nodes)),
		edges:   make([]*domain.EdgeState, len(g.edges)),
		matches: g.matches,
		wins:    g.wins,
	}
	for id, n := range g.nodes {
		cp := *n
		c.nodes[id] = &cp
	}
	for i, e := range g.edges {
		cp := *e
		c.edges[i] = &cp
	}
	return c
}

// Snapshot captures the current state. SnapshotID and CreatedAt are left for the caller.
func (g *StrategyGraph) Snapshot(sessionID string, mode domain.GraphMode, step, matchID int) *domain.GraphSnapshot {
	return &domain.GraphSnapshot{
		SessionID: sessionID,
		Mode:      mode,
		Step:      step,
		MatchID:   matchID,
		Wins:      g.wins,
		Nodes:     g.Nodes(),
		Edges:     g.Edges(),
	}
}

// FromSnapshot rebuilds a graph from a snapshot.
// Snapshots referencing nodes or edges outside the static graph are rejected.
func FromSnapshot(cfg Config, snap *domain.GraphSnapshot) (*StrategyGraph, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	g := New(cfg)
	for _, ns := range snap.Nodes {
		n, ok := g.nodes[ns.ID]
		if !ok {
			return nil, fmt.Errorf("snapshot %s: unknown node %q", snap.SnapshotID, ns.ID)
		}
		*n = ns
		n.Fragility = 0
	}
	for _, es := range snap.Edges {
		var target *domain.EdgeState
		for _, e := range g.edges {
			if e.From == es.From && e.To == es.To {
				target = e
				break
			}
		}
		if target == nil {
			return nil, fmt.Errorf("snapshot %s: unknown edge %s->%s", snap.SnapshotID, es.From, es.To)
		}
		typ := target.Type
		*target = es
		target.Type = typ
	}
	g.matches = snap.Step
	g.wins = snap.Wins
	return g, nil
}

// Apply is the pure form of Deposit: it returns a new graph and leaves state untouched.
func Apply(state *StrategyGraph, match *domain.Match, mode domain.GraphMode) (*StrategyGraph, DepositResult) {
	next := state.Clone()
	res := next.Deposit(match, mode)
	return next, res
}

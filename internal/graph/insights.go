package graph

import (
	"fmt"
	"math"
	"sort"

	"draft-strategy-lab/internal/domain"
)

// Verdict classifies a node by its win/loss strength balance.
type Verdict string

const (
	VerdictWorks   Verdict = "works"
	VerdictBait    Verdict = "bait"
	VerdictFragile Verdict = "fragile"
)

// Trend classifies an edge by its win/loss pheromone balance.
type Trend string

const (
	TrendNone    Trend = "none" // no pheromone yet
	TrendWinning Trend = "winning"
	TrendLosing  Trend = "losing"
	TrendMixed   Trend = "mixed"
)

const (
	verdictThreshold  = 0.05
	trendThreshold    = 0.1
	lynchpinThreshold = 0.5
	baitMinGames      = 3
	baitMaxWinRate    = 0.4
)

// NodeInsight is a ranked node with derived metrics.
type NodeInsight struct {
	ID        domain.NodeID `json:"id"`
	Label     string        `json:"label"`
	Strength  float64       `json:"strength"`
	WinRate   float64       `json:"win_rate"`
	Games     int           `json:"games"`
	Fragility float64       `json:"fragility"`
	Verdict   Verdict       `json:"verdict"`
}

// LynchpinInsight is the most fragile node.
type LynchpinInsight struct {
	NodeInsight
	Flagged bool `json:"flagged"` // fragility above the lynchpin threshold
}

// Conclusions bundles every derived insight for one graph.
type Conclusions struct {
	Mode     domain.GraphMode `json:"mode"`
	Primary  []NodeInsight    `json:"primary"`
	Lynchpin *LynchpinInsight `json:"lynchpin,omitempty"`
	Bait     *NodeInsight     `json:"bait,omitempty"`
	Coach    string           `json:"coach"`
}

// ClassifyNode returns the verdict for a win-minus-loss strength delta.
func ClassifyNode(delta float64) Verdict {
	switch {
	case delta > verdictThreshold:
		return VerdictWorks
	case delta < -verdictThreshold:
		return VerdictBait
	default:
		return VerdictFragile
	}
}

// EdgeTrend classifies an edge state.
func EdgeTrend(e domain.EdgeState) Trend {
	if e.Pheromone == 0 {
		return TrendNone
	}
	delta := e.WinPheromone - e.LossPheromone
	switch {
	case delta > trendThreshold:
		return TrendWinning
	case delta < -trendThreshold:
		return TrendLosing
	default:
		return TrendMixed
	}
}

func (g *StrategyGraph) insight(id domain.NodeID) NodeInsight {
	n := g.nodes[id]
	info, _ := domain.LookupNode(id)
	games := n.WinCount + n.LossCount
	var wr float64
	if games > 0 {
		wr = float64(n.WinCount) / float64(games)
	}
	return NodeInsight{
		ID:        id,
		Label:     info.Label,
		Strength:  n.Strength,
		WinRate:   wr,
		Games:     games,
		Fragility: g.Fragility(id),
		Verdict:   ClassifyNode(n.WinStrength - n.LossStrength),
	}
}

// PrimaryStrategies returns up to n nodes with positive strength, strongest first.
// Ties keep catalog order.
func (g *StrategyGraph) PrimaryStrategies(n int) []NodeInsight {
	var out []NodeInsight
	for _, info := range domain.NodeCatalog {
		if g.nodes[info.ID].Strength > 0 {
			out = append(out, g.insight(info.ID))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Strength > out[j].Strength
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Lynchpin returns the node with the highest positive fragility.
func (g *StrategyGraph) Lynchpin() (*LynchpinInsight, bool) {
	var best *NodeInsight
	for _, info := range domain.NodeCatalog {
		ni := g.insight(info.ID)
		if ni.Fragility <= 0 {
			continue
		}
		if best == nil || ni.Fragility > best.Fragility {
			cp := ni
			best = &cp
		}
	}
	if best == nil {
		return nil, false
	}
	return &LynchpinInsight{NodeInsight: *best, Flagged: best.Fragility > lynchpinThreshold}, true
}

// BaitStrategy returns the heavily used, mostly losing node with the largest
// loss-over-win strength.
func (g *StrategyGraph) BaitStrategy() (*NodeInsight, bool) {
	var best *NodeInsight
	bestDelta := math.Inf(-1)
	for _, info := range domain.NodeCatalog {
		n := g.nodes[info.ID]
		ni := g.insight(info.ID)
		if ni.Games < baitMinGames || ni.WinRate >= baitMaxWinRate {
			continue
		}
		delta := n.LossStrength - n.WinStrength
		if delta > bestDelta {
			cp := ni
			best = &cp
			bestDelta = delta
		}
	}
	return best, best != nil
}

// CoachInsight returns the coach-facing sentence for the graph, empty before any deposit.
func (g *StrategyGraph) CoachInsight(mode domain.GraphMode) string {
	primary := g.PrimaryStrategies(1)
	if len(primary) == 0 {
		return ""
	}
	top := primary[0].Label
	if mode.UsesDenied() {
		return fmt.Sprintf("Team fears %s strategies. They ban these when threatened. Force them into uncomfortable matchups by securing these early.", top)
	}
	if lp, ok := g.Lynchpin(); ok {
		return fmt.Sprintf("Team drafts %s, but composition depends on %s. Denying %s converts their comp into a low-impact draft.", top, lp.Label, lp.Label)
	}
	return fmt.Sprintf("Team consistently builds around %s. Target this strategy in bans or draft counter-engage tools.", top)
}

// Conclude computes the full conclusions panel for the graph.
func (g *StrategyGraph) Conclude(mode domain.GraphMode) Conclusions {
	c := Conclusions{
		Mode:    mode,
		Primary: g.PrimaryStrategies(3),
		Coach:   g.CoachInsight(mode),
	}
	if lp, ok := g.Lynchpin(); ok {
		c.Lynchpin = lp
	}
	if b, ok := g.BaitStrategy(); ok {
		c.Bait = b
	}
	return c
}

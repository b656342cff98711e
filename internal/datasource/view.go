package datasource

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"draft-strategy-lab/internal/metrics"
	"draft-strategy-lab/internal/simulation"
)

// ViewNodes is the fixed display order of flow states.
var ViewNodes = []string{
	simulation.FlowMidTempo,
	simulation.FlowTopPressure,
	simulation.FlowBotPressure,
	simulation.FlowRiverControl,
	simulation.FlowPickOriented,
	simulation.FlowTeamfightCommit,
	simulation.FlowObjectiveStacking,
}

// Edge types of the view.
const (
	EdgeWin  = "win"
	EdgeLoss = "loss"
)

// EdgeFilter selects which edges a view shows.
type EdgeFilter string

const (
	FilterCombined EdgeFilter = "combined"
	FilterWin      EdgeFilter = "win"
	FilterLoss     EdgeFilter = "loss"
)

// ParseEdgeFilter parses a filter name; empty means combined.
func ParseEdgeFilter(s string) (EdgeFilter, error) {
	switch EdgeFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterCombined:
		return FilterCombined, nil
	case FilterWin:
		return FilterWin, nil
	case FilterLoss:
		return FilterLoss, nil
	default:
		return "", fmt.Errorf("unknown edge filter %q", s)
	}
}

// ViewNode is a flow state with its derived importance.
type ViewNode struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Importance float64 `json:"importance"` // [0.2, 1]
	WinRate    float64 `json:"win_rate"`
}

// ViewEdge is a weighted win or loss transition.
type ViewEdge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
	Type   string  `json:"type"`
}

// StrategyView is the read model built from a bundle.
type StrategyView struct {
	Source         string              `json:"source"`
	FallbackReason string              `json:"fallback_reason,omitempty"`
	Nodes          []ViewNode          `json:"nodes"`
	Edges          []ViewEdge          `json:"edges"`
	Lynchpins      []string            `json:"lynchpins"`
	DenyResults    []DenyResult        `json:"deny_results"`
	BreakStrategy  map[string][]string `json:"break_strategy,omitempty"`
	BaselineRate   float64             `json:"baseline_rate"` // robustness baseline, else mc_baseline
	TopPath        string              `json:"top_path,omitempty"`
	Summary        string              `json:"summary,omitempty"`
	Ignored        []Ignored           `json:"ignored,omitempty"`
}

// BuildView maps a bundle into the strategy view.
func BuildView(b *Bundle) *StrategyView {
	v := &StrategyView{
		Source:         b.Source,
		FallbackReason: b.FallbackReason,
		BreakStrategy:  b.Report.BreakStrategy,
		BaselineRate:   b.Baseline.SuccessRate,
		Ignored:        b.Ignored,
	}

	lynch := make(map[string]LynchpinEntry, len(b.Report.Lynchpins))
	for _, l := range b.Report.Lynchpins {
		if _, seen := lynch[l.Node]; !seen {
			lynch[l.Node] = l
		}
	}
	for _, id := range ViewNodes {
		n := ViewNode{ID: id, Name: displayName(id), Importance: 0.5, WinRate: 0.5}
		if l, ok := lynch[id]; ok {
			n.Importance = math.Max(0.2, math.Min(1.0, (l.CondReach+0.1)*2))
			n.WinRate = 0.4
			if l.Impact > 0 {
				n.WinRate = 0.7
			}
		}
		v.Nodes = append(v.Nodes, n)
	}

	v.Edges = append(adjEdges(b.WinGraph.Adj, EdgeWin), adjEdges(b.LossGraph.Adj, EdgeLoss)...)

	v.DenyResults = append([]DenyResult(nil), b.Robustness.DenyResults...)
	sort.SliceStable(v.DenyResults, func(i, j int) bool {
		return v.DenyResults[i].Robustness < v.DenyResults[j].Robustness
	})
	for _, d := range v.DenyResults {
		if d.Robustness < simulation.LynchpinRobustness {
			v.Lynchpins = append(v.Lynchpins, d.Deny)
		}
	}

	if b.Robustness.Baseline != nil {
		v.BaselineRate = b.Robustness.Baseline.SuccessRate
	}
	if len(b.Baseline.TopSuccessPaths) > 0 {
		v.TopPath = b.Baseline.TopSuccessPaths[0].Path
	}
	v.Summary = coachSummary(v)
	return v
}

// adjEdges flattens an adjacency map in (from, to) order.
func adjEdges(adj map[string]map[string]float64, typ string) []ViewEdge {
	froms := make([]string, 0, len(adj))
	for from := range adj {
		froms = append(froms, from)
	}
	sort.Strings(froms)

	var out []ViewEdge
	for _, from := range froms {
		tos := make([]string, 0, len(adj[from]))
		for to := range adj[from] {
			tos = append(tos, to)
		}
		sort.Strings(tos)
		for _, to := range tos {
			out = append(out, ViewEdge{From: from, To: to, Weight: adj[from][to], Type: typ})
		}
	}
	return out
}

func displayName(id string) string {
	words := strings.Split(strings.ToLower(id), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func coachSummary(v *StrategyView) string {
	if v.TopPath == "" || len(v.DenyResults) == 0 {
		return ""
	}
	best := v.DenyResults[0]
	collapse := math.Round((1 - best.Robustness) * 100)
	return fmt.Sprintf("This team relies on %s. Denying %s collapses %.0f%% of win paths.",
		v.TopPath, best.Deny, collapse)
}

// FilterEdges returns the edges of the filter's type with weight >= minWeight.
func (v *StrategyView) FilterEdges(filter EdgeFilter, minWeight float64) []ViewEdge {
	var out []ViewEdge
	for _, e := range v.Edges {
		if e.Weight < minWeight {
			continue
		}
		if filter == FilterWin && e.Type != EdgeWin {
			continue
		}
		if filter == FilterLoss && e.Type != EdgeLoss {
			continue
		}
		out = append(out, e)
	}
	return out
}

// OutgoingEdges returns the edges leaving id, heaviest first.
func (v *StrategyView) OutgoingEdges(id string) []ViewEdge {
	var out []ViewEdge
	for _, e := range v.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}

// Lookup returns the precomputed success rate for a denial ("" or "none"
// means the baseline) with its confidence label.
func (v *StrategyView) Lookup(deny string) (float64, string, bool) {
	if deny == "" || deny == "none" {
		return v.BaselineRate, metrics.OutcomeLabel(v.BaselineRate), true
	}
	for _, d := range v.DenyResults {
		if d.Deny == deny {
			return d.SuccessRate, metrics.OutcomeLabel(d.SuccessRate), true
		}
	}
	return 0, "", false
}

// Collapse returns the share of win paths lost when denying d.
func Collapse(d DenyResult) float64 {
	return 1 - d.Robustness
}

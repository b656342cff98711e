package simulation

import (
	"context"
	"fmt"
	"sort"

	"draft-strategy-lab/internal/domain"
)

// DefaultDenySet is the flow states probed by the robustness sweep.
var DefaultDenySet = []string{
	FlowTeamfightCommit,
	FlowTopPressure,
	FlowRiverControl,
	FlowPickOriented,
	FlowBotPressure,
	FlowMidTempo,
	FlowObjectiveStacking,
}

// LynchpinRobustness is the robustness below which a denied node counts as a lynchpin.
const LynchpinRobustness = 0.9

// Robustness runs a baseline and one single-node denial per entry of deny,
// all with the same seed, and ranks denials from most to least damaging.
func (w *Walker) Robustness(ctx context.Context, deny []string) (*domain.RobustnessReport, error) {
	baseline, err := w.Run(ctx, DenialState{})
	if err != nil {
		return nil, fmt.Errorf("baseline rollout: %w", err)
	}

	rows := make([]domain.RobustnessRow, 0, len(deny))
	for _, node := range deny {
		res, err := w.Run(ctx, Deny(node))
		if err != nil {
			return nil, fmt.Errorf("deny %s rollout: %w", node, err)
		}
		robustness := 0.0
		if baseline.SuccessRate > 0 {
			robustness = res.SuccessRate / baseline.SuccessRate
		}
		rows = append(rows, domain.RobustnessRow{
			Deny:        node,
			SuccessRate: res.SuccessRate,
			Robustness:  robustness,
			TopFailures: topFailures(res.FailureReasons, 2),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Robustness != rows[j].Robustness {
			return rows[i].Robustness < rows[j].Robustness
		}
		return rows[i].Deny < rows[j].Deny
	})
	return &domain.RobustnessReport{Baseline: baseline, Rows: rows}, nil
}

// Lynchpins returns the denials whose robustness falls below LynchpinRobustness.
func Lynchpins(r *domain.RobustnessReport) []string {
	var out []string
	for _, row := range r.Rows {
		if row.Robustness < LynchpinRobustness {
			out = append(out, row.Deny)
		}
	}
	return out
}

func topFailures(reasons map[string]int, n int) []domain.PathCount {
	failures := make(map[string]int, len(reasons))
	for r, c := range reasons {
		if r != ReasonReachedTarget {
			failures[r] = c
		}
	}
	return topCounts(failures, n)
}

// StallShare is one node's share of tempo stalls.
type StallShare struct {
	Node  string
	Count int
	Share float64 // fraction of all stalls
}

// StallReport describes where walks stall under a denial.
type StallReport struct {
	Denied      []string
	SuccessRate float64
	TotalStalls int
	Nodes       []StallShare // most frequent first
}

// AnalyzeStalls runs the walk under the denial and ranks stall nodes.
func (w *Walker) AnalyzeStalls(ctx context.Context, deny []string, top int) (*StallReport, error) {
	sum, err := w.Run(ctx, Deny(deny...))
	if err != nil {
		return nil, err
	}

	rep := &StallReport{
		Denied:      sum.Denied,
		SuccessRate: sum.SuccessRate,
	}
	for _, c := range sum.StallNodes {
		rep.TotalStalls += c
	}
	for _, pc := range topCounts(sum.StallNodes, top) {
		share := 0.0
		if rep.TotalStalls > 0 {
			share = float64(pc.Count) / float64(rep.TotalStalls)
		}
		rep.Nodes = append(rep.Nodes, StallShare{Node: pc.Path, Count: pc.Count, Share: share})
	}
	return rep, nil
}

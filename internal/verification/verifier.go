// Package verification checks that strategy graph replays are reproducible.
// It compares persisted or repeated replays snapshot by snapshot and checks the
// accumulator invariants after every step.
package verification

import (
	"context"
	"fmt"
	"math"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/graph"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // e.g. "nodes[MID_TEMPO].strength"
	Expected interface{} // stored or first-replay value
	Actual   interface{} // replayed value
}

// Violation is a broken accumulator invariant at one step.
type Violation struct {
	Step    int
	Subject string // node id or "from->to"
	Rule    string
	Detail  string
}

// Invariant rules.
const (
	RuleStrengthSplit  = "strength_split"  // strength == win + loss
	RulePheromoneSplit = "pheromone_split" // pheromone == win + loss
	RuleMonotonic      = "monotonic"       // accumulators never decrease
	RuleConfidence     = "confidence_bounds"
	RuleStepOrder      = "step_order"
)

// StepResult is the comparison of one replay step.
type StepResult struct {
	Step        int
	MatchID     int
	Match       bool
	Divergences []FieldDivergence
}

// VerificationReport contains the results for one mode.
type VerificationReport struct {
	SessionID      string // empty for determinism checks
	Mode           domain.GraphMode
	TotalSteps     int
	MatchedSteps   int
	DivergentSteps int
	Results        []StepResult
	Violations     []Violation
}

// OK reports whether every step matched and no invariant was broken.
func (r *VerificationReport) OK() bool {
	return r.DivergentSteps == 0 && len(r.Violations) == 0
}

// Verifier verifies replays.
type Verifier interface {
	// VerifyDeterminism replays the feed twice from scratch and compares the runs.
	VerifyDeterminism(ctx context.Context, mode domain.GraphMode) (*VerificationReport, error)

	// VerifySession compares the persisted snapshots of a session with a fresh replay.
	VerifySession(ctx context.Context, sessionID string, mode domain.GraphMode) (*VerificationReport, error)
}

// CompareSnapshots compares two snapshots field by field. Identity and
// timestamp fields are not compared.
func CompareSnapshots(stored, replayed *domain.GraphSnapshot) []FieldDivergence {
	var divergences []FieldDivergence
	add := func(field string, expected, actual interface{}) {
		divergences = append(divergences, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}

	if stored.Mode != replayed.Mode {
		add("Mode", stored.Mode, replayed.Mode)
	}
	if stored.Step != replayed.Step {
		add("Step", stored.Step, replayed.Step)
	}
	if stored.MatchID != replayed.MatchID {
		add("MatchID", stored.MatchID, replayed.MatchID)
	}
	if stored.Wins != replayed.Wins {
		add("Wins", stored.Wins, replayed.Wins)
	}

	if len(stored.Nodes) != len(replayed.Nodes) {
		add("len(Nodes)", len(stored.Nodes), len(replayed.Nodes))
	} else {
		for i := range stored.Nodes {
			divergences = append(divergences, compareNode(stored.Nodes[i], replayed.Nodes[i])...)
		}
	}

	if len(stored.Edges) != len(replayed.Edges) {
		add("len(Edges)", len(stored.Edges), len(replayed.Edges))
	} else {
		for i := range stored.Edges {
			divergences = append(divergences, compareEdge(stored.Edges[i], replayed.Edges[i])...)
		}
	}

	return divergences
}

func compareNode(a, b domain.NodeState) []FieldDivergence {
	var out []FieldDivergence
	prefix := fmt.Sprintf("nodes[%s].", a.ID)
	if a.ID != b.ID {
		return append(out, FieldDivergence{Field: prefix + "id", Expected: a.ID, Actual: b.ID})
	}
	floats := []struct {
		name string
		a, b float64
	}{
		{"strength", a.Strength, b.Strength},
		{"win_strength", a.WinStrength, b.WinStrength},
		{"loss_strength", a.LossStrength, b.LossStrength},
		{"confidence", a.Confidence, b.Confidence},
		{"fragility", a.Fragility, b.Fragility},
	}
	for _, f := range floats {
		if !floatEquals(f.a, f.b) {
			out = append(out, FieldDivergence{Field: prefix + f.name, Expected: f.a, Actual: f.b})
		}
	}
	if a.WinCount != b.WinCount {
		out = append(out, FieldDivergence{Field: prefix + "win_count", Expected: a.WinCount, Actual: b.WinCount})
	}
	if a.LossCount != b.LossCount {
		out = append(out, FieldDivergence{Field: prefix + "loss_count", Expected: a.LossCount, Actual: b.LossCount})
	}
	return out
}

func compareEdge(a, b domain.EdgeState) []FieldDivergence {
	var out []FieldDivergence
	prefix := fmt.Sprintf("edges[%s->%s].", a.From, a.To)
	if a.From != b.From || a.To != b.To {
		return append(out, FieldDivergence{
			Field:    prefix + "endpoints",
			Expected: fmt.Sprintf("%s->%s", a.From, a.To),
			Actual:   fmt.Sprintf("%s->%s", b.From, b.To),
		})
	}
	if a.Type != b.Type {
		out = append(out, FieldDivergence{Field: prefix + "type", Expected: a.Type, Actual: b.Type})
	}
	floats := []struct {
		name string
		a, b float64
	}{
		{"pheromone", a.Pheromone, b.Pheromone},
		{"win_pheromone", a.WinPheromone, b.WinPheromone},
		{"loss_pheromone", a.LossPheromone, b.LossPheromone},
		{"confidence", a.Confidence, b.Confidence},
	}
	for _, f := range floats {
		if !floatEquals(f.a, f.b) {
			out = append(out, FieldDivergence{Field: prefix + f.name, Expected: f.a, Actual: f.b})
		}
	}
	return out
}

// CheckInvariants checks cur against the accumulator rules. prev is the
// snapshot of the previous step, or nil for the first step.
func CheckInvariants(cfg graph.Config, prev, cur *domain.GraphSnapshot) []Violation {
	var out []Violation
	violate := func(subject, rule, format string, args ...interface{}) {
		out = append(out, Violation{Step: cur.Step, Subject: subject, Rule: rule, Detail: fmt.Sprintf(format, args...)})
	}

	wantStep := 1
	if prev != nil {
		wantStep = prev.Step + 1
	}
	if cur.Step != wantStep {
		violate("snapshot", RuleStepOrder, "step %d follows %d", cur.Step, wantStep-1)
	}

	prevNodes := make(map[domain.NodeID]domain.NodeState)
	prevEdges := make(map[string]domain.EdgeState)
	if prev != nil {
		for _, n := range prev.Nodes {
			prevNodes[n.ID] = n
		}
		for _, e := range prev.Edges {
			prevEdges[string(e.From)+"->"+string(e.To)] = e
		}
		if cur.Wins < prev.Wins {
			violate("snapshot", RuleMonotonic, "wins fell from %d to %d", prev.Wins, cur.Wins)
		}
	}

	for _, n := range cur.Nodes {
		id := string(n.ID)
		if !floatEquals(n.Strength, n.WinStrength+n.LossStrength) {
			violate(id, RuleStrengthSplit, "strength %v != %v + %v", n.Strength, n.WinStrength, n.LossStrength)
		}
		if n.Confidence > cfg.MaxConfidence+FloatTolerance || n.Confidence < 0 {
			violate(id, RuleConfidence, "confidence %v outside [0, %v]", n.Confidence, cfg.MaxConfidence)
		}
		if p, ok := prevNodes[n.ID]; ok {
			if n.Strength < p.Strength-FloatTolerance || n.WinCount < p.WinCount || n.LossCount < p.LossCount {
				violate(id, RuleMonotonic, "strength %v -> %v", p.Strength, n.Strength)
			}
		}
	}

	for _, e := range cur.Edges {
		key := string(e.From) + "->" + string(e.To)
		if !floatEquals(e.Pheromone, e.WinPheromone+e.LossPheromone) {
			violate(key, RulePheromoneSplit, "pheromone %v != %v + %v", e.Pheromone, e.WinPheromone, e.LossPheromone)
		}
		if e.Confidence > cfg.MaxConfidence+FloatTolerance || e.Confidence < 0 {
			violate(key, RuleConfidence, "confidence %v outside [0, %v]", e.Confidence, cfg.MaxConfidence)
		}
		if p, ok := prevEdges[key]; ok && e.Pheromone < p.Pheromone-FloatTolerance {
			violate(key, RuleMonotonic, "pheromone %v -> %v", p.Pheromone, e.Pheromone)
		}
	}

	return out
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}

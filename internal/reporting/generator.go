package reporting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/graph"
	"draft-strategy-lab/internal/metrics"
	"draft-strategy-lab/internal/orchestrator"
	"draft-strategy-lab/internal/pipeline"
	"draft-strategy-lab/internal/simulation"
	"draft-strategy-lab/internal/storage"
)

// identityPaths is how many success paths define the team identity.
const identityPaths = 3

// Generator produces coach reports from a pipeline result.
type Generator struct {
	runStore  storage.SimulationRunStore // optional; history section
	prefStore storage.PreferenceStore    // optional; team names
	now       func() time.Time           // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. Either store may be nil.
func NewGenerator(runStore storage.SimulationRunStore, prefStore storage.PreferenceStore) *Generator {
	return &Generator{
		runStore:  runStore,
		prefStore: prefStore,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete coach report. quality may be nil.
func (g *Generator) Generate(ctx context.Context, res *orchestrator.RunResult, quality *pipeline.SufficiencyResult) (*Report, error) {
	if res == nil {
		return nil, errors.New("nil pipeline result")
	}

	teams, err := g.loadTeams(ctx)
	if err != nil {
		return nil, err
	}

	r := &Report{
		GeneratedAt: g.now(),
		SessionID:   res.SessionID,
		Teams:       teams,
		Matches:     res.Matches,
		DataQuality: dataQuality(quality),
		Graphs:      graphSections(res.Modes),
		Scenarios:   scenarioRows(res.Scenarios),
	}

	if b := res.Bundle; b != nil {
		r.DataSource = DataSourceSection{
			Source:         b.Source,
			FallbackReason: b.FallbackReason,
			IgnoredEntries: len(b.Ignored),
		}
	}

	if rob := res.Robustness; rob != nil {
		r.Identity = identity(rob.Baseline)
		r.Denials = denialRows(rob)
		r.Executive = executive(rob, r.Identity)
	}
	if st := res.Stalls; st != nil {
		r.Stalls = StallSection{
			Denied:      st.Denied,
			SuccessRate: st.SuccessRate,
			TotalStalls: st.TotalStalls,
		}
		for _, n := range st.Nodes {
			r.Stalls.Nodes = append(r.Stalls.Nodes, PathRow{Path: n.Node, Count: n.Count, Share: n.Share})
		}
	}

	history, err := g.history(ctx)
	if err != nil {
		return nil, err
	}
	r.History = history

	r.Recommendations = recommendations(r)
	r.GamePlan = gamePlan(r)
	return r, nil
}

func (g *Generator) loadTeams(ctx context.Context) (TeamsSection, error) {
	names := domain.DefaultTeamNames()
	if g.prefStore != nil {
		var err error
		names, err = storage.LoadTeamNames(ctx, g.prefStore)
		if err != nil {
			return TeamsSection{}, fmt.Errorf("load team names: %w", err)
		}
	}
	return TeamsSection{Home: names.Home, Opponent: names.Opponent}, nil
}

func (g *Generator) history(ctx context.Context) ([]HistoryRow, error) {
	if g.runStore == nil {
		return nil, nil
	}
	agg := metrics.NewAggregator(g.runStore)

	var rows []HistoryRow
	for _, kind := range []domain.SimulationKind{domain.SimulationSampler, domain.SimulationRollout} {
		sum, err := agg.Summarize(ctx, kind)
		if errors.Is(err, metrics.ErrNoRuns) {
			continue
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, HistoryRow{
			Kind:       string(kind),
			Runs:       sum.Runs,
			Trials:     sum.Trials,
			PooledRate: sum.PooledRate,
			P10:        sum.SuccessRate.P10,
			P90:        sum.SuccessRate.P90,
		})
	}
	return rows, nil
}

func dataQuality(q *pipeline.SufficiencyResult) DataQualitySection {
	if q == nil {
		return DataQualitySection{}
	}
	dq := DataQualitySection{
		IntegrityErrors: q.Errors,
		AllChecksPassed: q.AllPass,
	}
	for _, c := range q.Checks {
		dq.SufficiencyChecks = append(dq.SufficiencyChecks, SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		})
	}
	return dq
}

func graphSections(modes []orchestrator.ModeResult) []GraphSection {
	out := make([]GraphSection, 0, len(modes))
	for _, mr := range modes {
		sec := GraphSection{
			Mode:  string(mr.Mode),
			Steps: mr.Totals.Matches,
			Wins:  mr.Totals.Wins,
			Coach: mr.Conclusions.Coach,
		}
		if lp := mr.Conclusions.Lynchpin; lp != nil && lp.Flagged {
			sec.Lynchpin = lp.Label
		}
		if b := mr.Conclusions.Bait; b != nil {
			sec.Bait = b.Label
		}
		if mr.Snapshot != nil {
			for _, n := range mr.Snapshot.Nodes {
				sec.Nodes = append(sec.Nodes, nodeRow(mr.Mode, n))
			}
		}
		out = append(out, sec)
	}
	return out
}

func nodeRow(mode domain.GraphMode, n domain.NodeState) NodeRow {
	label := string(n.ID)
	if info, ok := domain.LookupNode(n.ID); ok {
		label = info.Label
	}
	games := n.WinCount + n.LossCount
	return NodeRow{
		Mode:         string(mode),
		NodeID:       string(n.ID),
		Label:        label,
		Strength:     n.Strength,
		WinStrength:  n.WinStrength,
		LossStrength: n.LossStrength,
		Games:        games,
		WinRate:      metrics.WinRate(n.WinCount, games),
		Confidence:   n.Confidence,
		Fragility:    n.Fragility,
		Verdict:      string(graph.ClassifyNode(n.WinStrength - n.LossStrength)),
	}
}

func scenarioRows(scenarios []orchestrator.ScenarioResult) []ScenarioRow {
	var base float64
	for _, sc := range scenarios {
		if len(sc.Toggles) == 0 {
			base = sc.Result.WinRate
			break
		}
	}

	out := make([]ScenarioRow, 0, len(scenarios))
	for _, sc := range scenarios {
		name := "baseline"
		if len(sc.Toggles) > 0 {
			name = strings.Join(sc.Toggles, "+")
		}
		out = append(out, ScenarioRow{
			Scenario:       name,
			WinRate:        sc.Result.WinRate,
			Delta:          sc.Result.WinRate - base,
			MeanDuration:   sc.Result.MeanDuration,
			DurationStddev: sc.Result.DurationStddev,
			Volatility:     string(sc.Result.Volatility),
			Label:          sc.Result.Label,
			RunID:          sc.RunID,
		})
	}
	return out
}

func identity(base *domain.RolloutSummary) []PathRow {
	if base == nil {
		return nil
	}
	var out []PathRow
	for i, pc := range base.TopSuccessPaths {
		if i == identityPaths {
			break
		}
		share := 0.0
		if base.Successes > 0 {
			share = float64(pc.Count) / float64(base.Successes)
		}
		out = append(out, PathRow{Path: pc.Path, Count: pc.Count, Share: share})
	}
	return out
}

func denialRows(rob *domain.RobustnessReport) []DenialRow {
	out := make([]DenialRow, 0, len(rob.Rows))
	for _, row := range rob.Rows {
		d := DenialRow{
			Deny:        row.Deny,
			SuccessRate: row.SuccessRate,
			Robustness:  row.Robustness,
			CollapsePct: collapsePct(row.Robustness),
			Lynchpin:    row.Robustness < simulation.LynchpinRobustness,
		}
		if len(row.TopFailures) > 0 {
			d.TopFailure = fmt.Sprintf("%s (%d)", row.TopFailures[0].Path, row.TopFailures[0].Count)
		}
		out = append(out, d)
	}
	return out
}

func executive(rob *domain.RobustnessReport, ident []PathRow) ExecutiveSummary {
	ex := ExecutiveSummary{}
	if rob.Baseline != nil {
		ex.BaselineRate = rob.Baseline.SuccessRate
	}
	if len(rob.Rows) == 0 || rob.Rows[0].Robustness >= simulation.LynchpinRobustness {
		ex.Summary = "No single denial drops success below 90% of baseline; this team has no structural lynchpin."
		return ex
	}

	top := rob.Rows[0]
	ex.Lynchpin = top.Deny
	ex.Robustness = top.Robustness
	ex.CollapsePct = collapsePct(top.Robustness)
	if len(ident) > 0 {
		ex.Summary = fmt.Sprintf("This team relies on %s. Denying %s collapses %.0f%% of win paths.",
			ident[0].Path, top.Deny, ex.CollapsePct)
	} else {
		ex.Summary = fmt.Sprintf("Denying %s collapses %.0f%% of win paths.", top.Deny, ex.CollapsePct)
	}
	return ex
}

func collapsePct(robustness float64) float64 {
	return math.Max(0, (1-robustness)*100)
}

func recommendations(r *Report) []string {
	var out []string
	ex := r.Executive
	if ex.Lynchpin != "" {
		out = append(out, fmt.Sprintf("Deny %s: their success rate falls from %.0f%% to %.0f%%.",
			ex.Lynchpin, ex.BaselineRate*100, ex.BaselineRate*ex.Robustness*100))
	}
	if len(r.Stalls.Nodes) > 0 && len(r.Stalls.Denied) > 0 {
		s := r.Stalls.Nodes[0]
		out = append(out, fmt.Sprintf("Bait them into %s cycles: %.0f%% of stalls end there under denial.", s.Path, s.Share*100))
	}
	if n := len(r.Denials); n > 1 && !r.Denials[n-1].Lynchpin {
		last := r.Denials[n-1]
		out = append(out, fmt.Sprintf("Do not over-invest in denying %s (robustness %.2f).", last.Deny, last.Robustness))
	}
	for _, g := range r.Graphs {
		if g.Bait != "" {
			out = append(out, fmt.Sprintf("In %s, %s loses more than it wins; let them have it.", g.Mode, g.Bait))
		}
	}
	var best *ScenarioRow
	for i := range r.Scenarios {
		sc := &r.Scenarios[i]
		if sc.Scenario != "baseline" && (best == nil || sc.Delta < best.Delta) {
			best = sc
		}
	}
	if best != nil && best.Delta < 0 {
		out = append(out, fmt.Sprintf("Scenario %s moves their win probability by %+.0f points.", best.Scenario, best.Delta*100))
	}
	return out
}

func gamePlan(r *Report) string {
	ex := r.Executive
	switch {
	case ex.Lynchpin != "" && len(r.Stalls.Nodes) > 0:
		return fmt.Sprintf("If we deny %s, their execution stalls in %s and they bleed out in unforced cycles.",
			ex.Lynchpin, r.Stalls.Nodes[0].Path)
	case ex.Lynchpin != "":
		return fmt.Sprintf("If we deny %s, %.0f%% of their win paths collapse.", ex.Lynchpin, ex.CollapsePct)
	default:
		return "No single denial breaks this team; play for fundamentals and contest every transition."
	}
}

package reporting

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/graph"
	"draft-strategy-lab/internal/orchestrator"
	"draft-strategy-lab/internal/pipeline"
	"draft-strategy-lab/internal/simulation"
	"draft-strategy-lab/internal/storage"
	"draft-strategy-lab/internal/storage/memory"
)

var fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func setupTestData(t *testing.T) (*orchestrator.RunResult, *pipeline.SufficiencyResult, *memory.SimulationRunStore) {
	t.Helper()
	ctx := context.Background()

	matchStore := memory.NewMatchStore()
	runStore := memory.NewSimulationRunStore()
	if err := pipeline.LoadFixtures(ctx, matchStore); err != nil {
		t.Fatalf("LoadFixtures failed: %v", err)
	}

	sampler := simulation.DefaultSamplerConfig()
	sampler.Trials = 2000
	rollout := simulation.DefaultRolloutConfig()
	rollout.Runs = 4000

	res, err := orchestrator.New(orchestrator.Options{
		MatchStore:    matchStore,
		RunStore:      runStore,
		GraphConfig:   graph.DefaultConfig(),
		SamplerConfig: sampler,
		RolloutConfig: rollout,
		SessionID:     "report-test",
		Clock:         func() time.Time { return fixedTime },
	}).Run(ctx)
	if err != nil {
		t.Fatalf("orchestrator Run failed: %v", err)
	}

	quality, err := pipeline.NewSufficiencyChecker(matchStore, graph.DefaultConfig()).Check(ctx)
	if err != nil {
		t.Fatalf("sufficiency Check failed: %v", err)
	}
	return res, quality, runStore
}

func TestGenerator_Generate(t *testing.T) {
	res, quality, runStore := setupTestData(t)

	prefs := memory.NewPreferenceStore()
	if err := storage.SaveTeamNames(context.Background(), prefs, domain.TeamNames{Home: "Fnatic", Opponent: "MAD Lions"}); err != nil {
		t.Fatalf("SaveTeamNames failed: %v", err)
	}

	report, err := NewGenerator(runStore, prefs).WithClock(func() time.Time { return fixedTime }).
		Generate(context.Background(), res, quality)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !report.GeneratedAt.Equal(fixedTime) {
		t.Errorf("Expected GeneratedAt %v, got %v", fixedTime, report.GeneratedAt)
	}
	if report.Teams.Home != "Fnatic" || report.Teams.Opponent != "MAD Lions" {
		t.Errorf("Expected saved team names, got %+v", report.Teams)
	}
	if report.Matches != 25 {
		t.Errorf("Expected 25 matches, got %d", report.Matches)
	}
	if !report.DataQuality.AllChecksPassed {
		t.Errorf("Expected fixtures to pass sufficiency checks: %+v", report.DataQuality)
	}
	if report.DataSource.Source != "mock" {
		t.Errorf("Expected mock flow data, got %q", report.DataSource.Source)
	}

	if len(report.Graphs) != 2 || report.Graphs[0].Mode != "picks" || report.Graphs[1].Mode != "bans" {
		t.Fatalf("Expected picks and bans sections, got %+v", report.Graphs)
	}
	if len(report.Graphs[0].Nodes) != len(domain.NodeCatalog) {
		t.Errorf("Expected %d node rows, got %d", len(domain.NodeCatalog), len(report.Graphs[0].Nodes))
	}
	if len(report.NodeRows()) != 2*len(domain.NodeCatalog) {
		t.Errorf("Expected node rows for both graphs, got %d", len(report.NodeRows()))
	}

	if len(report.Denials) != len(simulation.DefaultDenySet) {
		t.Errorf("Expected %d denial rows, got %d", len(simulation.DefaultDenySet), len(report.Denials))
	}
	if len(report.Identity) == 0 || len(report.Identity) > identityPaths {
		t.Errorf("Expected 1..%d identity paths, got %d", identityPaths, len(report.Identity))
	}

	if len(report.Scenarios) != 5 || report.Scenarios[0].Scenario != "baseline" || report.Scenarios[0].Delta != 0 {
		t.Errorf("Expected baseline scenario first with zero delta, got %+v", report.Scenarios)
	}
	for _, s := range report.Scenarios {
		if s.RunID == "" {
			t.Errorf("Scenario %s missing run id", s.Scenario)
		}
	}

	if len(report.History) != 2 {
		t.Errorf("Expected sampler and rollout history rows, got %+v", report.History)
	}
	if report.GamePlan == "" {
		t.Error("Expected a game plan")
	}
}

func TestGenerator_LynchpinNarrative(t *testing.T) {
	res, _, _ := setupTestData(t)
	report, err := NewGenerator(nil, nil).WithClock(func() time.Time { return fixedTime }).
		Generate(context.Background(), res, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if report.Teams.Home != domain.DefaultHomeTeam {
		t.Errorf("Expected default home team, got %q", report.Teams.Home)
	}
	if len(report.History) != 0 {
		t.Errorf("Expected no history without a run store, got %+v", report.History)
	}

	ex := report.Executive
	first := report.Denials[0]
	if first.Lynchpin {
		if ex.Lynchpin != first.Deny {
			t.Errorf("Expected lynchpin %s, got %s", first.Deny, ex.Lynchpin)
		}
		if !strings.Contains(ex.Summary, "Denying "+first.Deny) {
			t.Errorf("Summary should name the lynchpin: %q", ex.Summary)
		}
		if !strings.Contains(report.GamePlan, first.Deny) {
			t.Errorf("Game plan should name the lynchpin: %q", report.GamePlan)
		}
		if len(report.Stalls.Denied) != 1 || report.Stalls.Denied[0] != first.Deny {
			t.Errorf("Expected stall analysis under %s, got %v", first.Deny, report.Stalls.Denied)
		}
	} else if ex.Lynchpin != "" {
		t.Errorf("Expected no lynchpin, got %s", ex.Lynchpin)
	}
}

func TestGenerator_NilResult(t *testing.T) {
	if _, err := NewGenerator(nil, nil).Generate(context.Background(), nil, nil); err == nil {
		t.Error("Expected error for nil result")
	}
}

func TestExecutive_NoLynchpin(t *testing.T) {
	rob := &domain.RobustnessReport{
		Baseline: &domain.RolloutSummary{SuccessRate: 0.6},
		Rows: []domain.RobustnessRow{
			{Deny: "MID_TEMPO", SuccessRate: 0.57, Robustness: 0.95},
		},
	}
	ex := executive(rob, nil)
	if ex.Lynchpin != "" {
		t.Errorf("Expected no lynchpin above threshold, got %s", ex.Lynchpin)
	}
	if !strings.Contains(ex.Summary, "no structural lynchpin") {
		t.Errorf("Unexpected summary: %q", ex.Summary)
	}

	r := &Report{Executive: ex}
	if !strings.Contains(gamePlan(r), "No single denial") {
		t.Errorf("Unexpected game plan: %q", gamePlan(r))
	}
}

func TestExecutive_Lynchpin(t *testing.T) {
	rob := &domain.RobustnessReport{
		Baseline: &domain.RolloutSummary{SuccessRate: 0.78},
		Rows: []domain.RobustnessRow{
			{Deny: "TEAMFIGHT_COMMIT", SuccessRate: 0.3276, Robustness: 0.42},
			{Deny: "TOP_PRESSURE", SuccessRate: 0.81, Robustness: 1.04},
		},
	}
	ident := []PathRow{{Path: "MID_TEMPO -> TEAMFIGHT_COMMIT", Count: 10, Share: 0.5}}

	ex := executive(rob, ident)
	want := "This team relies on MID_TEMPO -> TEAMFIGHT_COMMIT. Denying TEAMFIGHT_COMMIT collapses 58% of win paths."
	if ex.Summary != want {
		t.Errorf("Expected %q, got %q", want, ex.Summary)
	}

	r := &Report{Executive: ex, Denials: denialRows(rob)}
	recs := recommendations(r)
	if len(recs) != 2 {
		t.Fatalf("Expected 2 recommendations, got %v", recs)
	}
	if !strings.HasPrefix(recs[0], "Deny TEAMFIGHT_COMMIT") {
		t.Errorf("Unexpected first recommendation: %q", recs[0])
	}
	if !strings.Contains(recs[1], "TOP_PRESSURE") {
		t.Errorf("Expected least damaging denial in second recommendation: %q", recs[1])
	}
}

func TestRenderMarkdown(t *testing.T) {
	res, quality, runStore := setupTestData(t)
	report, err := NewGenerator(runStore, nil).WithClock(func() time.Time { return fixedTime }).
		Generate(context.Background(), res, quality)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(report)
	sections := []string{
		"# Coach Report",
		"Generated: 2024-03-01T12:00:00Z",
		"## Executive Summary",
		"## Data Quality",
		"**All checks passed.**",
		"## Core Team Identity",
		"## Strategy Graph (picks)",
		"## Strategy Graph (bans)",
		"## Behavior Under Denial",
		"## Scenario Simulations",
		"### Simulation History",
		"## Recommended Counter-Strategy",
		"## Game Plan",
		"Flow data: mock",
	}
	for _, s := range sections {
		if !strings.Contains(md, s) {
			t.Errorf("Markdown missing %q", s)
		}
	}

	// Deterministic for a fixed clock
	if md != RenderMarkdown(report) {
		t.Error("RenderMarkdown is not deterministic")
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	md := RenderMarkdown(&Report{GeneratedAt: fixedTime})
	for _, s := range []string{
		"No data quality checks performed.",
		"No success paths available.",
		"No denial sweep available.",
		"No scenario simulations available.",
		"No recommendations.",
	} {
		if !strings.Contains(md, s) {
			t.Errorf("Markdown missing %q", s)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	rows := []NodeRow{
		{Mode: "picks", NodeID: "MID_TEMPO", Label: "Mid Tempo", Strength: 0.25, WinStrength: 0.15, LossStrength: 0.1, Games: 2, WinRate: 0.5, Confidence: 0.2, Fragility: 0, Verdict: "fragile"},
	}
	csv := RenderCSV(rows)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "mode,node_id,label,strength") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	want := "picks,MID_TEMPO,Mid Tempo,0.250000,0.150000,0.100000,2,0.500000,0.200000,0.000000,fragile"
	if lines[1] != want {
		t.Errorf("Expected %s, got %s", want, lines[1])
	}
}

func TestWriteXLSX(t *testing.T) {
	res, quality, _ := setupTestData(t)
	report, err := NewGenerator(nil, nil).WithClock(func() time.Time { return fixedTime }).
		Generate(context.Background(), res, quality)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteXLSX(report, &buf); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	for _, want := range []string{SheetSummary, SheetNodes, SheetDenials, SheetScenarios} {
		found := false
		for _, s := range sheets {
			if s == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Missing sheet %s in %v", want, sheets)
		}
	}

	home, err := f.GetCellValue(SheetSummary, "B2")
	if err != nil || home != domain.DefaultHomeTeam {
		t.Errorf("Expected home team in B2, got %q (%v)", home, err)
	}

	nodes, err := f.GetRows(SheetNodes)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(nodes) != 1+2*len(domain.NodeCatalog) {
		t.Errorf("Expected header + %d node rows, got %d", 2*len(domain.NodeCatalog), len(nodes))
	}
	if nodes[0][0] != "Mode" || nodes[1][1] != "MID_TEMPO" {
		t.Errorf("Unexpected node sheet start: %v / %v", nodes[0], nodes[1])
	}

	scenarios, err := f.GetRows(SheetScenarios)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(scenarios) != 6 || scenarios[1][0] != "baseline" {
		t.Errorf("Expected baseline first of 5 scenarios, got %v", scenarios)
	}
}

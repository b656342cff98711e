package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Coach Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("%s vs %s | Matches: %d | Session: %s\n\n", r.Teams.Home, r.Teams.Opponent, r.Matches, r.SessionID))

	// Executive Summary
	sb.WriteString("## Executive Summary\n\n")
	sb.WriteString(r.Executive.Summary + "\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Baseline Success | %.4f |\n", r.Executive.BaselineRate))
	if r.Executive.Lynchpin != "" {
		sb.WriteString(fmt.Sprintf("| Lynchpin | %s |\n", r.Executive.Lynchpin))
		sb.WriteString(fmt.Sprintf("| Robustness | %.4f |\n", r.Executive.Robustness))
		sb.WriteString(fmt.Sprintf("| Collapse | %.0f%% |\n", r.Executive.CollapsePct))
	}
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Treat the conclusions below as provisional.\n\n")
		}
	} else if len(r.DataQuality.IntegrityErrors) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	if len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range r.DataQuality.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	if r.DataSource.Source != "" {
		sb.WriteString(fmt.Sprintf("Flow data: %s", r.DataSource.Source))
		if r.DataSource.FallbackReason != "" {
			sb.WriteString(fmt.Sprintf(" (fallback: %s)", r.DataSource.FallbackReason))
		}
		if r.DataSource.IgnoredEntries > 0 {
			sb.WriteString(fmt.Sprintf(", %d entries ignored", r.DataSource.IgnoredEntries))
		}
		sb.WriteString("\n\n")
	}

	// Core Team Identity
	sb.WriteString("## Core Team Identity\n\n")
	if len(r.Identity) > 0 {
		sb.WriteString("| Path | Count | Share |\n")
		sb.WriteString("|------|-------|-------|\n")
		for _, p := range r.Identity {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.4f |\n", p.Path, p.Count, p.Share))
		}
	} else {
		sb.WriteString("No success paths available.\n")
	}
	sb.WriteString("\n")

	// Strategy Graphs
	for _, g := range r.Graphs {
		sb.WriteString(fmt.Sprintf("## Strategy Graph (%s)\n\n", g.Mode))
		sb.WriteString(fmt.Sprintf("Steps: %d | Wins: %d\n\n", g.Steps, g.Wins))
		if g.Coach != "" {
			sb.WriteString("> " + g.Coach + "\n\n")
		}
		sb.WriteString("| Node | Strength | Win | Loss | Games | WinRate | Confidence | Fragility | Verdict |\n")
		sb.WriteString("|------|----------|-----|------|-------|---------|------------|-----------|---------|\n")
		for _, n := range g.Nodes {
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.4f | %d | %.4f | %.2f | %.4f | %s |\n",
				n.Label, n.Strength, n.WinStrength, n.LossStrength, n.Games, n.WinRate,
				n.Confidence, n.Fragility, n.Verdict))
		}
		sb.WriteString("\n")
	}

	// Denials
	sb.WriteString("## Behavior Under Denial\n\n")
	if len(r.Denials) > 0 {
		sb.WriteString("| Deny | Success | Robustness | Collapse% | Top Failure | Lynchpin |\n")
		sb.WriteString("|------|---------|------------|-----------|-------------|----------|\n")
		for _, d := range r.Denials {
			lp := ""
			if d.Lynchpin {
				lp = "yes"
			}
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.1f | %s | %s |\n",
				d.Deny, d.SuccessRate, d.Robustness, d.CollapsePct, d.TopFailure, lp))
		}
	} else {
		sb.WriteString("No denial sweep available.\n")
	}
	sb.WriteString("\n")

	if len(r.Stalls.Nodes) > 0 {
		denied := "none"
		if len(r.Stalls.Denied) > 0 {
			denied = strings.Join(r.Stalls.Denied, ", ")
		}
		sb.WriteString(fmt.Sprintf("### Stall Pattern (denied: %s)\n\n", denied))
		sb.WriteString("| Node | Stalls | Share |\n")
		sb.WriteString("|------|--------|-------|\n")
		for _, s := range r.Stalls.Nodes {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.4f |\n", s.Path, s.Count, s.Share))
		}
		sb.WriteString("\n")
	}

	// Scenarios
	sb.WriteString("## Scenario Simulations\n\n")
	if len(r.Scenarios) > 0 {
		sb.WriteString("| Scenario | WinRate | Delta | Duration | Stddev | Volatility | Label |\n")
		sb.WriteString("|----------|---------|-------|----------|--------|------------|-------|\n")
		for _, s := range r.Scenarios {
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %+.4f | %.1f | %.2f | %s | %s |\n",
				s.Scenario, s.WinRate, s.Delta, s.MeanDuration, s.DurationStddev, s.Volatility, s.Label))
		}
	} else {
		sb.WriteString("No scenario simulations available.\n")
	}
	sb.WriteString("\n")

	if len(r.History) > 0 {
		sb.WriteString("### Simulation History\n\n")
		sb.WriteString("| Kind | Runs | Trials | Pooled | P10 | P90 |\n")
		sb.WriteString("|------|------|--------|--------|-----|-----|\n")
		for _, h := range r.History {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.4f | %.4f | %.4f |\n",
				h.Kind, h.Runs, h.Trials, h.PooledRate, h.P10, h.P90))
		}
		sb.WriteString("\n")
	}

	// Counter-strategy
	sb.WriteString("## Recommended Counter-Strategy\n\n")
	if len(r.Recommendations) > 0 {
		for _, rec := range r.Recommendations {
			sb.WriteString(fmt.Sprintf("- %s\n", rec))
		}
	} else {
		sb.WriteString("No recommendations.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Game Plan\n\n")
	sb.WriteString(r.GamePlan + "\n")

	return sb.String()
}

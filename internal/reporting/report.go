package reporting

import "time"

// Report is the coach-facing analysis report.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	SessionID   string
	Teams       TeamsSection
	Matches     int

	// Data Quality (sufficiency checks)
	DataQuality DataQualitySection

	// External analysis documents
	DataSource DataSourceSection

	// Executive summary and identity
	Executive ExecutiveSummary
	Identity  []PathRow // top success paths of the baseline rollout

	// Accumulated graphs, picks then bans
	Graphs []GraphSection

	// Denial sweep, most damaging first
	Denials []DenialRow

	// Failure pattern under the primary denial
	Stalls StallSection

	// Outcome sampler scenarios, baseline first
	Scenarios []ScenarioRow

	// Persisted simulation history, if a run store was available
	History []HistoryRow

	// Counter-strategy
	Recommendations []string
	GamePlan        string
}

// TeamsSection names the analysed team and the opponent.
type TeamsSection struct {
	Home     string
	Opponent string
}

// DataQualitySection contains data sufficiency checks and integrity errors.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	IntegrityErrors   []string
	AllChecksPassed   bool
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DataSourceSection describes where the flow documents came from.
type DataSourceSection struct {
	Source         string
	FallbackReason string
	IgnoredEntries int
}

// ExecutiveSummary is the headline finding.
type ExecutiveSummary struct {
	Lynchpin     string  // most damaging denial; empty when none drops below the threshold
	Robustness   float64 // success under that denial / baseline
	CollapsePct  float64 // (1 - robustness) * 100
	BaselineRate float64 // rollout baseline success rate
	Summary      string
}

// PathRow is a compressed success path with its share of successes.
type PathRow struct {
	Path  string
	Count int
	Share float64
}

// GraphSection summarises one replayed graph.
type GraphSection struct {
	Mode     string
	Steps    int
	Wins     int
	Coach    string
	Lynchpin string
	Bait     string
	Nodes    []NodeRow
}

// NodeRow represents one node in a graph table.
type NodeRow struct {
	Mode         string
	NodeID       string
	Label        string
	Strength     float64
	WinStrength  float64
	LossStrength float64
	Games        int
	WinRate      float64
	Confidence   float64
	Fragility    float64
	Verdict      string
}

// DenialRow is the effect of denying one flow state.
type DenialRow struct {
	Deny        string
	SuccessRate float64
	Robustness  float64
	CollapsePct float64
	TopFailure  string
	Lynchpin    bool
}

// StallSection lists where walks stall under a denial.
type StallSection struct {
	Denied      []string
	SuccessRate float64
	TotalStalls int
	Nodes       []PathRow
}

// ScenarioRow is one outcome sampler run.
type ScenarioRow struct {
	Scenario       string
	WinRate        float64
	Delta          float64 // vs baseline win rate
	MeanDuration   float64
	DurationStddev float64
	Volatility     string
	Label          string
	RunID          string
}

// HistoryRow summarises persisted runs of one kind.
type HistoryRow struct {
	Kind       string
	Runs       int
	Trials     int
	PooledRate float64
	P10        float64
	P90        float64
}

package domain

// SimulationKind distinguishes the two Monte Carlo flavours.
type SimulationKind string

const (
	SimulationSampler SimulationKind = "sampler" // parametric coin-flip sampler
	SimulationRollout SimulationKind = "rollout" // transition-graph walk
)

// Volatility is the coarse spread label of a sampler run.
type Volatility string

const (
	VolatilityLow    Volatility = "low"
	VolatilityMedium Volatility = "medium"
	VolatilityHigh   Volatility = "high"
)

// SamplerResult is the aggregate of one outcome sampler run.
type SamplerResult struct {
	ActiveToggles        []string
	BaseProbability      float64
	EffectiveProbability float64 // after toggles, clamped to [0,1]
	Trials               int
	Wins                 int
	WinRate              float64
	MeanDuration         float64 // minutes
	DurationStddev       float64 // sample stddev (n-1)
	DurationMin          float64 // effective lower bound
	DurationMax          float64 // effective upper bound
	Volatility           Volatility
	Label                string // "High Confidence" | "Medium Risk" | "Strategic Collapse"
}

// PathCount is a compressed success path and how often it occurred.
type PathCount struct {
	Path  string
	Count int
}

// RolloutSummary is the aggregate of one transition-graph Monte Carlo run.
type RolloutSummary struct {
	Runs            int
	MaxSteps        int
	Denied          []string
	Damp            map[string]float64
	Successes       int
	SuccessRate     float64
	FailureReasons  map[string]int // reason -> count (includes reached_target)
	MeanPathLength  float64        // mean visited nodes per rollout
	TopSuccessPaths []PathCount
	StallNodes      map[string]int // node -> tempo_stall count
}

// RobustnessRow is the effect of denying one node.
type RobustnessRow struct {
	Deny        string
	SuccessRate float64
	Robustness  float64 // success_rate / baseline success_rate
	TopFailures []PathCount
}

// RobustnessReport ranks denials from most to least damaging.
type RobustnessReport struct {
	Baseline *RolloutSummary
	Rows     []RobustnessRow // sorted by Robustness ASC
}

// SimulationRun is a persisted Monte Carlo result.
type SimulationRun struct {
	RunID          string
	Kind           SimulationKind
	Params         string // canonical parameter string
	Trials         int
	Successes      int
	SuccessRate    float64
	MeanDuration   float64
	DurationStddev float64
	Volatility     string
	Label          string
	CreatedAt      int64 // Unix ms
}

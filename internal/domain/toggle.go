package domain

// ScenarioToggle is a binary what-if switch for the outcome sampler.
type ScenarioToggle struct {
	ID               string  `json:"id" yaml:"id"`
	Label            string  `json:"label" yaml:"label"`
	ProbabilityDelta float64 `json:"probability_delta" yaml:"probability_delta"`   // additive win probability adjustment
	DurationMaxDelta float64 `json:"duration_max_delta" yaml:"duration_max_delta"` // widens the upper duration bound (minutes)
}

// Toggle ID constants
const (
	ToggleDenyLynchpin     = "deny_lynchpin"
	ToggleEarlyPriority    = "early_priority"
	ToggleForceSplitFights = "force_split_fights"
	ToggleScalingDraft     = "scaling_draft"
)

// Predefined toggles.
var (
	ToggleConfigDenyLynchpin = ScenarioToggle{
		ID:               ToggleDenyLynchpin,
		Label:            "Deny lynchpin",
		ProbabilityDelta: -0.12,
	}

	ToggleConfigEarlyPriority = ScenarioToggle{
		ID:               ToggleEarlyPriority,
		Label:            "Secure early lane priority",
		ProbabilityDelta: 0.06,
	}

	ToggleConfigForceSplitFights = ScenarioToggle{
		ID:               ToggleForceSplitFights,
		Label:            "Force split fights",
		ProbabilityDelta: -0.05,
		DurationMaxDelta: 10,
	}

	ToggleConfigScalingDraft = ScenarioToggle{
		ID:               ToggleScalingDraft,
		Label:            "Draft for scaling",
		ProbabilityDelta: 0.03,
		DurationMaxDelta: 6,
	}
)

// DefaultToggles returns the predefined toggles in display order.
func DefaultToggles() []ScenarioToggle {
	return []ScenarioToggle{
		ToggleConfigDenyLynchpin,
		ToggleConfigEarlyPriority,
		ToggleConfigForceSplitFights,
		ToggleConfigScalingDraft,
	}
}

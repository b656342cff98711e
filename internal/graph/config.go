package graph

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when deposit constants are out of range.
var ErrInvalidConfig = errors.New("invalid graph config")

// Config holds the deposit constants of the accumulator.
type Config struct {
	BaseNodeDeposit float64 `yaml:"base_node_deposit"`
	BaseEdgeDeposit float64 `yaml:"base_edge_deposit"`
	WinMultiplier   float64 `yaml:"win_multiplier"`  // > 1
	LossMultiplier  float64 `yaml:"loss_multiplier"` // in (0, 1)
	ConfidenceStep  float64 `yaml:"confidence_step"`
	MinConfidence   float64 `yaml:"min_confidence"`
	MaxConfidence   float64 `yaml:"max_confidence"`
}

// DefaultConfig returns the standard deposit constants.
func DefaultConfig() Config {
	return Config{
		BaseNodeDeposit: 0.1,
		BaseEdgeDeposit: 0.15,
		WinMultiplier:   1.5,
		LossMultiplier:  0.7,
		ConfidenceStep:  0.05,
		MinConfidence:   0.1,
		MaxConfidence:   1.0,
	}
}

// Validate checks that the constants describe an asymmetric, saturating accumulator.
func (c Config) Validate() error {
	if c.BaseNodeDeposit <= 0 {
		return fmt.Errorf("%w: base_node_deposit must be positive", ErrInvalidConfig)
	}
	if c.BaseEdgeDeposit <= 0 {
		return fmt.Errorf("%w: base_edge_deposit must be positive", ErrInvalidConfig)
	}
	if c.WinMultiplier <= 1 {
		return fmt.Errorf("%w: win_multiplier must be > 1, got %v", ErrInvalidConfig, c.WinMultiplier)
	}
	if c.LossMultiplier <= 0 || c.LossMultiplier >= 1 {
		return fmt.Errorf("%w: loss_multiplier must be in (0,1), got %v", ErrInvalidConfig, c.LossMultiplier)
	}
	if c.ConfidenceStep <= 0 {
		return fmt.Errorf("%w: confidence_step must be positive", ErrInvalidConfig)
	}
	if c.MaxConfidence <= 0 || c.MaxConfidence > 1 {
		return fmt.Errorf("%w: max_confidence must be in (0,1], got %v", ErrInvalidConfig, c.MaxConfidence)
	}
	if c.MinConfidence < 0 || c.MinConfidence > c.MaxConfidence {
		return fmt.Errorf("%w: min_confidence must be in [0,max_confidence]", ErrInvalidConfig)
	}
	return nil
}

// multiplier returns the outcome multiplier for a match result.
func (c Config) multiplier(won bool) float64 {
	if won {
		return c.WinMultiplier
	}
	return c.LossMultiplier
}

// stepConfidence advances a confidence value by one step within bounds.
func (c Config) stepConfidence(v float64) float64 {
	v += c.ConfidenceStep
	if v < c.MinConfidence {
		v = c.MinConfidence
	}
	if v > c.MaxConfidence {
		v = c.MaxConfidence
	}
	return v
}

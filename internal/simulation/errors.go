package simulation

import "errors"

var (
	// ErrUnknownToggle is returned when a scenario toggle id is not registered.
	ErrUnknownToggle = errors.New("unknown scenario toggle")

	// ErrInvalidTrials is returned when a run is requested with no trials.
	ErrInvalidTrials = errors.New("trial count must be positive")

	// ErrInvalidConfig is returned when sampler or rollout parameters are inconsistent.
	ErrInvalidConfig = errors.New("invalid simulation config")

	// ErrInvalidGraph is returned when a transition graph has no usable nodes.
	ErrInvalidGraph = errors.New("invalid transition graph")
)

package simulation

import (
	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/idhash"
	"draft-strategy-lab/internal/metrics"
)

// SamplerRun converts a sampler result into a persistable run.
func SamplerRun(res *domain.SamplerResult, seed, createdAt int64) *domain.SimulationRun {
	params := SamplerParams(res)
	return &domain.SimulationRun{
		RunID:          idhash.ComputeRunID(domain.SimulationSampler, params, seed, createdAt),
		Kind:           domain.SimulationSampler,
		Params:         params,
		Trials:         res.Trials,
		Successes:      res.Wins,
		SuccessRate:    res.WinRate,
		MeanDuration:   res.MeanDuration,
		DurationStddev: res.DurationStddev,
		Volatility:     string(res.Volatility),
		Label:          res.Label,
		CreatedAt:      createdAt,
	}
}

// RolloutRun converts a rollout summary into a persistable run.
// MeanDuration carries the mean path length in steps.
func RolloutRun(sum *domain.RolloutSummary, seed, createdAt int64) *domain.SimulationRun {
	params := RolloutParams(sum)
	return &domain.SimulationRun{
		RunID:        idhash.ComputeRunID(domain.SimulationRollout, params, seed, createdAt),
		Kind:         domain.SimulationRollout,
		Params:       params,
		Trials:       sum.Runs,
		Successes:    sum.Successes,
		SuccessRate:  sum.SuccessRate,
		MeanDuration: sum.MeanPathLength,
		Label:        metrics.OutcomeLabel(sum.SuccessRate),
		CreatedAt:    createdAt,
	}
}

package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/metrics"
)

func newDefaultSampler(t *testing.T) *Sampler {
	t.Helper()
	s, err := NewSampler(DefaultSamplerConfig(), nil)
	require.NoError(t, err)
	return s
}

func TestSampler_BaselineConvergesToBase(t *testing.T) {
	s := newDefaultSampler(t)

	res, err := s.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 10000, res.Trials)
	assert.Empty(t, res.ActiveToggles)
	assert.InDelta(t, 0.58, res.EffectiveProbability, 1e-12)
	assert.InDelta(t, 0.58, res.WinRate, 0.02)
	assert.Equal(t, metrics.LabelMediumRisk, res.Label)
}

func TestSampler_DenyLynchpinShiftsWinRate(t *testing.T) {
	s := newDefaultSampler(t)
	ctx := context.Background()

	base, err := s.Run(ctx, nil)
	require.NoError(t, err)
	denied, err := s.Run(ctx, []string{domain.ToggleDenyLynchpin})
	require.NoError(t, err)

	assert.InDelta(t, 0.46, denied.EffectiveProbability, 1e-12)
	assert.InDelta(t, -0.12, denied.WinRate-base.WinRate, 0.03)
	assert.Equal(t, []string{domain.ToggleDenyLynchpin}, denied.ActiveToggles)
}

func TestSampler_DurationBoundsAndVolatility(t *testing.T) {
	s := newDefaultSampler(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		toggles    []string
		wantMax    float64
		volatility domain.Volatility
	}{
		{"baseline", nil, 36, domain.VolatilityLow},
		{"split fights", []string{domain.ToggleForceSplitFights}, 46, domain.VolatilityMedium},
		{"split fights and scaling", []string{domain.ToggleForceSplitFights, domain.ToggleScalingDraft}, 52, domain.VolatilityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Run(ctx, tt.toggles)
			require.NoError(t, err)
			assert.Equal(t, 24.0, res.DurationMin)
			assert.Equal(t, tt.wantMax, res.DurationMax)
			assert.InDelta(t, (24+tt.wantMax)/2, res.MeanDuration, 0.5)
			assert.Equal(t, tt.volatility, res.Volatility)
		})
	}
}

func TestSampler_ClampsProbability(t *testing.T) {
	cfg := DefaultSamplerConfig()
	cfg.BaseWinProbability = 0.05
	cfg.Trials = 1000
	s, err := NewSampler(cfg, nil)
	require.NoError(t, err)

	res, err := s.Run(context.Background(), []string{domain.ToggleDenyLynchpin, domain.ToggleForceSplitFights})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.EffectiveProbability)
	assert.Equal(t, 0, res.Wins)
	assert.Equal(t, metrics.LabelStrategicCollapse, res.Label)

	cfg.BaseWinProbability = 0.98
	s, err = NewSampler(cfg, nil)
	require.NoError(t, err)
	res, err = s.Run(context.Background(), []string{domain.ToggleEarlyPriority})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.EffectiveProbability)
	assert.Equal(t, 1000, res.Wins)
	assert.Equal(t, metrics.LabelHighConfidence, res.Label)
}

func TestSampler_Deterministic(t *testing.T) {
	s := newDefaultSampler(t)
	ctx := context.Background()

	a, err := s.RunTrials(ctx, []string{domain.ToggleScalingDraft}, 2000, 99)
	require.NoError(t, err)
	b, err := s.RunTrials(ctx, []string{domain.ToggleScalingDraft}, 2000, 99)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSampler_TogglesDedupedInRegistrationOrder(t *testing.T) {
	s := newDefaultSampler(t)

	res, err := s.RunTrials(context.Background(),
		[]string{domain.ToggleScalingDraft, " ", domain.ToggleDenyLynchpin, domain.ToggleScalingDraft}, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.ToggleDenyLynchpin, domain.ToggleScalingDraft}, res.ActiveToggles)
}

func TestSampler_Errors(t *testing.T) {
	s := newDefaultSampler(t)
	ctx := context.Background()

	_, err := s.Run(ctx, []string{"flash_all_in"})
	assert.ErrorIs(t, err, ErrUnknownToggle)

	_, err = s.RunTrials(ctx, nil, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidTrials)

	cfg := DefaultSamplerConfig()
	cfg.DurationMin = 40
	_, err = NewSampler(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultSamplerConfig()
	cfg.BaseWinProbability = 1.2
	_, err = NewSampler(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewSampler(DefaultSamplerConfig(), []domain.ScenarioToggle{{ID: "a"}, {ID: "a"}})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSampler_CancelBetweenChunks(t *testing.T) {
	cfg := DefaultSamplerConfig()
	cfg.ChunkSize = 100
	cfg.ChunkPause = time.Millisecond
	s, err := NewSampler(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Run(ctx, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSamplerRun_Conversion(t *testing.T) {
	s := newDefaultSampler(t)
	res, err := s.RunTrials(context.Background(), []string{domain.ToggleEarlyPriority}, 500, 3)
	require.NoError(t, err)

	run := SamplerRun(res, 3, 1700000000000)
	assert.Equal(t, domain.SimulationSampler, run.Kind)
	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, 500, run.Trials)
	assert.Equal(t, res.Wins, run.Successes)
	assert.Equal(t, string(res.Volatility), run.Volatility)
	assert.Contains(t, run.Params, "toggles=early_priority")
	assert.Equal(t, run.RunID, SamplerRun(res, 3, 1700000000000).RunID)
	assert.NotEqual(t, run.RunID, SamplerRun(res, 4, 1700000000000).RunID)
}

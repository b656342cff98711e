package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/metrics"
	"draft-strategy-lab/internal/observability"
)

// SamplerConfig holds the parametric sampler settings.
type SamplerConfig struct {
	BaseWinProbability float64       `yaml:"base_win_probability"`
	Trials             int           `yaml:"trials"`
	ChunkSize          int           `yaml:"chunk_size"`
	ChunkPause         time.Duration `yaml:"chunk_pause"`
	DurationMin        float64       `yaml:"duration_min"` // minutes
	DurationMax        float64       `yaml:"duration_max"` // minutes
	VolatilityLow      float64       `yaml:"volatility_low"`
	VolatilityHigh     float64       `yaml:"volatility_high"`
	Seed               int64         `yaml:"seed"`
}

// DefaultSamplerConfig returns the stock sampler settings.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		BaseWinProbability: 0.58,
		Trials:             10000,
		ChunkSize:          500,
		DurationMin:        24,
		DurationMax:        36,
		VolatilityLow:      4,
		VolatilityHigh:     7,
		Seed:               7,
	}
}

// Validate checks the sampler settings.
func (c SamplerConfig) Validate() error {
	if c.BaseWinProbability < 0 || c.BaseWinProbability > 1 {
		return fmt.Errorf("%w: base win probability %v outside [0,1]", ErrInvalidConfig, c.BaseWinProbability)
	}
	if c.Trials <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTrials, c.Trials)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("%w: negative chunk size", ErrInvalidConfig)
	}
	if c.DurationMin > c.DurationMax {
		return fmt.Errorf("%w: duration min %v > max %v", ErrInvalidConfig, c.DurationMin, c.DurationMax)
	}
	if c.VolatilityLow > c.VolatilityHigh {
		return fmt.Errorf("%w: volatility low %v > high %v", ErrInvalidConfig, c.VolatilityLow, c.VolatilityHigh)
	}
	return nil
}

// Sampler draws independent win/loss outcomes and game durations for a set of
// scenario toggles. It never reads graph state.
type Sampler struct {
	cfg     SamplerConfig
	toggles []domain.ScenarioToggle
	byID    map[string]domain.ScenarioToggle
}

// NewSampler creates a sampler. A nil toggle list means domain.DefaultToggles.
func NewSampler(cfg SamplerConfig, toggles []domain.ScenarioToggle) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if toggles == nil {
		toggles = domain.DefaultToggles()
	}
	byID := make(map[string]domain.ScenarioToggle, len(toggles))
	for _, t := range toggles {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: toggle with empty id", ErrInvalidConfig)
		}
		if _, dup := byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate toggle %q", ErrInvalidConfig, t.ID)
		}
		byID[t.ID] = t
	}
	return &Sampler{
		cfg:     cfg,
		toggles: append([]domain.ScenarioToggle(nil), toggles...),
		byID:    byID,
	}, nil
}

// Config returns the sampler settings.
func (s *Sampler) Config() SamplerConfig {
	return s.cfg
}

// Toggles returns the registered toggles in display order.
func (s *Sampler) Toggles() []domain.ScenarioToggle {
	return append([]domain.ScenarioToggle(nil), s.toggles...)
}

// Run samples cfg.Trials outcomes with the given toggles switched on.
func (s *Sampler) Run(ctx context.Context, active []string) (*domain.SamplerResult, error) {
	return s.RunTrials(ctx, active, s.cfg.Trials, s.cfg.Seed)
}

// RunTrials samples n outcomes from a generator seeded with seed.
// Between chunks it checks ctx and pauses for ChunkPause.
func (s *Sampler) RunTrials(ctx context.Context, active []string, n int, seed int64) (*domain.SamplerResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTrials, n)
	}
	ids, err := s.resolve(active)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	p := s.cfg.BaseWinProbability
	durMin, durMax := s.cfg.DurationMin, s.cfg.DurationMax
	for _, id := range ids {
		t := s.byID[id]
		p += t.ProbabilityDelta
		durMax += t.DurationMaxDelta
	}
	p = clamp01(p)
	if durMax < durMin {
		durMax = durMin
	}

	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- simulation only
	chunk := s.cfg.ChunkSize
	if chunk <= 0 {
		chunk = n
	}

	wins := 0
	durations := make([]float64, 0, n)
	for done := 0; done < n; {
		end := done + chunk
		if end > n {
			end = n
		}
		for ; done < end; done++ {
			if rng.Float64() < p {
				wins++
			}
			durations = append(durations, durMin+rng.Float64()*(durMax-durMin))
		}
		if done < n {
			if err := s.yield(ctx); err != nil {
				return nil, err
			}
		}
	}

	mean := metrics.Mean(durations)
	stddev := metrics.Stddev(durations, mean)
	winRate := metrics.WinRate(wins, n)

	res := &domain.SamplerResult{
		ActiveToggles:        ids,
		BaseProbability:      s.cfg.BaseWinProbability,
		EffectiveProbability: p,
		Trials:               n,
		Wins:                 wins,
		WinRate:              winRate,
		MeanDuration:         mean,
		DurationStddev:       stddev,
		DurationMin:          durMin,
		DurationMax:          durMax,
		Volatility:           metrics.ClassifyVolatility(stddev, s.cfg.VolatilityLow, s.cfg.VolatilityHigh),
		Label:                metrics.OutcomeLabel(winRate),
	}
	observability.RecordSamplerRun(n, winRate, time.Since(start).Seconds())
	return res, nil
}

// resolve validates toggle ids and returns them deduplicated in registration order.
func (s *Sampler) resolve(active []string) ([]string, error) {
	on := make(map[string]bool, len(active))
	for _, id := range active {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := s.byID[id]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownToggle, id)
		}
		on[id] = true
	}
	ids := make([]string, 0, len(on))
	for _, t := range s.toggles {
		if on[t.ID] {
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}

func (s *Sampler) yield(ctx context.Context) error {
	if err := ctx.Err(); err != nil || s.cfg.ChunkPause <= 0 {
		return err
	}
	timer := time.NewTimer(s.cfg.ChunkPause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SamplerParams renders the canonical parameter string of a sampler run.
func SamplerParams(res *domain.SamplerResult) string {
	toggles := append([]string(nil), res.ActiveToggles...)
	sort.Strings(toggles)
	return fmt.Sprintf("p=%.4f;toggles=%s;duration=%.1f-%.1f",
		res.BaseProbability, strings.Join(toggles, ","), res.DurationMin, res.DurationMax)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

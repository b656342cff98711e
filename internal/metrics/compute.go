package metrics

import (
	"math"
	"sort"

	"draft-strategy-lab/internal/domain"
)

// Outcome label thresholds on win rate.
const (
	HighConfidenceThreshold = 0.70
	MediumRiskThreshold     = 0.40
)

// Outcome labels.
const (
	LabelHighConfidence    = "High Confidence"
	LabelMediumRisk        = "Medium Risk"
	LabelStrategicCollapse = "Strategic Collapse"
)

// Distribution summarises a sample of values.
type Distribution struct {
	Count  int
	Mean   float64
	Stddev float64 // sample stddev (n-1)
	Min    float64
	Max    float64
	P10    float64
	P50    float64
	P90    float64
}

// Summarize computes the distribution of values. Input is not modified.
func Summarize(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean := Mean(values)
	return Distribution{
		Count:  n,
		Mean:   mean,
		Stddev: Stddev(values, mean),
		Min:    sorted[0],
		Max:    sorted[n-1],
		P10:    Percentile(sorted, 0.10),
		P50:    Percentile(sorted, 0.50),
		P90:    Percentile(sorted, 0.90),
	}
}

// WinRate calculates win rate as wins / total.
func WinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// Mean calculates the arithmetic mean.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Stddev calculates sample standard deviation (n-1 denominator).
func Stddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// Percentile uses linear interpolation.
// sorted must be pre-sorted ASC; p is a fraction (0.10 = 10th percentile).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// ClassifyVolatility maps a standard deviation onto low/medium/high.
// Values below low are "low", below high are "medium", the rest "high".
func ClassifyVolatility(stddev, low, high float64) domain.Volatility {
	switch {
	case stddev < low:
		return domain.VolatilityLow
	case stddev < high:
		return domain.VolatilityMedium
	default:
		return domain.VolatilityHigh
	}
}

// OutcomeLabel maps a win rate in [0,1] onto the coach-facing confidence label.
func OutcomeLabel(winRate float64) string {
	switch {
	case winRate > HighConfidenceThreshold:
		return LabelHighConfidence
	case winRate > MediumRiskThreshold:
		return LabelMediumRisk
	default:
		return LabelStrategicCollapse
	}
}

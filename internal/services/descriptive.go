package services

import (
	"math"
	"sort"

	"github.com/irfndi/oilpulse/internal/models"
	"github.com/irfndi/oilpulse/internal/utils"
)

// Mean returns the arithmetic mean of values, or NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStd returns the standard deviation with an n-1 denominator.
func SampleStd(values []float64) (float64, error) {
	if len(values) < 2 {
		return 0, utils.NewInsufficientDataError("sample standard deviation", 2, len(values))
	}
	return math.Sqrt(sumSquaredDeviations(values) / float64(len(values)-1)), nil
}

// PopulationStd returns the standard deviation with an n denominator.
func PopulationStd(values []float64) (float64, error) {
	if len(values) < 1 {
		return 0, utils.NewInsufficientDataError("population standard deviation", 1, 0)
	}
	return math.Sqrt(sumSquaredDeviations(values) / float64(len(values))), nil
}

func sumSquaredDeviations(values []float64) float64 {
	mean := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return ss
}

// Percentile returns the p-th percentile (0..100) of sorted values using
// linear interpolation between the closest ranks. sorted must be ascending.
func Percentile(sorted []float64, p float64) (float64, error) {
	if len(sorted) == 0 {
		return 0, utils.NewInsufficientDataError("percentile", 1, 0)
	}
	if p < 0 || p > 100 || math.IsNaN(p) {
		return 0, utils.NewValidationErrorf("percentile must be between 0 and 100, got %v", p)
	}
	pos := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower], nil
	}
	frac := pos - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac, nil
}

// Describe computes count, mean, sample std, min, quartiles and max.
// values is not modified.
func Describe(values []float64) (*models.DescriptiveStats, error) {
	if len(values) < 2 {
		return nil, utils.NewInsufficientDataError("descriptive statistics", 2, len(values))
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	std, err := SampleStd(sorted)
	if err != nil {
		return nil, err
	}

	stats := &models.DescriptiveStats{
		Count: len(sorted),
		Mean:  Mean(sorted),
		Std:   std,
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}
	// Percentile cannot fail on a non-empty slice with constant p.
	stats.P25, _ = Percentile(sorted, 25)
	stats.P50, _ = Percentile(sorted, 50)
	stats.P75, _ = Percentile(sorted, 75)
	return stats, nil
}

package wafer

import (
	"encoding/json"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type IntOrFloat64 interface {
	int | int64 | float64
}

// CalculateMean returns the mean of a data list, 0 for an empty list.
func CalculateMean[T IntOrFloat64](numbers []T) float64 {
	if len(numbers) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, number := range numbers {
		sum += float64(number)
	}

	return sum / float64(len(numbers))
}

// CalculatePercentile returns the p-th percentile (0..100) of data using linear
// interpolation between closest ranks. data need not be sorted. Returns NaN for
// an empty list.
func CalculatePercentile[T IntOrFloat64](data []T, p float64) float64 {
	n := len(data)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	for i, v := range data {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)

	p = math.Max(0, math.Min(100, p))
	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))
	if lowerIdx == upperIdx {
		return sorted[lowerIdx]
	}
	return sorted[lowerIdx] + (sorted[upperIdx]-sorted[lowerIdx])*(rank-float64(lowerIdx))
}

// Summary holds the descriptive statistics shown in the statistics panel.
type Summary struct {
	Mean          float64 `json:"mean"`
	Max           float64 `json:"max"`
	Min           float64 `json:"min"`
	Std           float64 `json:"std"`
	UniformityPct float64 `json:"uniformity_pct"` // Std / Mean × 100; NaN when Mean is 0
	Range         float64 `json:"range"`
	Sites         int     `json:"sites"`
}

// Describe computes the Summary of a dataset. Std is the sample standard
// deviation (n-1 denominator) and is 0 for a single sample.
func Describe(ds *Dataset) Summary {
	values := ds.Values()
	mean := stat.Mean(values, nil)
	std := 0.0
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}
	maxV := floats.Max(values)
	minV := floats.Min(values)

	uniformity := math.NaN()
	if mean != 0 {
		uniformity = std / mean * 100
	}
	return Summary{
		Mean:          mean,
		Max:           maxV,
		Min:           minV,
		Std:           std,
		UniformityPct: uniformity,
		Range:         maxV - minV,
		Sites:         len(values),
	}
}

// FiniteOrNil returns a pointer to v, or nil when v is NaN or infinite.
// encoding/json rejects non-finite floats, so JSON views use it to emit null.
func FiniteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// MarshalJSON writes a NaN uniformity (zero mean) as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mean          float64  `json:"mean"`
		Max           float64  `json:"max"`
		Min           float64  `json:"min"`
		Std           float64  `json:"std"`
		UniformityPct *float64 `json:"uniformity_pct"`
		Range         float64  `json:"range"`
		Sites         int      `json:"sites"`
	}{s.Mean, s.Max, s.Min, s.Std, FiniteOrNil(s.UniformityPct), s.Range, s.Sites})
}

package wafer

import (
	"fmt"
	"math"
)

// Cycles supplies the process cycle count used to convert thickness to growth
// per cycle. Exactly one of Fixed (> 0) or PerSample (aligned with the
// dataset's samples) is used; Fixed wins when positive.
type Cycles struct {
	Fixed     float64
	PerSample []float64
}

// GPC converts a thickness dataset into a growth-per-cycle dataset
// (value = thickness / cycles). Samples with a non-positive or missing cycle
// count, or a non-positive resulting GPC, are physically meaningless and are
// dropped with a warning. The input dataset is not modified.
func GPC(thickness *Dataset, cycles Cycles) (*Dataset, error) {
	usePerSample := cycles.Fixed <= 0
	if usePerSample {
		if cycles.PerSample == nil {
			return nil, fmt.Errorf("gpc %q: fixed cycle count must be positive, got %f", thickness.Name(), cycles.Fixed)
		}
		if len(cycles.PerSample) != thickness.Len() {
			return nil, fmt.Errorf("gpc %q: %d cycle counts for %d samples", thickness.Name(), len(cycles.PerSample), thickness.Len())
		}
	}

	out := make([]Sample, 0, thickness.Len())
	dropped := 0
	for i, s := range thickness.samples {
		c := cycles.Fixed
		if usePerSample {
			c = cycles.PerSample[i]
		}
		if math.IsNaN(c) || c <= 0 {
			dropped++
			continue
		}
		g := s.Value / c
		if !(g > 0) || math.IsInf(g, 0) {
			dropped++
			continue
		}
		out = append(out, Sample{X: s.X, Y: s.Y, Value: g})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("gpc %q: no valid samples (%d dropped for non-positive cycles or GPC)", thickness.Name(), dropped)
	}

	ds, err := NewDataset(thickness.Name(), out)
	if err != nil {
		return nil, err
	}
	inherited := make([]string, 0, len(thickness.warnings)+len(ds.warnings))
	seen := make(map[string]bool)
	for _, w := range append(thickness.Warnings(), ds.warnings...) {
		if !seen[w] {
			seen[w] = true
			inherited = append(inherited, w)
		}
	}
	ds.warnings = inherited
	if dropped > 0 {
		ds.warn(fmt.Sprintf("dropped %d samples with non-positive cycles or GPC", dropped))
	}
	return ds, nil
}

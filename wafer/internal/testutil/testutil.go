// Package testutil provides synthetic wafers and assertion helpers shared by
// the wafer test packages.
package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/wafermap/wafermap/wafer"
)

// Radius is the radius of every synthetic wafer, in mm.
const Radius = 150.0

// Rings and Spokes size the polar sampling grid: one center site plus Spokes
// sites on each of Rings evenly spaced circles, the outermost at Radius.
// Ring k sits at normalized radius k/Rings, so rings 1..3 fall in the center
// zone, 4..6 in the mid zone and 7..10 in the edge zone.
const (
	Rings  = 10
	Spokes = 12
)

// Shape gives the value of a site on ring k (0 = center) at (x, y).
type Shape func(ring int, x, y float64) float64

// Flat is a constant wafer.
func Flat(level float64) Shape {
	return func(int, float64, float64) float64 { return level }
}

// MidBand raises the mid-zone rings of base by factor.
func MidBand(level, factor float64) Shape {
	return func(ring int, _, _ float64) float64 {
		if ring >= 4 && ring <= 6 {
			return level * factor
		}
		return level
	}
}

// TiltX adds slope·x to level.
func TiltX(level, slope float64) Shape {
	return func(_ int, x, _ float64) float64 { return level + slope*x }
}

// EdgeRollOff lowers the edge quadratically: level·(1 - drop·(r/R)²).
func EdgeRollOff(level, drop float64) Shape {
	return func(ring int, _, _ float64) float64 {
		n := float64(ring) / Rings
		return level * (1 - drop*n*n)
	}
}

// Spike is level everywhere except the first site of ring 5, which is peak.
func Spike(level, peak float64) Shape {
	first := true
	return func(ring int, _, _ float64) float64 {
		if ring == 5 && first {
			first = false
			return peak
		}
		return level
	}
}

// WithNoise adds uniform noise in [-amp, amp] from a seeded source.
func WithNoise(shape Shape, amp float64, seed int64) Shape {
	rng := rand.New(rand.NewSource(seed))
	return func(ring int, x, y float64) float64 {
		return shape(ring, x, y) + amp*(2*rng.Float64()-1)
	}
}

// PolarSamples generates the polar sampling grid with values from shape.
func PolarSamples(shape Shape) []wafer.Sample {
	out := []wafer.Sample{{X: 0, Y: 0, Value: shape(0, 0, 0)}}
	for k := 1; k <= Rings; k++ {
		r := Radius * float64(k) / Rings
		for s := 0; s < Spokes; s++ {
			theta := 2 * math.Pi * float64(s) / Spokes
			x, y := r*math.Cos(theta), r*math.Sin(theta)
			out = append(out, wafer.Sample{X: x, Y: y, Value: shape(k, x, y)})
		}
	}
	return out
}

// Wafer builds a named dataset from shape, failing the test on error.
func Wafer(t *testing.T, name string, shape Shape) *wafer.Dataset {
	t.Helper()
	ds, err := wafer.NewDataset(name, PolarSamples(shape))
	if err != nil {
		t.Fatalf("building wafer %q: %v", name, err)
	}
	return ds
}

// Batch builds wafers named wafer_0..wafer_n-1 from shapes.
func Batch(t *testing.T, shapes ...Shape) []*wafer.Dataset {
	t.Helper()
	out := make([]*wafer.Dataset, len(shapes))
	for i, s := range shapes {
		out[i] = Wafer(t, fmt.Sprintf("wafer_%d", i), s)
	}
	return out
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

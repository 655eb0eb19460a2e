// Package zonal partitions a wafer by normalized radius into center, mid and
// edge zones and builds a binned radial profile.
//
// Zone boundaries are fixed at r/R = 1/3 and 2/3 so feature vectors stay
// comparable across wafers. Points beyond R (possible when a nominal radius
// smaller than the sample extent is supplied) count toward the edge zone and
// the outermost profile bin.
package zonal

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wafermap/wafermap/wafer"
	"github.com/wafermap/wafermap/wafer/interp"
)

// Zone boundaries as fractions of the radius.
const (
	centerOuter = 1.0 / 3.0
	midOuter    = 2.0 / 3.0
)

// Zone holds the statistics of one radial zone. Std is the population standard
// deviation. An empty zone has Count 0 and NaN Mean and Std.
type Zone struct {
	Mean  float64
	Std   float64
	Count int
}

// ZoneStats holds the three zones of one wafer.
type ZoneStats struct {
	Center Zone `json:"center"`
	Mid    Zone `json:"mid"`
	Edge   Zone `json:"edge"`
}

// Total returns the number of points across all zones.
func (z ZoneStats) Total() int {
	return z.Center.Count + z.Mid.Count + z.Edge.Count
}

// Bin is one ring of the radial profile, covering [Inner, Outer) in millimetres.
// Mean is NaN when no point falls in the ring.
type Bin struct {
	Index  int
	Inner  float64
	Outer  float64
	Center float64
	Mean   float64
	Count  int
}

// RadialProfile is the ordered sequence of rings from the center outward.
type RadialProfile struct {
	Radius float64 `json:"radius"`
	Bins   []Bin   `json:"bins"`
}

// Populated returns the bin centers and means of the non-empty rings as
// parallel slices.
func (p RadialProfile) Populated() (centers, means []float64) {
	for _, b := range p.Bins {
		if b.Count == 0 || math.IsNaN(b.Mean) {
			continue
		}
		centers = append(centers, b.Center)
		means = append(means, b.Mean)
	}
	return centers, means
}

type point struct {
	r, value float64
}

// Analyze computes zone statistics and the radial profile from raw samples.
// radius <= 0 uses the dataset's max sample radius; bins <= 0 uses
// wafer.DefaultBins.
func Analyze(ds *wafer.Dataset, radius float64, bins int) (ZoneStats, RadialProfile) {
	if radius <= 0 {
		radius = ds.MaxRadius()
	}
	pts := make([]point, ds.Len())
	for i := range pts {
		s := ds.At(i)
		pts[i] = point{r: s.Radius(), value: s.Value}
	}
	return analyze(pts, radius, bins)
}

// AnalyzeSurface computes zone statistics and the radial profile over the
// valid cells of an interpolated surface, using the surface's radius.
func AnalyzeSurface(s *interp.Surface, bins int) (ZoneStats, RadialProfile) {
	cells := s.Cells()
	pts := make([]point, len(cells))
	for i, c := range cells {
		pts[i] = point{r: math.Hypot(c.X, c.Y), value: c.Value}
	}
	return analyze(pts, s.Radius, bins)
}

func analyze(pts []point, radius float64, bins int) (ZoneStats, RadialProfile) {
	if bins <= 0 {
		bins = wafer.DefaultBins
	}

	var center, mid, edge []float64
	binValues := make([][]float64, bins)
	for _, p := range pts {
		norm := 0.0
		if radius > 0 {
			norm = p.r / radius
		}
		switch {
		case norm < centerOuter:
			center = append(center, p.value)
		case norm < midOuter:
			mid = append(mid, p.value)
		default:
			edge = append(edge, p.value)
		}

		b := int(norm * float64(bins))
		if b >= bins {
			b = bins - 1
		}
		binValues[b] = append(binValues[b], p.value)
	}

	zs := ZoneStats{Center: zoneOf(center), Mid: zoneOf(mid), Edge: zoneOf(edge)}

	width := radius / float64(bins)
	profile := RadialProfile{Radius: radius, Bins: make([]Bin, bins)}
	for i, vals := range binValues {
		mean := math.NaN()
		if len(vals) > 0 {
			mean = stat.Mean(vals, nil)
		}
		profile.Bins[i] = Bin{
			Index:  i,
			Inner:  float64(i) * width,
			Outer:  float64(i+1) * width,
			Center: (float64(i) + 0.5) * width,
			Mean:   mean,
			Count:  len(vals),
		}
	}
	return zs, profile
}

func zoneOf(values []float64) Zone {
	if len(values) == 0 {
		return Zone{Mean: math.NaN(), Std: math.NaN()}
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	return Zone{Mean: mean, Std: std, Count: len(values)}
}

// MarshalJSON writes the statistics of an empty zone as null.
func (z Zone) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mean  *float64 `json:"mean"`
		Std   *float64 `json:"std"`
		Count int      `json:"count"`
	}{wafer.FiniteOrNil(z.Mean), wafer.FiniteOrNil(z.Std), z.Count})
}

// MarshalJSON writes the mean of an empty ring as null.
func (b Bin) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index  int      `json:"index"`
		Inner  float64  `json:"inner"`
		Outer  float64  `json:"outer"`
		Center float64  `json:"center"`
		Mean   *float64 `json:"mean"`
		Count  int      `json:"count"`
	}{b.Index, b.Inner, b.Outer, b.Center, wafer.FiniteOrNil(b.Mean), b.Count})
}

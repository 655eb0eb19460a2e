// Package features reduces one wafer to a fixed-length vector describing the
// spatial shape of its values.
//
// Every shape feature is normalized by the wafer's own standard deviation (or,
// for ratios, its mean) so vectors compare across wafers measured in different
// units. A wafer with no spread gets 0 for each std-normalized feature.
package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wafermap/wafermap/wafer"
	"github.com/wafermap/wafermap/wafer/zonal"
)

// Feature indices. The order is part of the contract with the anomaly scorer
// and the pattern classifier.
const (
	Mean = iota
	Std
	CenterMean
	MidMean
	EdgeMean
	CenterRatio
	MidRatio
	EdgeRatio
	RadialSlope
	GradientX
	GradientY
	EdgeCenterDelta
	Hotspot

	// Len is the number of features in a Vector.
	Len
)

var names = [Len]string{
	Mean:            "mean",
	Std:             "std",
	CenterMean:      "center_mean",
	MidMean:         "mid_mean",
	EdgeMean:        "edge_mean",
	CenterRatio:     "center_ratio",
	MidRatio:        "mid_ratio",
	EdgeRatio:       "edge_ratio",
	RadialSlope:     "radial_slope",
	GradientX:       "gradient_x",
	GradientY:       "gradient_y",
	EdgeCenterDelta: "edge_center_delta",
	Hotspot:         "hotspot",
}

// Names returns the feature names in vector order.
func Names() []string {
	out := make([]string, Len)
	copy(out, names[:])
	return out
}

// Vector is the feature vector of one wafer. All entries are finite.
type Vector [Len]float64

// Slice returns the entries as a new slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Len)
	copy(out, v[:])
	return out
}

// Named returns the entries keyed by feature name.
func (v Vector) Named() map[string]float64 {
	out := make(map[string]float64, Len)
	for i, name := range names {
		out[name] = v[i]
	}
	return out
}

// flat reports whether std is negligible relative to the scale of the data.
func flat(std, mean float64) bool {
	return std <= 1e-12*math.Max(1, math.Abs(mean))
}

// Extract computes the feature vector of ds from its zone statistics and
// radial profile (as produced by zonal.Analyze on the same dataset).
func Extract(ds *wafer.Dataset, zs zonal.ZoneStats, profile zonal.RadialProfile) Vector {
	values := ds.Values()
	mean, std := stat.PopMeanStdDev(values, nil)
	if len(values) < 2 || math.IsNaN(std) {
		std = 0
	}
	noSpread := flat(std, mean)

	var v Vector
	v[Mean] = mean
	v[Std] = std

	zoneMean := func(z zonal.Zone) float64 {
		if z.Count == 0 || math.IsNaN(z.Mean) {
			return mean
		}
		return z.Mean
	}
	v[CenterMean] = zoneMean(zs.Center)
	v[MidMean] = zoneMean(zs.Mid)
	v[EdgeMean] = zoneMean(zs.Edge)

	ratio := func(zm float64) float64 {
		if math.Abs(mean) <= 1e-12 {
			return 1
		}
		return zm / mean
	}
	v[CenterRatio] = ratio(v[CenterMean])
	v[MidRatio] = ratio(v[MidMean])
	v[EdgeRatio] = ratio(v[EdgeMean])

	if !noSpread {
		centers, means := profile.Populated()
		v[RadialSlope] = slope(centers, means) * profile.Radius / std

		xs, ys := ds.Coords()
		v[GradientX] = standardizedSlope(xs, values, std)
		v[GradientY] = standardizedSlope(ys, values, std)

		v[EdgeCenterDelta] = (v[EdgeMean] - v[CenterMean]) / std

		dev := make([]float64, len(values))
		copy(dev, values)
		floats.AddConst(-mean, dev)
		for i := range dev {
			dev[i] = math.Abs(dev[i])
		}
		v[Hotspot] = floats.Max(dev) / std
	}

	for i := range v {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			v[i] = 0
		}
	}
	return v
}

// slope returns the least-squares slope of y on x, or 0 when x has no spread
// or fewer than two points are given.
func slope(x, y []float64) float64 {
	if len(x) < 2 || floats.Max(x) == floats.Min(x) {
		return 0
	}
	_, beta := stat.LinearRegression(x, y, nil, false)
	return beta
}

// standardizedSlope returns slope(x, v) · σx / σv, the Pearson correlation of
// value against one coordinate.
func standardizedSlope(x, values []float64, stdV float64) float64 {
	_, stdX := stat.PopMeanStdDev(x, nil)
	if stdX == 0 || math.IsNaN(stdX) {
		return 0
	}
	return slope(x, values) * stdX / stdV
}

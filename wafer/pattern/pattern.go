// Package pattern labels outlier wafers with the process signature their
// feature vector matches.
package pattern

import (
	"math"

	"github.com/wafermap/wafermap/wafer"
	"github.com/wafermap/wafermap/wafer/features"
)

// Label is a process-signature class.
type Label string

const (
	Ring            Label = "Ring"
	EdgeDegradation Label = "EdgeDegradation"
	Gradient        Label = "Gradient"
	Hotspot         Label = "Hotspot"
	GlobalShift     Label = "GlobalShift"
	Normal          Label = "Normal"
)

// Labels lists every label in rule priority order, Normal last.
var Labels = []Label{Hotspot, EdgeDegradation, Ring, Gradient, GlobalShift, Normal}

// Batch carries the batch-wide context the GlobalShift rule compares against.
type Batch struct {
	MeanOfMeans float64
}

// NewBatch computes the batch context from every wafer's feature vector.
func NewBatch(vectors []features.Vector) Batch {
	means := make([]float64, len(vectors))
	for i, v := range vectors {
		means[i] = v[features.Mean]
	}
	return Batch{MeanOfMeans: wafer.CalculateMean(means)}
}

// Classify returns the label of one wafer. Non-outliers are always Normal.
// Outliers take the first matching rule in the order of Labels; an outlier
// matching no rule is also Normal.
func Classify(v features.Vector, isOutlier bool, batch Batch, th wafer.PatternThresholds) Label {
	if !isOutlier {
		return Normal
	}
	mean := v[features.Mean]

	if v[features.Hotspot] > th.HotspotSigma {
		return Hotspot
	}

	if v[features.EdgeCenterDelta] < -th.EdgeDelta && v[features.RadialSlope] < 0 {
		return EdgeDegradation
	}

	if mean != 0 {
		toCenter := v[features.MidMean] - v[features.CenterMean]
		toEdge := v[features.MidMean] - v[features.EdgeMean]
		sameSide := (toCenter > 0 && toEdge > 0) || (toCenter < 0 && toEdge < 0)
		if sameSide &&
			math.Abs(toCenter)/math.Abs(mean) > th.RingRatio &&
			math.Abs(toEdge)/math.Abs(mean) > th.RingRatio {
			return Ring
		}
	}

	if math.Max(math.Abs(v[features.GradientX]), math.Abs(v[features.GradientY])) > th.GradientCorr {
		return Gradient
	}

	if batch.MeanOfMeans != 0 && mean != 0 {
		shift := math.Abs(mean-batch.MeanOfMeans) / math.Abs(batch.MeanOfMeans)
		cv := v[features.Std] / math.Abs(mean)
		if shift > th.GlobalShiftRatio && cv < th.LowVarianceCV {
			return GlobalShift
		}
	}

	return Normal
}

// GradientAxis reports the dominant tilt direction, "x" or "y".
func GradientAxis(v features.Vector) string {
	if math.Abs(v[features.GradientY]) > math.Abs(v[features.GradientX]) {
		return "y"
	}
	return "x"
}

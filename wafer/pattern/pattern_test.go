package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wafermap/wafermap/wafer"
	"github.com/wafermap/wafermap/wafer/features"
	"github.com/wafermap/wafermap/wafer/internal/testutil"
	"github.com/wafermap/wafermap/wafer/zonal"
)

// base is a flat wafer at level 1 with unit zone means.
func base() features.Vector {
	var v features.Vector
	v[features.Mean] = 1
	v[features.Std] = 0.01
	v[features.CenterMean] = 1
	v[features.MidMean] = 1
	v[features.EdgeMean] = 1
	v[features.CenterRatio] = 1
	v[features.MidRatio] = 1
	v[features.EdgeRatio] = 1
	return v
}

func TestClassify_NonOutlierAlwaysNormal(t *testing.T) {
	th := wafer.DefaultPatternThresholds()
	v := base()
	v[features.Hotspot] = 100
	v[features.GradientX] = 0.99
	assert.Equal(t, Normal, Classify(v, false, Batch{MeanOfMeans: 5}, th))
}

func TestClassify_Rules(t *testing.T) {
	th := wafer.DefaultPatternThresholds()
	batch := Batch{MeanOfMeans: 1}

	tests := []struct {
		name   string
		mutate func(*features.Vector)
		batch  Batch
		want   Label
	}{
		{"hotspot", func(v *features.Vector) { v[features.Hotspot] = 4.5 }, batch, Hotspot},
		{"hotspot at threshold is not a hotspot", func(v *features.Vector) { v[features.Hotspot] = 4 }, batch, Normal},
		{"edge degradation", func(v *features.Vector) {
			v[features.EdgeCenterDelta] = -1.5
			v[features.RadialSlope] = -0.8
		}, batch, EdgeDegradation},
		{"edge delta without falling slope", func(v *features.Vector) {
			v[features.EdgeCenterDelta] = -1.5
			v[features.RadialSlope] = 0.2
		}, batch, Normal},
		{"ring raised", func(v *features.Vector) { v[features.MidMean] = 1.1 }, batch, Ring},
		{"ring depressed", func(v *features.Vector) { v[features.MidMean] = 0.9 }, batch, Ring},
		{"mid between center and edge is not a ring", func(v *features.Vector) {
			v[features.CenterMean] = 0.8
			v[features.MidMean] = 1
			v[features.EdgeMean] = 1.2
		}, batch, Normal},
		{"gradient x", func(v *features.Vector) { v[features.GradientX] = 0.6 }, batch, Gradient},
		{"gradient y negative", func(v *features.Vector) { v[features.GradientY] = -0.5 }, batch, Gradient},
		{"global shift", func(v *features.Vector) { v[features.Mean] = 1.2 }, batch, GlobalShift},
		{"shift with high variance", func(v *features.Vector) {
			v[features.Mean] = 1.2
			v[features.Std] = 0.2
		}, batch, Normal},
		{"zero batch mean disables shift", func(v *features.Vector) { v[features.Mean] = 1.2 }, Batch{}, Normal},
		{"nothing matches", func(*features.Vector) {}, batch, Normal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := base()
			tt.mutate(&v)
			assert.Equal(t, tt.want, Classify(v, true, tt.batch, th))
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// GIVEN a vector matching every rule at once
	th := wafer.DefaultPatternThresholds()
	v := base()
	v[features.Mean] = 1.2
	v[features.Hotspot] = 6
	v[features.EdgeCenterDelta] = -2
	v[features.RadialSlope] = -1
	v[features.MidMean] = 1.5
	v[features.GradientX] = 0.9
	batch := Batch{MeanOfMeans: 1}

	// WHEN rules are disabled one by one from the top
	got := []Label{Classify(v, true, batch, th)}
	v[features.Hotspot] = 0
	got = append(got, Classify(v, true, batch, th))
	v[features.EdgeCenterDelta] = 0
	got = append(got, Classify(v, true, batch, th))
	v[features.MidMean] = 1
	got = append(got, Classify(v, true, batch, th))
	v[features.GradientX] = 0
	got = append(got, Classify(v, true, batch, th))
	v[features.Mean] = 1
	got = append(got, Classify(v, true, batch, th))

	// THEN labels appear in the documented priority order
	assert.Equal(t, Labels, got)
}

func TestClassify_ExtractedShapes(t *testing.T) {
	th := wafer.DefaultPatternThresholds()
	tests := []struct {
		name  string
		shape testutil.Shape
		want  Label
	}{
		{"spike", testutil.Spike(1, 3), Hotspot},
		{"edge roll-off", testutil.EdgeRollOff(10, 0.3), EdgeDegradation},
		{"mid band", testutil.MidBand(1, 1.3), Ring},
		{"tilt", testutil.TiltX(10, 0.01), Gradient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := testutil.Wafer(t, tt.name, tt.shape)
			zs, profile := zonal.Analyze(ds, 0, wafer.DefaultBins)
			v := features.Extract(ds, zs, profile)
			assert.Equal(t, tt.want, Classify(v, true, NewBatch([]features.Vector{v}), th))
		})
	}
}

func TestNewBatch(t *testing.T) {
	a, b := base(), base()
	b[features.Mean] = 3
	assert.Equal(t, 2.0, NewBatch([]features.Vector{a, b}).MeanOfMeans)
}

func TestGradientAxis(t *testing.T) {
	var v features.Vector
	v[features.GradientX] = 0.3
	v[features.GradientY] = -0.7
	assert.Equal(t, "y", GradientAxis(v))
	v[features.GradientX] = -0.9
	assert.Equal(t, "x", GradientAxis(v))
	assert.Equal(t, "x", GradientAxis(features.Vector{}))
}

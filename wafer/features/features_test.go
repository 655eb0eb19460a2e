package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wafermap/wafermap/wafer"
	"github.com/wafermap/wafermap/wafer/internal/testutil"
	"github.com/wafermap/wafermap/wafer/zonal"
)

func extract(t *testing.T, shape testutil.Shape) Vector {
	t.Helper()
	ds := testutil.Wafer(t, "w", shape)
	zs, profile := zonal.Analyze(ds, 0, wafer.DefaultBins)
	return Extract(ds, zs, profile)
}

func TestNames_MatchVectorOrder(t *testing.T) {
	got := Names()
	require.Len(t, got, Len)
	assert.Equal(t, "mean", got[Mean])
	assert.Equal(t, "radial_slope", got[RadialSlope])
	assert.Equal(t, "hotspot", got[Hotspot])

	// Names returns a copy
	got[0] = "changed"
	assert.Equal(t, "mean", Names()[0])
}

func TestVector_Named(t *testing.T) {
	var v Vector
	v[GradientX] = 0.5
	named := v.Named()
	assert.Len(t, named, Len)
	assert.Equal(t, 0.5, named["gradient_x"])
	assert.Equal(t, v[:], v.Slice())
}

func TestExtract_FlatWafer(t *testing.T) {
	// GIVEN a wafer with no spread
	v := extract(t, testutil.Flat(7))

	// THEN ratios are one and every std-normalized feature is zero
	assert.Equal(t, 7.0, v[Mean])
	assert.Equal(t, 0.0, v[Std])
	for _, i := range []int{CenterRatio, MidRatio, EdgeRatio} {
		assert.Equal(t, 1.0, v[i], Names()[i])
	}
	for _, i := range []int{RadialSlope, GradientX, GradientY, EdgeCenterDelta, Hotspot} {
		assert.Equal(t, 0.0, v[i], Names()[i])
	}
}

func TestExtract_ZeroMean_RatiosOne(t *testing.T) {
	v := extract(t, testutil.Flat(0))
	assert.Equal(t, 1.0, v[CenterRatio])
	assert.Equal(t, 1.0, v[EdgeRatio])
}

func TestExtract_TiltX(t *testing.T) {
	// GIVEN values rising linearly along x
	v := extract(t, testutil.TiltX(10, 0.01))

	// THEN gradient_x is a perfect correlation and gradient_y vanishes
	assert.InDelta(t, 1.0, v[GradientX], 1e-9)
	assert.InDelta(t, 0.0, v[GradientY], 1e-9)
	// a symmetric tilt has no radial structure
	assert.InDelta(t, 0.0, v[EdgeCenterDelta], 1e-9)
}

func TestExtract_EdgeRollOff(t *testing.T) {
	v := extract(t, testutil.EdgeRollOff(10, 0.2))

	assert.Less(t, v[EdgeCenterDelta], 0.0)
	assert.Less(t, v[RadialSlope], 0.0)
	assert.Less(t, v[EdgeRatio], 1.0)
	assert.Greater(t, v[CenterRatio], 1.0)
}

func TestExtract_MidBand(t *testing.T) {
	v := extract(t, testutil.MidBand(1, 1.3))

	assert.Equal(t, 1.0, v[CenterMean])
	assert.InDelta(t, 1.3, v[MidMean], 1e-12)
	assert.Greater(t, v[MidRatio], v[CenterRatio])
	assert.Greater(t, v[MidRatio], v[EdgeRatio])
	assert.InDelta(t, 0.0, v[EdgeCenterDelta], 1e-12)
}

func TestExtract_Spike(t *testing.T) {
	// One of 121 sites at 3× the level: max|v-mean|/std ≈ 10.9
	v := extract(t, testutil.Spike(1, 3))
	assert.Greater(t, v[Hotspot], 10.0)
	assert.Less(t, v[Hotspot], 11.5)
}

func TestExtract_EmptyZoneUsesOverallMean(t *testing.T) {
	// GIVEN samples only at the center and the rim, so the mid zone is empty
	ds, err := wafer.NewDataset("w", []wafer.Sample{
		{X: 0, Y: 0, Value: 1}, {X: 10, Y: 0, Value: 3}, {X: -10, Y: 0, Value: 5},
	})
	require.NoError(t, err)
	zs, profile := zonal.Analyze(ds, 0, 4)
	require.Equal(t, 0, zs.Mid.Count)

	v := Extract(ds, zs, profile)
	assert.Equal(t, 3.0, v[MidMean])
	assert.Equal(t, 1.0, v[MidRatio])
}

func TestExtract_AllFinite(t *testing.T) {
	shapes := []testutil.Shape{
		testutil.Flat(0),
		testutil.Flat(-2),
		testutil.WithNoise(testutil.Flat(0), 1e-9, 1),
		testutil.WithNoise(testutil.EdgeRollOff(1e6, 0.5), 10, 2),
	}
	for _, shape := range shapes {
		v := extract(t, shape)
		for i, x := range v {
			assert.False(t, math.IsNaN(x) || math.IsInf(x, 0), "%s = %v", Names()[i], x)
		}
	}
}

func TestExtract_Deterministic(t *testing.T) {
	ds := testutil.Wafer(t, "w", testutil.WithNoise(testutil.TiltX(5, 0.02), 0.3, 11))
	zs, profile := zonal.Analyze(ds, 0, 20)
	assert.Equal(t, Extract(ds, zs, profile), Extract(ds, zs, profile))
}

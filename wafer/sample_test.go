package wafer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grid3x3(value float64) []Sample {
	var out []Sample
	for _, x := range []float64{-1, 0, 1} {
		for _, y := range []float64{-1, 0, 1} {
			out = append(out, Sample{X: x, Y: y, Value: value})
		}
	}
	return out
}

func TestNewDataset_DropsNonFiniteSamples(t *testing.T) {
	// GIVEN samples with NaN and Inf entries
	samples := []Sample{
		{X: 0, Y: 0, Value: 1},
		{X: math.NaN(), Y: 0, Value: 1},
		{X: 1, Y: math.Inf(1), Value: 1},
		{X: 1, Y: 1, Value: math.NaN()},
	}

	// WHEN a dataset is built
	ds, err := NewDataset("w", samples)

	// THEN only the finite sample survives and a warning is recorded
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
	assert.Contains(t, ds.Warnings()[0], "dropped 3 non-finite samples")
}

func TestNewDataset_NoFiniteSamples_Errors(t *testing.T) {
	_, err := NewDataset("w", []Sample{{X: math.NaN()}})
	assert.Error(t, err)

	_, err = NewDataset("empty", nil)
	assert.Error(t, err)
}

func TestNewDataset_FewSamples_WarnsButAccepts(t *testing.T) {
	ds, err := NewDataset("small", grid3x3(1))
	require.NoError(t, err)
	assert.Equal(t, 9, ds.Len())
	require.Len(t, ds.Warnings(), 1)
	assert.Contains(t, ds.Warnings()[0], "only 9 samples")
}

func TestDataset_AccessorsReturnCopies(t *testing.T) {
	ds, err := NewDataset("w", grid3x3(2))
	require.NoError(t, err)

	samples := ds.Samples()
	samples[0].Value = 99
	assert.Equal(t, 2.0, ds.At(0).Value, "mutating Samples() must not change the dataset")

	warnings := ds.Warnings()
	warnings[0] = "changed"
	assert.NotEqual(t, "changed", ds.Warnings()[0])
}

func TestDataset_Geometry(t *testing.T) {
	ds, err := NewDataset("w", []Sample{{X: 3, Y: 4, Value: 1}, {X: -1, Y: 0, Value: 3}})
	require.NoError(t, err)

	assert.Equal(t, 5.0, ds.MaxRadius())
	assert.Equal(t, []float64{5, 1}, ds.Radii())
	assert.Equal(t, 2.0, ds.Mean())
	xs, ys := ds.Coords()
	assert.Equal(t, []float64{3, -1}, xs)
	assert.Equal(t, []float64{4, 0}, ys)
	assert.Equal(t, []float64{1, 3}, ds.Values())
}

func TestDataset_IsDegenerate(t *testing.T) {
	tests := []struct {
		name    string
		samples []Sample
		want    bool
	}{
		{"single point", []Sample{{X: 1, Y: 1}}, true},
		{"repeated point", []Sample{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}}, true},
		{"two points", []Sample{{X: 0, Y: 0}, {X: 1, Y: 1}}, true},
		{"collinear diagonal", []Sample{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: -5, Y: -5}}, true},
		{"collinear vertical", []Sample{{X: 3, Y: 0}, {X: 3, Y: 1}, {X: 3, Y: -7}}, true},
		{"triangle", []Sample{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}, false},
		{"grid", grid3x3(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := NewDataset(tt.name, tt.samples)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ds.IsDegenerate())
		})
	}
}

func TestDataset_DistinctCoordinates(t *testing.T) {
	// GIVEN a location measured three times among single measurements
	ds, err := NewDataset("dup", []Sample{
		{X: 1, Y: 0, Value: 2},
		{X: 0, Y: 0, Value: 5},
		{X: 1, Y: 0, Value: 4},
		{X: 0, Y: 1, Value: 7},
		{X: 1, Y: 0, Value: 9},
	})
	require.NoError(t, err)

	// WHEN distinct coordinates are taken
	got := ds.DistinctCoordinates()

	// THEN locations keep first-occurrence order and repeats are averaged
	assert.Equal(t, []Sample{
		{X: 1, Y: 0, Value: 5},
		{X: 0, Y: 0, Value: 5},
		{X: 0, Y: 1, Value: 7},
	}, got)
	assert.Equal(t, 5, ds.Len())
}

func TestDataset_Fingerprint(t *testing.T) {
	// GIVEN two datasets with identical samples but different names
	a, err := NewDataset("a", grid3x3(1))
	require.NoError(t, err)
	b, err := NewDataset("b", grid3x3(1))
	require.NoError(t, err)
	c, err := NewDataset("c", grid3x3(1.0000001))
	require.NoError(t, err)

	// THEN fingerprints depend on contents only
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)
}

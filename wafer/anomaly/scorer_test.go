package anomaly

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wafermap/wafermap/wafer"
	"github.com/wafermap/wafermap/wafer/features"
)

func defaultScorer() *Scorer {
	return NewScorer(wafer.DefaultConfig().Anomaly, DefaultCapabilities())
}

// cluster returns n vectors spread slightly around (1, 0.1) in mean and std,
// with every other feature constant.
func cluster(n int) []features.Vector {
	out := make([]features.Vector, n)
	for i := range out {
		out[i][features.Mean] = 1 + 0.01*float64(i)
		out[i][features.Std] = 0.1 + 0.001*float64((i*7)%n)
		out[i][features.CenterRatio] = 1
	}
	return out
}

func namesFor(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("w%d", i)
	}
	return out
}

func TestScore_IsolatesFarVector(t *testing.T) {
	// GIVEN nine clustered vectors and one far away
	vectors := append(cluster(9), features.Vector{features.Mean: 10, features.Std: 1, features.CenterRatio: 1})

	// WHEN scored with contamination 0.1
	res, err := defaultScorer().Score(namesFor(10), vectors)

	// THEN only the far vector is an outlier and it has the highest score
	require.NoError(t, err)
	assert.Equal(t, []int{9}, res.Outliers())
	for i := 0; i < 9; i++ {
		assert.Less(t, res.Wafers[i].Score, res.Wafers[9].Score)
	}
	assert.Equal(t, "w9", res.Wafers[9].Name)
	for _, w := range res.Wafers {
		assert.Greater(t, w.Score, 0.0)
		assert.LessOrEqual(t, w.Score, 1.0)
	}
}

func TestScore_Deterministic(t *testing.T) {
	vectors := append(cluster(7), features.Vector{features.Mean: 4, features.Std: 0.5})
	a, err := defaultScorer().Score(namesFor(8), vectors)
	require.NoError(t, err)
	b, err := defaultScorer().Score(namesFor(8), vectors)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestScore_BatchSizeGuard(t *testing.T) {
	// GIVEN two wafers
	_, err := defaultScorer().Score(namesFor(2), cluster(2))

	// THEN scoring refuses with the typed error
	var ibs *InsufficientBatchSizeError
	require.True(t, errors.As(err, &ibs))
	assert.Equal(t, 2, ibs.Got)
	assert.Equal(t, wafer.MinBatchSize, ibs.Min)

	// AND three wafers succeed
	res, err := defaultScorer().Score(namesFor(3), cluster(3))
	require.NoError(t, err)
	assert.Len(t, res.Wafers, 3)
}

func TestScore_Unavailable(t *testing.T) {
	s := NewScorer(wafer.DefaultConfig().Anomaly, Capabilities{})
	_, err := s.Score(namesFor(5), cluster(5))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestScore_InvalidInputs(t *testing.T) {
	_, err := defaultScorer().Score(namesFor(4), cluster(5))
	assert.Error(t, err, "name count mismatch")

	cfg := wafer.DefaultConfig().Anomaly
	for _, c := range []float64{0, -0.1, 0.75} {
		cfg.Contamination = c
		_, err := NewScorer(cfg, DefaultCapabilities()).Score(namesFor(5), cluster(5))
		assert.Error(t, err, "contamination %v", c)
		var ibs *InsufficientBatchSizeError
		assert.False(t, errors.As(err, &ibs))
	}
}

func TestScore_IdenticalWafers_NoOutliers(t *testing.T) {
	// GIVEN a batch with no variation at all
	vectors := make([]features.Vector, 6)
	for i := range vectors {
		vectors[i] = features.Vector{features.Mean: 3, features.CenterRatio: 1, features.MidRatio: 1, features.EdgeRatio: 1}
	}

	// WHEN scored
	res, err := defaultScorer().Score(namesFor(6), vectors)

	// THEN every column is reported, every score is 0.5 and nothing is flagged
	require.NoError(t, err)
	assert.Len(t, res.Warnings, features.Len)
	for _, w := range res.Warnings {
		assert.Equal(t, WarningZeroVarianceColumn, w.Kind)
	}
	assert.Empty(t, res.Outliers())
	for _, w := range res.Wafers {
		assert.InDelta(t, 0.5, w.Score, 1e-12)
		assert.Equal(t, [Components]float64{}, w.PCA)
	}
	assert.Equal(t, []float64{0, 0}, res.ExplainedVariance)
}

func TestScore_ZeroVarianceColumnsReported(t *testing.T) {
	res, err := defaultScorer().Score(namesFor(5), cluster(5))
	require.NoError(t, err)

	var cols []string
	for _, w := range res.Warnings {
		cols = append(cols, w.Column)
	}
	assert.NotContains(t, cols, "mean")
	assert.NotContains(t, cols, "std")
	assert.Contains(t, cols, "center_ratio")
	assert.Contains(t, cols, "hotspot")
	assert.Len(t, cols, features.Len-2)
}

func TestScore_ExplainedVariance(t *testing.T) {
	// Only two columns vary, so two components carry all the variance
	res, err := defaultScorer().Score(namesFor(8), cluster(8))
	require.NoError(t, err)

	require.Len(t, res.ExplainedVariance, Components)
	assert.GreaterOrEqual(t, res.ExplainedVariance[0], res.ExplainedVariance[1])
	assert.InDelta(t, 1.0, res.ExplainedVariance[0]+res.ExplainedVariance[1], 1e-9)
}

func TestStandardize(t *testing.T) {
	z, warnings := standardize([]string{"a", "b"}, [][]float64{{1, 5}, {3, 5}})
	assert.Equal(t, []Warning{{Kind: WarningZeroVarianceColumn, Column: "b"}}, warnings)
	assert.Equal(t, -1.0, z.At(0, 0))
	assert.Equal(t, 1.0, z.At(1, 0))
	assert.Equal(t, 0.0, z.At(0, 1))
}

func TestAveragePathLength(t *testing.T) {
	assert.Equal(t, 0.0, averagePathLength(0))
	assert.Equal(t, 0.0, averagePathLength(1))
	assert.Equal(t, 1.0, averagePathLength(2))
	assert.InDelta(t, 10.244771, averagePathLength(256), 1e-6)
}

func TestFitForest_PsiClampedToBatch(t *testing.T) {
	rows := cluster(5)
	z, _ := standardize(features.Names(), [][]float64{rows[0].Slice(), rows[1].Slice(), rows[2].Slice(), rows[3].Slice(), rows[4].Slice()})
	f := fitForest(z, 10, 256, 1)
	assert.Equal(t, 5, f.psi)
	assert.Len(t, f.trees, 10)
}

func TestSubsamples_DrawnFromForestPartition(t *testing.T) {
	// GIVEN a stream seeded with the master seed
	direct := rand.New(rand.NewSource(7))

	// WHEN three subsamples of 4 out of 10 rows are drawn
	got := subsamples(wafer.NewPartitionedRNG(wafer.NewAnalysisKey(7)), 10, 4, 3)

	// THEN each is the next permutation of that stream, truncated
	require.Len(t, got, 3)
	for _, rows := range got {
		assert.Equal(t, direct.Perm(10)[:4], rows)
	}
}

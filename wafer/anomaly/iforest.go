package anomaly

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/wafermap/wafermap/wafer"
)

// eulerGamma is the Euler–Mascheroni constant used in the harmonic number
// approximation.
const eulerGamma = 0.5772156649015329

// itreeNode is one node of an isolation tree. Leaves have left == nil and
// record how many training rows reached them.
type itreeNode struct {
	feature     int
	split       float64
	left, right *itreeNode
	size        int
}

// forest is an isolation forest: an ensemble of random partitioning trees in
// which anomalies are isolated at shallower depths than inliers.
type forest struct {
	trees []*itreeNode
	psi   int // rows per tree
}

// fitForest grows nTrees isolation trees over the rows of x, each on a
// subsample of psi rows drawn without replacement. Subsamples come from the
// forest RNG partition and tree t splits with its own, so results depend only
// on the seed and the data.
func fitForest(x *mat.Dense, nTrees, psi int, seed int64) *forest {
	n, _ := x.Dims()
	if psi <= 0 || psi > n {
		psi = n
	}
	rng := wafer.NewPartitionedRNG(wafer.NewAnalysisKey(seed))
	limit := int(math.Ceil(math.Log2(float64(psi))))

	f := &forest{trees: make([]*itreeNode, nTrees), psi: psi}
	for t, rows := range subsamples(rng, n, psi, nTrees) {
		f.trees[t] = growTree(x, rows, 0, limit, rng.ForSubsystem(wafer.SubsystemTree(t)))
	}
	return f
}

// subsamples draws one psi-row subsample of [0, n) per tree.
func subsamples(rng *wafer.PartitionedRNG, n, psi, nTrees int) [][]int {
	r := rng.ForSubsystem(wafer.SubsystemForest)
	out := make([][]int, nTrees)
	for t := range out {
		out[t] = r.Perm(n)[:psi]
	}
	return out
}

func growTree(x *mat.Dense, rows []int, depth, limit int, r *rand.Rand) *itreeNode {
	if depth >= limit || len(rows) <= 1 {
		return &itreeNode{size: len(rows)}
	}

	// Only features with spread within this node can split it.
	_, d := x.Dims()
	var candidates []int
	lo := make([]float64, d)
	hi := make([]float64, d)
	for j := 0; j < d; j++ {
		lo[j], hi[j] = math.Inf(1), math.Inf(-1)
		for _, i := range rows {
			v := x.At(i, j)
			lo[j] = math.Min(lo[j], v)
			hi[j] = math.Max(hi[j], v)
		}
		if hi[j] > lo[j] {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return &itreeNode{size: len(rows)}
	}

	q := candidates[r.Intn(len(candidates))]
	p := lo[q] + r.Float64()*(hi[q]-lo[q])
	var left, right []int
	for _, i := range rows {
		if x.At(i, q) < p {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &itreeNode{
		feature: q,
		split:   p,
		left:    growTree(x, left, depth+1, limit, r),
		right:   growTree(x, right, depth+1, limit, r),
	}
}

// pathLength returns the depth at which row reaches a leaf, adjusted by the
// expected depth of the unbuilt subtree below it.
func (n *itreeNode) pathLength(row []float64, depth int) float64 {
	for n.left != nil {
		if row[n.feature] < n.split {
			n = n.left
		} else {
			n = n.right
		}
		depth++
	}
	return float64(depth) + averagePathLength(n.size)
}

// score returns 2^(-E[h(x)]/c(psi)) for each row: close to 1 for anomalies,
// well below 0.5 for dense inliers.
func (f *forest) score(x *mat.Dense) []float64 {
	n, d := x.Dims()
	norm := averagePathLength(f.psi)
	out := make([]float64, n)
	row := make([]float64, d)
	for i := 0; i < n; i++ {
		mat.Row(row, i, x)
		total := 0.0
		for _, t := range f.trees {
			total += t.pathLength(row, 0)
		}
		mean := total / float64(len(f.trees))
		if norm == 0 {
			out[i] = 0.5
			continue
		}
		out[i] = math.Pow(2, -mean/norm)
	}
	return out
}

// averagePathLength is c(n), the average path length of an unsuccessful
// binary search tree lookup among n items.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	h := math.Log(float64(n-1)) + eulerGamma
	return 2*h - 2*float64(n-1)/float64(n)
}

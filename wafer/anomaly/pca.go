package anomaly

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Components is the number of principal components kept for display.
const Components = 2

// project returns the coordinates of each row of z on the leading principal
// components and the fraction of total variance each explains. Missing
// components (batch or feature count below Components, or no variance at all)
// are reported as zero.
func project(z *mat.Dense) (coords [][Components]float64, explained []float64) {
	n, d := z.Dims()
	coords = make([][Components]float64, n)
	explained = make([]float64, Components)

	var pc stat.PC
	if !pc.PrincipalComponents(z, nil) {
		return coords, explained
	}
	vars := pc.VarsTo(nil)
	total := 0.0
	for _, v := range vars {
		total += v
	}
	if total <= 0 {
		return coords, explained
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	_, avail := vecs.Dims()
	k := min(Components, avail, d)

	var proj mat.Dense
	proj.Mul(z, vecs.Slice(0, d, 0, k))
	for i := 0; i < n; i++ {
		for c := 0; c < k; c++ {
			coords[i][c] = proj.At(i, c)
		}
	}
	for c := 0; c < k && c < len(vars); c++ {
		explained[c] = vars[c] / total
	}
	return coords, explained
}

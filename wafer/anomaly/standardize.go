package anomaly

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// WarningZeroVarianceColumn marks a feature column with no spread across the batch.
const WarningZeroVarianceColumn = "ZeroVarianceColumn"

// Warning is a non-fatal condition found while scoring.
type Warning struct {
	Kind   string `json:"kind"`
	Column string `json:"column"`
}

// standardize returns the z-scores of every column of rows (population std).
// A column without spread is set to zero and reported.
func standardize(names []string, rows [][]float64) (*mat.Dense, []Warning) {
	n, d := len(rows), len(rows[0])
	z := mat.NewDense(n, d, nil)
	var warnings []Warning
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		for i := range rows {
			col[i] = rows[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if math.IsNaN(std) || std <= 1e-12*math.Max(1, math.Abs(mean)) {
			warnings = append(warnings, Warning{Kind: WarningZeroVarianceColumn, Column: names[j]})
			continue
		}
		for i := range rows {
			z.Set(i, j, (col[i]-mean)/std)
		}
	}
	return z, warnings
}

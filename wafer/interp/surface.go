// Package interp turns scattered wafer samples into a regular grid over the
// wafer's bounding disk.
//
// The primary schemes (linear, cubic) work on a Delaunay triangulation of the
// sample sites. When the triangulation cannot be built, or it leaves too much
// of the disk uncovered, the interpolator falls back to nearest-neighbour and
// marks the surface Degraded. When the samples cannot span an area at all the
// surface is the constant sample mean, also Degraded. Interpolate never fails.
package interp

import (
	"encoding/json"
	"math"

	"github.com/wafermap/wafermap/wafer"
)

// MethodConstant is reported as the effective method of a constant-mean surface.
const MethodConstant = "constant"

// Surface is an N×N grid over [-R, R]². Values[j][i] is the estimate at
// (XS[i], YS[j]); cells outside the disk of radius R or without an estimate
// are invalid and hold NaN.
type Surface struct {
	Resolution      int
	Radius          float64
	XS              []float64
	YS              []float64
	Values          [][]float64
	Valid           [][]bool
	Degraded        bool
	Method          string // scheme that produced the values
	RequestedMethod string
	Warnings        []string
}

func newSurface(n int, radius float64, requested string) *Surface {
	s := &Surface{
		Resolution:      n,
		Radius:          radius,
		XS:              linspace(-radius, radius, n),
		YS:              linspace(-radius, radius, n),
		Values:          make([][]float64, n),
		Valid:           make([][]bool, n),
		Method:          requested,
		RequestedMethod: requested,
	}
	for j := 0; j < n; j++ {
		s.Values[j] = make([]float64, n)
		s.Valid[j] = make([]bool, n)
	}
	s.reset()
	return s
}

func (s *Surface) reset() {
	for j := range s.Values {
		for i := range s.Values[j] {
			s.Values[j][i] = math.NaN()
			s.Valid[j][i] = false
		}
	}
}

// InDisk reports whether cell (i, j) lies inside the wafer disk.
func (s *Surface) InDisk(i, j int) bool {
	x, y := s.XS[i], s.YS[j]
	return x*x+y*y <= s.Radius*s.Radius
}

// At returns the value of cell (i, j) and whether it is valid.
func (s *Surface) At(i, j int) (float64, bool) {
	return s.Values[j][i], s.Valid[j][i]
}

// ValidCount returns the number of valid cells.
func (s *Surface) ValidCount() int {
	n := 0
	for j := range s.Valid {
		for i := range s.Valid[j] {
			if s.Valid[j][i] {
				n++
			}
		}
	}
	return n
}

// Cell is one valid grid cell.
type Cell struct {
	X, Y, Value float64
}

// Cells returns the valid cells in row-major order.
func (s *Surface) Cells() []Cell {
	out := make([]Cell, 0, s.Resolution*s.Resolution)
	for j := range s.Values {
		for i := range s.Values[j] {
			if s.Valid[j][i] {
				out = append(out, Cell{X: s.XS[i], Y: s.YS[j], Value: s.Values[j][i]})
			}
		}
	}
	return out
}

func (s *Surface) warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// MarshalJSON writes invalid cells as null.
func (s *Surface) MarshalJSON() ([]byte, error) {
	values := make([][]*float64, len(s.Values))
	for j, row := range s.Values {
		values[j] = make([]*float64, len(row))
		for i, v := range row {
			if s.Valid[j][i] {
				values[j][i] = wafer.FiniteOrNil(v)
			}
		}
	}
	return json.Marshal(struct {
		Resolution      int          `json:"resolution"`
		Radius          float64      `json:"radius"`
		XS              []float64    `json:"x"`
		YS              []float64    `json:"y"`
		Values          [][]*float64 `json:"values"`
		Degraded        bool         `json:"degraded"`
		Method          string       `json:"method"`
		RequestedMethod string       `json:"requested_method"`
		Warnings        []string     `json:"warnings,omitempty"`
	}{s.Resolution, s.Radius, s.XS, s.YS, values, s.Degraded, s.Method, s.RequestedMethod, s.Warnings})
}

// linspace returns n evenly spaced values over [lo, hi]. The last value is hi exactly.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

package interp

import (
	"encoding/json"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/wafermap/wafermap/wafer"
)

// ScanPoint is one sample of a line scan. Position is the signed distance
// from the wafer center along the scan direction.
type ScanPoint struct {
	Position float64
	Value    float64
	Valid    bool
}

// LineScan samples the interpolant of ds at n evenly spaced points on the
// diameter through the center at angleDeg (counter-clockwise from +x). Points
// outside the disk of radius R, or outside the triangulation for the linear and
// cubic schemes, are invalid. Degenerate samples give the constant mean and a
// failed triangulation falls back to nearest.
func LineScan(ds *wafer.Dataset, angleDeg float64, n int, method string, radius float64) []ScanPoint {
	opts, _ := Options{Resolution: n, Method: method}.normalize()
	if radius <= 0 {
		radius = ds.MaxRadius()
	}
	positions := linspace(-radius, radius, opts.Resolution)
	rad := angleDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	est := scanEstimator(ds, opts.Method)
	out := make([]ScanPoint, len(positions))
	for k, p := range positions {
		out[k] = ScanPoint{Position: p, Value: math.NaN()}
		if math.Abs(p) > radius {
			continue
		}
		v, ok := est.at(p*cos, p*sin)
		if ok && !math.IsNaN(v) {
			out[k].Value = v
			out[k].Valid = true
		}
	}
	return out
}

func scanEstimator(ds *wafer.Dataset, method string) estimator {
	if ds.IsDegenerate() {
		return constantEstimator(ds.Mean())
	}
	sites := uniqueSites(ds)
	var (
		est estimator
		err error
	)
	switch method {
	case wafer.MethodNearest:
		return newNearestEstimator(sites)
	case wafer.MethodCubic:
		est, err = newCubicEstimator(sites)
	default:
		est, err = newLinearEstimator(sites)
	}
	if err != nil {
		logrus.Warnf("line scan of %q: %v; using nearest", ds.Name(), err)
		return newNearestEstimator(sites)
	}
	return est
}

type constantEstimator float64

func (c constantEstimator) at(float64, float64) (float64, bool) { return float64(c), true }

// MarshalJSON writes invalid points with a null value.
func (p ScanPoint) MarshalJSON() ([]byte, error) {
	var v *float64
	if p.Valid {
		v = wafer.FiniteOrNil(p.Value)
	}
	return json.Marshal(struct {
		Position float64  `json:"position"`
		Value    *float64 `json:"value"`
		Valid    bool     `json:"valid"`
	}{p.Position, v, p.Valid})
}

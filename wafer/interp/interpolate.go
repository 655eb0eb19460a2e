package interp

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/wafermap/wafermap/wafer"
)

// Options configure one interpolation.
type Options struct {
	Resolution       int     // grid cells per axis; below 2 uses wafer.DefaultResolution
	Method           string  // wafer.MethodLinear, MethodCubic or MethodNearest
	Radius           float64 // nominal wafer radius; <= 0 uses the max sample radius
	MaxUnsetFraction float64 // in-disk cells without an estimate tolerated before falling back; 0 uses wafer.DefaultMaxUnsetFraction
}

// NoUnsetTolerance as MaxUnsetFraction makes any unset in-disk cell trigger the
// nearest-neighbour fallback.
const NoUnsetTolerance = -1.0

// OptionsFromConfig maps the interpolation section of a Config to Options.
// A configured max_unset_fraction of 0 keeps its zero-tolerance meaning.
func OptionsFromConfig(cfg wafer.InterpolationConfig) Options {
	maxUnset := cfg.MaxUnsetFraction
	if maxUnset == 0 {
		maxUnset = NoUnsetTolerance
	}
	return Options{
		Resolution:       cfg.Resolution,
		Method:           cfg.Method,
		Radius:           cfg.Radius,
		MaxUnsetFraction: maxUnset,
	}
}

// normalize replaces unusable options with defaults, reporting each substitution.
func (o Options) normalize() (Options, []string) {
	var warnings []string
	if o.Resolution == 0 {
		o.Resolution = wafer.DefaultResolution
	} else if o.Resolution < 2 {
		warnings = append(warnings, fmt.Sprintf("resolution %d too small; using %d", o.Resolution, wafer.DefaultResolution))
		o.Resolution = wafer.DefaultResolution
	}
	if o.Method == "" {
		o.Method = wafer.MethodLinear
	} else if !wafer.ValidMethods[o.Method] {
		warnings = append(warnings, fmt.Sprintf("unknown method %q; using %s", o.Method, wafer.MethodLinear))
		o.Method = wafer.MethodLinear
	}
	switch f := o.MaxUnsetFraction; {
	case math.IsNaN(f) || f > 1:
		warnings = append(warnings, fmt.Sprintf("max unset fraction %v invalid; using %v", f, wafer.DefaultMaxUnsetFraction))
		o.MaxUnsetFraction = wafer.DefaultMaxUnsetFraction
	case f == 0:
		o.MaxUnsetFraction = wafer.DefaultMaxUnsetFraction
	case f < 0:
		o.MaxUnsetFraction = 0
	}
	return o, warnings
}

// Interpolate grids ds over [-R, R]². It never fails: a failed or insufficient
// primary scheme falls back to nearest-neighbour, and samples that span no area
// produce the constant sample mean. Both cases set Degraded.
func Interpolate(ds *wafer.Dataset, opts Options) *Surface {
	opts, warnings := opts.normalize()
	radius := opts.Radius
	if radius <= 0 {
		radius = ds.MaxRadius()
	}

	s := newSurface(opts.Resolution, radius, opts.Method)
	s.Warnings = append(s.Warnings, warnings...)

	if ds.IsDegenerate() || radius == 0 {
		fillConstant(s, ds.Mean())
		s.warn("fewer than 2 non-collinear sample locations; surface is the constant sample mean")
		logrus.Warnf("interpolation of %q degraded to constant mean", ds.Name())
		return s
	}

	sites := uniqueSites(ds)
	if opts.Method != wafer.MethodNearest {
		unset, err := tryPrimary(s, opts.Method, sites)
		if err == nil && unset <= opts.MaxUnsetFraction {
			return s
		}
		if err != nil {
			s.warn(fmt.Sprintf("%s interpolation failed: %v; fell back to nearest", opts.Method, err))
		} else {
			s.warn(fmt.Sprintf("%s interpolation left %.1f%% of the disk unset; fell back to nearest", opts.Method, unset*100))
		}
		logrus.Warnf("interpolation of %q degraded: %s", ds.Name(), s.Warnings[len(s.Warnings)-1])
		s.reset()
		s.Degraded = true
		s.Method = wafer.MethodNearest
	}

	fill(s, newNearestEstimator(sites))
	return s
}

// tryPrimary fills s with a triangulation-based scheme and returns the fraction
// of in-disk cells left unset. Numerical panics are reported as errors.
func tryPrimary(s *Surface, method string, sites []site) (unset float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("numerical failure: %v", r)
		}
	}()

	var est estimator
	switch method {
	case wafer.MethodCubic:
		est, err = newCubicEstimator(sites)
	default:
		est, err = newLinearEstimator(sites)
	}
	if err != nil {
		return 1, err
	}
	return fill(s, est), nil
}

// fill evaluates est at every in-disk cell and returns the unset fraction.
func fill(s *Surface, est estimator) float64 {
	inDisk, unset := 0, 0
	for j := range s.Values {
		for i := range s.Values[j] {
			if !s.InDisk(i, j) {
				continue
			}
			inDisk++
			v, ok := est.at(s.XS[i], s.YS[j])
			if !ok || math.IsNaN(v) {
				unset++
				continue
			}
			s.Values[j][i] = v
			s.Valid[j][i] = true
		}
	}
	if inDisk == 0 {
		return 0
	}
	return float64(unset) / float64(inDisk)
}

func fillConstant(s *Surface, mean float64) {
	s.Degraded = true
	s.Method = MethodConstant
	for j := range s.Values {
		for i := range s.Values[j] {
			if s.InDisk(i, j) {
				s.Values[j][i] = mean
				s.Valid[j][i] = true
			}
		}
	}
}

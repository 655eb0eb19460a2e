package wafer

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// MinQualitySamples is the sample count below which interpolation quality is
// considered poor. Smaller datasets are still accepted.
const MinQualitySamples = 10

// collinearTolerance is the relative cross-product magnitude below which three
// points are treated as lying on one line.
const collinearTolerance = 1e-9

// Sample is one measurement site. Coordinates are millimetres from the wafer center.
type Sample struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Value float64 `json:"value"`
}

// Radius returns the distance of the sample from the wafer center.
func (s Sample) Radius() float64 {
	return math.Hypot(s.X, s.Y)
}

func (s Sample) finite() bool {
	return !math.IsNaN(s.X) && !math.IsInf(s.X, 0) &&
		!math.IsNaN(s.Y) && !math.IsInf(s.Y, 0) &&
		!math.IsNaN(s.Value) && !math.IsInf(s.Value, 0)
}

// Dataset is the immutable, ordered set of samples measured on one wafer.
// Accessors return copies; derived datasets (e.g. GPC) are new values.
type Dataset struct {
	name     string
	samples  []Sample
	warnings []string
}

// NewDataset builds a Dataset from samples. Samples with a non-finite coordinate
// or value are dropped and reported through Warnings. At least one sample must
// survive.
func NewDataset(name string, samples []Sample) (*Dataset, error) {
	kept := make([]Sample, 0, len(samples))
	dropped := 0
	for _, s := range samples {
		if !s.finite() {
			dropped++
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("dataset %q: no finite samples (%d dropped)", name, dropped)
	}

	ds := &Dataset{name: name, samples: kept}
	if dropped > 0 {
		ds.warn(fmt.Sprintf("dropped %d non-finite samples", dropped))
	}
	if len(kept) < MinQualitySamples {
		ds.warn(fmt.Sprintf("only %d samples; interpolation quality needs at least %d", len(kept), MinQualitySamples))
	}
	return ds, nil
}

func (d *Dataset) warn(msg string) {
	d.warnings = append(d.warnings, msg)
	logrus.Debugf("dataset %q: %s", d.name, msg)
}

// Name returns the dataset identifier.
func (d *Dataset) Name() string { return d.name }

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.samples) }

// At returns the i-th sample.
func (d *Dataset) At(i int) Sample { return d.samples[i] }

// Samples returns a copy of the samples in load order.
func (d *Dataset) Samples() []Sample {
	out := make([]Sample, len(d.samples))
	copy(out, d.samples)
	return out
}

// Warnings returns the non-fatal issues recorded while building the dataset.
func (d *Dataset) Warnings() []string {
	out := make([]string, len(d.warnings))
	copy(out, d.warnings)
	return out
}

// Values returns the measured values in sample order.
func (d *Dataset) Values() []float64 {
	out := make([]float64, len(d.samples))
	for i, s := range d.samples {
		out[i] = s.Value
	}
	return out
}

// Coords returns the x and y coordinates in sample order.
func (d *Dataset) Coords() (xs, ys []float64) {
	xs = make([]float64, len(d.samples))
	ys = make([]float64, len(d.samples))
	for i, s := range d.samples {
		xs[i] = s.X
		ys[i] = s.Y
	}
	return xs, ys
}

// Radii returns the radius of every sample.
func (d *Dataset) Radii() []float64 {
	out := make([]float64, len(d.samples))
	for i, s := range d.samples {
		out[i] = s.Radius()
	}
	return out
}

// MaxRadius returns the largest sample radius, the default bounding disk.
func (d *Dataset) MaxRadius() float64 {
	r := 0.0
	for _, s := range d.samples {
		r = math.Max(r, s.Radius())
	}
	return r
}

// Mean returns the arithmetic mean of the values.
func (d *Dataset) Mean() float64 {
	return CalculateMean(d.Values())
}

// DistinctCoordinates returns one sample per distinct (x, y) location in
// first-occurrence order. Co-located samples collapse into one carrying the
// mean of their values.
func (d *Dataset) DistinctCoordinates() []Sample {
	type key struct{ x, y float64 }
	pos := make(map[key]int, len(d.samples))
	var out []Sample
	var counts []int
	for _, s := range d.samples {
		k := key{s.X, s.Y}
		if j, ok := pos[k]; ok {
			out[j].Value += s.Value
			counts[j]++
			continue
		}
		pos[k] = len(out)
		out = append(out, s)
		counts = append(counts, 1)
	}
	for j := range out {
		out[j].Value /= float64(counts[j])
	}
	return out
}

// IsDegenerate reports whether the samples cannot span a triangulation:
// fewer than three distinct locations, or all locations on a single line.
func (d *Dataset) IsDegenerate() bool {
	pts := d.DistinctCoordinates()
	if len(pts) < 3 {
		return true
	}

	p0, p1 := pts[0], pts[1]
	dx, dy := p1.X-p0.X, p1.Y-p0.Y
	base := math.Hypot(dx, dy)
	for _, s := range pts[2:] {
		ex, ey := s.X-p0.X, s.Y-p0.Y
		cross := dx*ey - dy*ex
		if math.Abs(cross) > collinearTolerance*base*math.Hypot(ex, ey) {
			return false
		}
	}
	return true
}

// Fingerprint returns a SHA256 digest of the sample contents. Two datasets with
// the same samples in the same order share a fingerprint regardless of name.
func (d *Dataset) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	for _, s := range d.samples {
		for _, v := range [3]float64{s.X, s.Y, s.Value} {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

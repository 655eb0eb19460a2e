package wafer

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config groups every tunable of a wafer analysis run. It is loadable from a
// YAML file; keys absent from the file keep their DefaultConfig values.
type Config struct {
	Interpolation InterpolationConfig `yaml:"interpolation" json:"interpolation"`
	Zonal         ZonalConfig         `yaml:"zonal" json:"zonal"`
	Anomaly       AnomalyConfig       `yaml:"anomaly" json:"anomaly"`
	Pattern       PatternThresholds   `yaml:"pattern" json:"pattern"`
}

// InterpolationConfig controls the grid interpolator.
type InterpolationConfig struct {
	Resolution       int     `yaml:"resolution" json:"resolution"`                 // grid cells per axis
	Method           string  `yaml:"method" json:"method"`                         // "linear", "cubic" or "nearest"
	Radius           float64 `yaml:"radius" json:"radius"`                         // nominal wafer radius in mm; 0 = max sample radius
	MaxUnsetFraction float64 `yaml:"max_unset_fraction" json:"max_unset_fraction"` // in-disk cells left unset before falling back to nearest
}

// ZonalConfig controls the radial profile.
type ZonalConfig struct {
	Bins int `yaml:"bins" json:"bins"`
}

// AnomalyConfig controls the batch outlier scorer.
type AnomalyConfig struct {
	Contamination float64 `yaml:"contamination" json:"contamination"` // expected outlier fraction, (0, 0.5]
	NTrees        int     `yaml:"n_trees" json:"n_trees"`
	MaxSamples    int     `yaml:"max_samples" json:"max_samples"` // 0 = min(256, batch size)
	Seed          int64   `yaml:"seed" json:"seed"`
}

// PatternThresholds are the documented constants of the rule-based classifier.
type PatternThresholds struct {
	HotspotSigma     float64 `yaml:"hotspot_sigma" json:"hotspot_sigma"`           // hotspot proxy above this is a Hotspot
	EdgeDelta        float64 `yaml:"edge_delta" json:"edge_delta"`                 // edge-center delta below minus this is EdgeDegradation
	RingRatio        float64 `yaml:"ring_ratio" json:"ring_ratio"`                 // |mid - center| and |mid - edge| relative to the mean
	GradientCorr     float64 `yaml:"gradient_corr" json:"gradient_corr"`           // |normalized X/Y gradient| above this is a Gradient
	GlobalShiftRatio float64 `yaml:"global_shift_ratio" json:"global_shift_ratio"` // |mean - batch mean| relative to the batch mean
	LowVarianceCV    float64 `yaml:"low_variance_cv" json:"low_variance_cv"`       // std / |mean| below this counts as flat
}

// Valid interpolation method names.
const (
	MethodLinear  = "linear"
	MethodCubic   = "cubic"
	MethodNearest = "nearest"
)

// ValidMethods is the set of recognized interpolation methods.
var ValidMethods = map[string]bool{MethodLinear: true, MethodCubic: true, MethodNearest: true}

const (
	DefaultResolution       = 100
	DefaultBins             = 20
	DefaultContamination    = 0.1
	DefaultNTrees           = 200
	DefaultSeed             = 42
	DefaultMaxUnsetFraction = 0.5
	MinBatchSize            = 3
)

// DefaultPatternThresholds returns the classifier defaults.
func DefaultPatternThresholds() PatternThresholds {
	return PatternThresholds{
		HotspotSigma:     4.0,
		EdgeDelta:        1.0,
		RingRatio:        0.05,
		GradientCorr:     0.40,
		GlobalShiftRatio: 0.05,
		LowVarianceCV:    0.05,
	}
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Interpolation: InterpolationConfig{
			Resolution:       DefaultResolution,
			Method:           MethodLinear,
			MaxUnsetFraction: DefaultMaxUnsetFraction,
		},
		Zonal: ZonalConfig{Bins: DefaultBins},
		Anomaly: AnomalyConfig{
			Contamination: DefaultContamination,
			NTrees:        DefaultNTrees,
			Seed:          DefaultSeed,
		},
		Pattern: DefaultPatternThresholds(),
	}
}

// LoadConfig reads a YAML config file over DefaultConfig.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate checks that all parameter ranges are usable.
func (c *Config) Validate() error {
	if c.Interpolation.Resolution < 2 {
		return fmt.Errorf("interpolation.resolution must be at least 2, got %d", c.Interpolation.Resolution)
	}
	if !ValidMethods[c.Interpolation.Method] {
		return fmt.Errorf("unknown interpolation method %q; valid: linear, cubic, nearest", c.Interpolation.Method)
	}
	if err := validateFinite("interpolation.radius", c.Interpolation.Radius); err != nil {
		return err
	}
	if c.Interpolation.Radius < 0 {
		return fmt.Errorf("interpolation.radius must be non-negative, got %f", c.Interpolation.Radius)
	}
	if f := c.Interpolation.MaxUnsetFraction; math.IsNaN(f) || f < 0 || f > 1 {
		return fmt.Errorf("interpolation.max_unset_fraction must be in [0, 1], got %f", f)
	}
	if c.Zonal.Bins < 1 {
		return fmt.Errorf("zonal.bins must be positive, got %d", c.Zonal.Bins)
	}
	if err := ValidateContamination(c.Anomaly.Contamination); err != nil {
		return err
	}
	if c.Anomaly.NTrees < 1 {
		return fmt.Errorf("anomaly.n_trees must be positive, got %d", c.Anomaly.NTrees)
	}
	if c.Anomaly.MaxSamples < 0 {
		return fmt.Errorf("anomaly.max_samples must be non-negative, got %d", c.Anomaly.MaxSamples)
	}
	return c.Pattern.Validate()
}

// Validate checks that every threshold is a finite positive number.
func (p *PatternThresholds) Validate() error {
	named := []struct {
		name string
		val  float64
	}{
		{"pattern.hotspot_sigma", p.HotspotSigma},
		{"pattern.edge_delta", p.EdgeDelta},
		{"pattern.ring_ratio", p.RingRatio},
		{"pattern.gradient_corr", p.GradientCorr},
		{"pattern.global_shift_ratio", p.GlobalShiftRatio},
		{"pattern.low_variance_cv", p.LowVarianceCV},
	}
	for _, n := range named {
		if err := validateFinite(n.name, n.val); err != nil {
			return err
		}
		if n.val <= 0 {
			return fmt.Errorf("%s must be positive, got %f", n.name, n.val)
		}
	}
	return nil
}

// ValidateContamination checks the expected outlier fraction is in (0, 0.5].
func ValidateContamination(c float64) error {
	if math.IsNaN(c) || c <= 0 || c > 0.5 {
		return fmt.Errorf("contamination must be in (0, 0.5], got %f", c)
	}
	return nil
}

func validateFinite(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	return nil
}

package wafer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wafermap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.Interpolation.Resolution)
	assert.Equal(t, MethodLinear, cfg.Interpolation.Method)
	assert.Equal(t, 20, cfg.Zonal.Bins)
	assert.Equal(t, 0.1, cfg.Anomaly.Contamination)
	assert.Equal(t, 200, cfg.Anomaly.NTrees)
	assert.Equal(t, int64(42), cfg.Anomaly.Seed)
	assert.Equal(t, 4.0, cfg.Pattern.HotspotSigma)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	// GIVEN a file overriding only two keys
	path := writeConfig(t, "interpolation:\n  method: cubic\nanomaly:\n  contamination: 0.2\n")

	// WHEN loaded
	cfg, err := LoadConfig(path)

	// THEN overridden keys change and the rest keep their defaults
	require.NoError(t, err)
	assert.Equal(t, MethodCubic, cfg.Interpolation.Method)
	assert.Equal(t, 0.2, cfg.Anomaly.Contamination)
	assert.Equal(t, 100, cfg.Interpolation.Resolution)
	assert.Equal(t, 0.05, cfg.Pattern.RingRatio)
}

func TestLoadConfig_UnknownKeyRejected(t *testing.T) {
	// Strict parsing: a typo must fail loudly
	path := writeConfig(t, "interpolation:\n  resolutoin: 50\n")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"resolution too small", func(c *Config) { c.Interpolation.Resolution = 1 }},
		{"unknown method", func(c *Config) { c.Interpolation.Method = "spline" }},
		{"negative radius", func(c *Config) { c.Interpolation.Radius = -1 }},
		{"unset fraction above one", func(c *Config) { c.Interpolation.MaxUnsetFraction = 1.5 }},
		{"zero bins", func(c *Config) { c.Zonal.Bins = 0 }},
		{"zero contamination", func(c *Config) { c.Anomaly.Contamination = 0 }},
		{"contamination above half", func(c *Config) { c.Anomaly.Contamination = 0.6 }},
		{"no trees", func(c *Config) { c.Anomaly.NTrees = 0 }},
		{"negative max samples", func(c *Config) { c.Anomaly.MaxSamples = -1 }},
		{"zero threshold", func(c *Config) { c.Pattern.GradientCorr = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateContamination_Bounds(t *testing.T) {
	assert.NoError(t, ValidateContamination(0.5))
	assert.NoError(t, ValidateContamination(0.01))
	assert.Error(t, ValidateContamination(0))
	assert.Error(t, ValidateContamination(0.51))
}

func TestLoadConfig_ShippedFileMatchesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "wafermap.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

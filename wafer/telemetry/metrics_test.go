package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_WriteTextfile(t *testing.T) {
	// GIVEN a run with one degraded interpolation and two outliers
	m := NewMetrics()
	m.WaferProcessed(false, "linear")
	m.WaferProcessed(true, "nearest")
	m.WaferProcessed(true, "constant")
	m.Outlier("Ring")
	m.Outlier("Ring")
	m.BatchScored(3)
	m.ObserveStage("score", time.Now())

	// WHEN written as a textfile
	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, m.WriteTextfile(path))

	// THEN every collector appears with its value
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "wafermap_wafers_processed_total 3")
	assert.Contains(t, text, `wafermap_interpolations_degraded_total{method="nearest"} 1`)
	assert.Contains(t, text, `wafermap_interpolations_degraded_total{method="constant"} 1`)
	assert.NotContains(t, text, `method="linear"`)
	assert.Contains(t, text, `wafermap_outliers_total{pattern="Ring"} 2`)
	assert.Contains(t, text, "wafermap_batch_size 3")
	assert.Contains(t, text, `wafermap_stage_duration_seconds_count{stage="score"} 1`)
}

func TestMetrics_RegistryGathers(t *testing.T) {
	m := NewMetrics()
	m.WaferProcessed(false, "linear")

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "wafermap_wafers_processed_total")
	assert.Contains(t, names, "wafermap_batch_size")
}

func TestMetrics_WriteTextfile_BadPath(t *testing.T) {
	m := NewMetrics()
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "run.prom"))
	assert.Error(t, err)
}

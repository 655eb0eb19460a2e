package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wafermap/wafermap/wafer"
)

// resolveConfig loads --config (or the defaults) and applies the analysis
// flags the user set explicitly. Flags left at their defaults never overwrite
// file values.
func resolveConfig(cmd *cobra.Command) (wafer.Config, error) {
	cfg := wafer.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = wafer.LoadConfig(configPath); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}
	if changed("resolution") {
		cfg.Interpolation.Resolution = resolution
	}
	if changed("method") {
		cfg.Interpolation.Method = method
	}
	if changed("radius") {
		cfg.Interpolation.Radius = radius
	}
	if changed("bins") {
		cfg.Zonal.Bins = bins
	}
	if changed("contamination") {
		cfg.Anomaly.Contamination = contamination
	}
	if changed("seed") {
		cfg.Anomaly.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// columnMapping builds the explicit column overrides from the --*-col flags.
func columnMapping() wafer.ColumnMapping {
	m := wafer.ColumnMapping{}
	for f, name := range map[wafer.Field]string{wafer.FieldX: xCol, wafer.FieldY: yCol, wafer.FieldData: dataCol} {
		if name != "" {
			m[f] = name
		}
	}
	return m
}

// loadWafer reads one wafer CSV into a dataset named after the file.
func loadWafer(path string) (*wafer.Dataset, error) {
	table, err := wafer.LoadTable(path)
	if err != nil {
		return nil, err
	}
	return table.Dataset(waferName(path), columnMapping())
}

// waferName is the file name without directory and extension.
func waferName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

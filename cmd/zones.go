package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wafermap/wafermap/wafer"
	"github.com/wafermap/wafermap/wafer/interp"
	"github.com/wafermap/wafermap/wafer/zonal"
)

var fromSurface bool // Compute zones over the interpolated grid instead of raw samples

// zoneReport is the JSON shape shared by the zones and gpc commands.
type zoneReport struct {
	Name     string              `json:"name"`
	Summary  wafer.Summary       `json:"summary"`
	Zones    zonal.ZoneStats     `json:"zones"`
	Profile  zonal.RadialProfile `json:"profile"`
	Source   string              `json:"source"`
	Warnings []string            `json:"warnings,omitempty"`
}

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Compute center/mid/edge zone statistics and the radial profile of one wafer",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runZones(cmd, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("zones: %v", err)
		}
	},
}

func runZones(cmd *cobra.Command, out io.Writer) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ds, err := loadWafer(inputFile)
	if err != nil {
		return err
	}
	return writeJSON(out, buildZoneReport(ds, cfg))
}

func buildZoneReport(ds *wafer.Dataset, cfg wafer.Config) zoneReport {
	r := zoneReport{Name: ds.Name(), Summary: wafer.Describe(ds), Warnings: ds.Warnings()}
	if fromSurface {
		surface := interp.Interpolate(ds, interp.OptionsFromConfig(cfg.Interpolation))
		r.Zones, r.Profile = zonal.AnalyzeSurface(surface, cfg.Zonal.Bins)
		r.Source = "surface"
		r.Warnings = append(r.Warnings, surface.Warnings...)
		return r
	}
	r.Zones, r.Profile = zonal.Analyze(ds, cfg.Interpolation.Radius, cfg.Zonal.Bins)
	r.Source = "samples"
	return r
}

func init() {
	zonesCmd.Flags().StringVar(&inputFile, "file", "", "Wafer CSV with x, y and data columns")
	_ = zonesCmd.MarkFlagRequired("file")
	zonesCmd.Flags().IntVar(&bins, "bins", 20, "Radial profile bins")
	zonesCmd.Flags().BoolVar(&fromSurface, "from-surface", false, "Use the interpolated grid instead of raw samples")
	addInterpolationFlags(zonesCmd)
	addColumnFlags(zonesCmd)
	rootCmd.AddCommand(zonesCmd)
}

package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wafermap/wafermap/wafer/interp"
)

var (
	scanAngle  float64 // Scan direction in degrees from +x
	scanPoints int     // Points along the diameter
)

var linescanCmd = &cobra.Command{
	Use:   "linescan",
	Short: "Sample a wafer along a diameter at a given angle",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runLineScan(cmd, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("linescan: %v", err)
		}
	},
}

func runLineScan(cmd *cobra.Command, out io.Writer) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ds, err := loadWafer(inputFile)
	if err != nil {
		return err
	}
	points := interp.LineScan(ds, scanAngle, scanPoints, cfg.Interpolation.Method, cfg.Interpolation.Radius)
	return writeJSON(out, struct {
		Name   string             `json:"name"`
		Angle  float64            `json:"angle"`
		Method string             `json:"method"`
		Points []interp.ScanPoint `json:"points"`
	}{ds.Name(), scanAngle, cfg.Interpolation.Method, points})
}

func init() {
	linescanCmd.Flags().StringVar(&inputFile, "file", "", "Wafer CSV with x, y and data columns")
	_ = linescanCmd.MarkFlagRequired("file")
	linescanCmd.Flags().Float64Var(&scanAngle, "angle", 0, "Scan direction in degrees, counter-clockwise from +x")
	linescanCmd.Flags().IntVar(&scanPoints, "points", 100, "Points along the diameter")
	linescanCmd.Flags().StringVar(&method, "method", "linear", "Interpolation method (linear, cubic, nearest)")
	linescanCmd.Flags().Float64Var(&radius, "radius", 0, "Nominal wafer radius in mm (0 = max sample radius)")
	addColumnFlags(linescanCmd)
	rootCmd.AddCommand(linescanCmd)
}

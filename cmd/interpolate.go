package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wafermap/wafermap/wafer/interp"
)

var interpolateCmd = &cobra.Command{
	Use:   "interpolate",
	Short: "Interpolate one wafer onto a regular grid",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runInterpolate(cmd, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("interpolate: %v", err)
		}
	},
}

func runInterpolate(cmd *cobra.Command, out io.Writer) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ds, err := loadWafer(inputFile)
	if err != nil {
		return err
	}
	surface := interp.Interpolate(ds, interp.OptionsFromConfig(cfg.Interpolation))
	if surface.Degraded {
		logrus.Warnf("surface of %q is approximate (method %s)", ds.Name(), surface.Method)
	}
	return writeJSON(out, surface)
}

func init() {
	interpolateCmd.Flags().StringVar(&inputFile, "file", "", "Wafer CSV with x, y and data columns")
	_ = interpolateCmd.MarkFlagRequired("file")
	addInterpolationFlags(interpolateCmd)
	addColumnFlags(interpolateCmd)
	rootCmd.AddCommand(interpolateCmd)
}

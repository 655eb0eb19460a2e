package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wafermap/wafermap/wafer"
)

var (
	gpcCycles    float64 // Fixed cycle count for every site
	cyclesCol    string  // Explicit cycle count column header
	thicknessCol string  // Explicit thickness column header
)

var gpcCmd = &cobra.Command{
	Use:   "gpc",
	Short: "Convert thickness to growth per cycle and compute its zone statistics",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runGPC(cmd, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("gpc: %v", err)
		}
	},
}

func runGPC(cmd *cobra.Command, out io.Writer) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if gpcCycles < 0 {
		return fmt.Errorf("--cycles must be positive, got %f", gpcCycles)
	}
	table, err := wafer.LoadTable(inputFile)
	if err != nil {
		return err
	}
	mapping := columnMapping()
	if thicknessCol != "" {
		mapping[wafer.FieldThickness] = thicknessCol
	}
	if cyclesCol != "" {
		mapping[wafer.FieldCycles] = cyclesCol
	}
	ds, err := table.GPCDataset(waferName(inputFile), mapping, gpcCycles)
	if err != nil {
		return err
	}
	return writeJSON(out, buildZoneReport(ds, cfg))
}

func init() {
	gpcCmd.Flags().StringVar(&inputFile, "file", "", "Wafer CSV with x, y and thickness columns")
	_ = gpcCmd.MarkFlagRequired("file")
	gpcCmd.Flags().Float64Var(&gpcCycles, "cycles", 0, "Cycle count applied to every site (0 = read the cycles column)")
	gpcCmd.Flags().StringVar(&cyclesCol, "cycles-col", "", "Header of the cycle count column (default: n_cycles or cycles)")
	gpcCmd.Flags().StringVar(&thicknessCol, "thickness-col", "", "Header of the thickness column (default: thickness_nm or thickness)")
	gpcCmd.Flags().IntVar(&bins, "bins", 20, "Radial profile bins")
	gpcCmd.Flags().BoolVar(&fromSurface, "from-surface", false, "Use the interpolated grid instead of raw samples")
	addInterpolationFlags(gpcCmd)
	addColumnFlags(gpcCmd)
	rootCmd.AddCommand(gpcCmd)
}

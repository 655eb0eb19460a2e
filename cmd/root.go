package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	logLevel   string // Log verbosity level
	configPath string // Optional wafermap.yaml

	// Input flags
	inputFile  string   // Single wafer CSV
	inputFiles []string // Batch of wafer CSVs (detect)
	xCol       string   // Explicit x column header
	yCol       string   // Explicit y column header
	dataCol    string   // Explicit value column header

	// Analysis flags; each overrides the config file only when set
	resolution    int     // Grid cells per axis
	method        string  // Interpolation method
	radius        float64 // Nominal wafer radius in mm
	bins          int     // Radial profile bins
	contamination float64 // Expected outlier fraction
	seed          int64   // Isolation forest seed
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "wafermap",
	Short: "Wafer map interpolation, zonal statistics and batch anomaly detection",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addInterpolationFlags registers the flags shared by commands that grid a wafer.
func addInterpolationFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&resolution, "resolution", 100, "Grid cells per axis")
	cmd.Flags().StringVar(&method, "method", "linear", "Interpolation method (linear, cubic, nearest)")
	cmd.Flags().Float64Var(&radius, "radius", 0, "Nominal wafer radius in mm (0 = max sample radius)")
}

// addColumnFlags registers the explicit column overrides.
func addColumnFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&xCol, "x-col", "", "Header of the x column (default: synonym lookup)")
	cmd.Flags().StringVar(&yCol, "y-col", "", "Header of the y column (default: synonym lookup)")
	cmd.Flags().StringVar(&dataCol, "data-col", "", "Header of the value column (default: synonym lookup)")
}

// init sets up global flags
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a wafermap.yaml config file")
}

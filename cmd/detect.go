package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wafermap/wafermap/wafer"
	"github.com/wafermap/wafermap/wafer/anomaly"
	"github.com/wafermap/wafermap/wafer/pipeline"
	"github.com/wafermap/wafermap/wafer/telemetry"
)

var (
	workers     int    // Wafers prepared concurrently
	metricsFile string // Prometheus textfile output
	noScoring   bool   // Disable the anomaly scorer
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Score a batch of wafers for outliers and label their process signature",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDetect(cmd, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("detect: %v", err)
		}
	},
}

func runDetect(cmd *cobra.Command, out io.Writer) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(inputFiles) == 0 {
		return fmt.Errorf("no wafer files given; pass --file once per wafer")
	}

	datasets := make([]*wafer.Dataset, len(inputFiles))
	for i, path := range inputFiles {
		if datasets[i], err = loadWafer(path); err != nil {
			return err
		}
	}
	logrus.Infof("Analyzing %d wafers (method %s, resolution %d, contamination %.2f)",
		len(datasets), cfg.Interpolation.Method, cfg.Interpolation.Resolution, cfg.Anomaly.Contamination)

	opts := []pipeline.Option{
		pipeline.WithCache(pipeline.NewCache()),
		pipeline.WithWorkers(workers),
		pipeline.WithCapabilities(anomaly.Capabilities{Scoring: !noScoring}),
	}
	var metrics *telemetry.Metrics
	if metricsFile != "" {
		metrics = telemetry.NewMetrics()
		opts = append(opts, pipeline.WithMetrics(metrics))
	}

	p, err := pipeline.New(cfg, opts...)
	if err != nil {
		return err
	}
	report, err := p.Analyze(context.Background(), datasets)
	if err != nil {
		return err
	}

	if metrics != nil {
		if err := metrics.WriteTextfile(metricsFile); err != nil {
			return err
		}
	}
	logrus.Infof("Run %s complete: %d outliers", report.RunID, len(report.Outliers()))
	return writeJSON(out, report)
}

func init() {
	detectCmd.Flags().StringArrayVar(&inputFiles, "file", nil, "Wafer CSV; repeat once per wafer (at least 3)")
	_ = detectCmd.MarkFlagRequired("file")
	detectCmd.Flags().Float64Var(&contamination, "contamination", 0.1, "Expected outlier fraction, in (0, 0.5]")
	detectCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the isolation forest")
	detectCmd.Flags().IntVar(&bins, "bins", 20, "Radial profile bins")
	detectCmd.Flags().IntVar(&workers, "workers", 0, "Wafers prepared concurrently (0 = GOMAXPROCS)")
	detectCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this path")
	detectCmd.Flags().BoolVar(&noScoring, "no-scoring", false, "Skip anomaly scoring and report per-wafer results only")
	addInterpolationFlags(detectCmd)
	addColumnFlags(detectCmd)
	rootCmd.AddCommand(detectCmd)
}

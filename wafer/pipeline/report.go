package pipeline

import (
	"github.com/google/uuid"

	"github.com/wafermap/wafermap/wafer"
	"github.com/wafermap/wafermap/wafer/anomaly"
	"github.com/wafermap/wafermap/wafer/features"
	"github.com/wafermap/wafermap/wafer/pattern"
	"github.com/wafermap/wafermap/wafer/zonal"
)

// Report is the outcome of one batch analysis.
type Report struct {
	RunID             string            `json:"run_id"`
	Config            wafer.Config      `json:"config"`
	FeatureNames      []string          `json:"feature_names"`
	Wafers            []WaferReport     `json:"wafers"`
	ExplainedVariance []float64         `json:"explained_variance,omitempty"`
	Threshold         *float64          `json:"threshold,omitempty"`
	ScoringWarnings   []anomaly.Warning `json:"scoring_warnings,omitempty"`
	Warnings          []string          `json:"warnings,omitempty"`
}

// WaferReport is one wafer's row of the report. Score is nil when the batch
// was not scored.
type WaferReport struct {
	Name         string                      `json:"name"`
	Summary      wafer.Summary               `json:"summary"`
	Zones        zonal.ZoneStats             `json:"zones"`
	Profile      zonal.RadialProfile         `json:"profile"`
	Features     map[string]float64          `json:"features"`
	Degraded     bool                        `json:"degraded"`
	Method       string                      `json:"method"`
	Warnings     []string                    `json:"warnings,omitempty"`
	Score        *float64                    `json:"score,omitempty"`
	IsOutlier    bool                        `json:"is_outlier"`
	PCA          [anomaly.Components]float64 `json:"pca"`
	Pattern      pattern.Label               `json:"pattern,omitempty"`
	GradientAxis string                      `json:"gradient_axis,omitempty"`
}

// Outliers returns the wafers flagged as outliers, in report order.
func (r *Report) Outliers() []WaferReport {
	var out []WaferReport
	for _, w := range r.Wafers {
		if w.IsOutlier {
			out = append(out, w)
		}
	}
	return out
}

func newReport(cfg wafer.Config, prepared []*Prepared) *Report {
	r := &Report{
		RunID:        uuid.NewString(),
		Config:       cfg,
		FeatureNames: features.Names(),
		Wafers:       make([]WaferReport, len(prepared)),
	}
	for i, prep := range prepared {
		r.Wafers[i] = WaferReport{
			Name:     prep.Name,
			Summary:  prep.Summary,
			Zones:    prep.Zones,
			Profile:  prep.Profile,
			Features: prep.Features.Named(),
			Degraded: prep.Surface.Degraded,
			Method:   prep.Surface.Method,
			Warnings: prep.Warnings,
		}
	}
	return r
}

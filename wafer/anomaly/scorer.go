// Package anomaly scores a batch of wafer feature vectors for outlierness.
//
// Scoring standardizes every feature column across the batch, projects the
// standardized vectors onto two principal components for display, and fits an
// isolation forest on the full standardized space. A wafer is an outlier when
// its score lies above the (1 - contamination) quantile of the batch scores.
// Scores are relative to the batch and are not comparable across batches.
package anomaly

import (
	"errors"
	"fmt"

	"github.com/wafermap/wafermap/wafer"
	"github.com/wafermap/wafermap/wafer/features"
)

// ErrUnavailable is returned when scoring is disabled by capability flags.
var ErrUnavailable = errors.New("anomaly scoring unavailable")

// InsufficientBatchSizeError is returned when the batch is too small to score.
type InsufficientBatchSizeError struct {
	Got int
	Min int
}

func (e *InsufficientBatchSizeError) Error() string {
	return fmt.Sprintf("anomaly scoring needs at least %d wafers, got %d", e.Min, e.Got)
}

// Capabilities declares which optional components the caller has enabled.
type Capabilities struct {
	Scoring bool
}

// DefaultCapabilities enables everything.
func DefaultCapabilities() Capabilities {
	return Capabilities{Scoring: true}
}

// WaferResult is the score of one wafer.
type WaferResult struct {
	Name      string              `json:"name"`
	Score     float64             `json:"score"`
	IsOutlier bool                `json:"is_outlier"`
	PCA       [Components]float64 `json:"pca"`
}

// Result is the outcome of scoring one batch. Wafers keep input order.
type Result struct {
	Wafers            []WaferResult `json:"wafers"`
	ExplainedVariance []float64     `json:"explained_variance"`
	Threshold         float64       `json:"threshold"`
	Warnings          []Warning     `json:"warnings,omitempty"`
}

// Outliers returns the indices of the wafers flagged as outliers.
func (r *Result) Outliers() []int {
	var out []int
	for i, w := range r.Wafers {
		if w.IsOutlier {
			out = append(out, i)
		}
	}
	return out
}

// Scorer scores batches of feature vectors. It holds no batch state and may
// be reused.
type Scorer struct {
	cfg  wafer.AnomalyConfig
	caps Capabilities
}

// NewScorer creates a Scorer. A non-positive NTrees takes the default.
func NewScorer(cfg wafer.AnomalyConfig, caps Capabilities) *Scorer {
	if cfg.NTrees <= 0 {
		cfg.NTrees = wafer.DefaultNTrees
	}
	return &Scorer{cfg: cfg, caps: caps}
}

// Score scores vectors as one batch; names label the wafers in the result.
// It fails with ErrUnavailable when scoring is disabled, with
// *InsufficientBatchSizeError for fewer than wafer.MinBatchSize vectors, and
// when the contamination is outside (0, 0.5].
func (s *Scorer) Score(names []string, vectors []features.Vector) (*Result, error) {
	if !s.caps.Scoring {
		return nil, ErrUnavailable
	}
	if len(names) != len(vectors) {
		return nil, fmt.Errorf("got %d names for %d feature vectors", len(names), len(vectors))
	}
	if len(vectors) < wafer.MinBatchSize {
		return nil, &InsufficientBatchSizeError{Got: len(vectors), Min: wafer.MinBatchSize}
	}
	if err := wafer.ValidateContamination(s.cfg.Contamination); err != nil {
		return nil, err
	}

	rows := make([][]float64, len(vectors))
	for i, v := range vectors {
		rows[i] = v.Slice()
	}
	z, warnings := standardize(features.Names(), rows)
	coords, explained := project(z)

	psi := s.cfg.MaxSamples
	if psi <= 0 {
		psi = min(256, len(vectors))
	}
	scores := fitForest(z, s.cfg.NTrees, psi, s.cfg.Seed).score(z)
	threshold := wafer.CalculatePercentile(scores, 100*(1-s.cfg.Contamination))

	res := &Result{
		Wafers:            make([]WaferResult, len(vectors)),
		ExplainedVariance: explained,
		Threshold:         threshold,
		Warnings:          warnings,
	}
	for i := range vectors {
		res.Wafers[i] = WaferResult{
			Name:      names[i],
			Score:     scores[i],
			IsOutlier: scores[i] > threshold,
			PCA:       coords[i],
		}
	}
	return res, nil
}

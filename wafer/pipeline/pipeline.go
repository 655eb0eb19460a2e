// Package pipeline runs the full batch analysis: per-wafer interpolation,
// zonal statistics and feature extraction in parallel, then batch scoring and
// pattern labelling.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wafermap/wafermap/wafer"
	"github.com/wafermap/wafermap/wafer/anomaly"
	"github.com/wafermap/wafermap/wafer/features"
	"github.com/wafermap/wafermap/wafer/interp"
	"github.com/wafermap/wafermap/wafer/pattern"
	"github.com/wafermap/wafermap/wafer/telemetry"
	"github.com/wafermap/wafermap/wafer/zonal"
)

// Prepared holds the per-wafer results that do not depend on the rest of the
// batch. Values are shared through the cache and must not be mutated.
type Prepared struct {
	Name     string
	Summary  wafer.Summary
	Surface  *interp.Surface
	Zones    zonal.ZoneStats
	Profile  zonal.RadialProfile
	Features features.Vector
	Warnings []string
}

// Pipeline analyzes wafer batches with a fixed configuration.
type Pipeline struct {
	cfg     wafer.Config
	workers int
	caps    anomaly.Capabilities
	cache   *Cache
	metrics *telemetry.Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCache memoizes per-wafer results in c.
func WithCache(c *Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithMetrics records run metrics in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithWorkers bounds the number of wafers prepared concurrently.
// Values below 1 use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// WithCapabilities enables or disables optional components.
func WithCapabilities(caps anomaly.Capabilities) Option {
	return func(p *Pipeline) { p.caps = caps }
}

// New creates a Pipeline after validating cfg.
func New(cfg wafer.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	p := &Pipeline{cfg: cfg, caps: anomaly.DefaultCapabilities()}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	return p, nil
}

// Prepare runs the per-wafer stages on one dataset.
func (p *Pipeline) Prepare(ctx context.Context, ds *wafer.Dataset) (*Prepared, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var key string
	if p.cache != nil {
		key = cacheKey(ds, p.cfg)
		if cached, ok := p.cache.get(key); ok {
			logrus.Debugf("wafer %q: cached", ds.Name())
			out := *cached
			out.Name = ds.Name()
			return &out, nil
		}
	}

	start := time.Now()
	surface := interp.Interpolate(ds, interp.OptionsFromConfig(p.cfg.Interpolation))
	zs, profile := zonal.Analyze(ds, surface.Radius, p.cfg.Zonal.Bins)
	prep := &Prepared{
		Name:     ds.Name(),
		Summary:  wafer.Describe(ds),
		Surface:  surface,
		Zones:    zs,
		Profile:  profile,
		Features: features.Extract(ds, zs, profile),
		Warnings: append(ds.Warnings(), surface.Warnings...),
	}
	logrus.Debugf("wafer %q: prepared in %v (method %s, degraded %v)",
		ds.Name(), time.Since(start), surface.Method, surface.Degraded)

	if p.metrics != nil {
		p.metrics.ObserveStage("prepare", start)
		p.metrics.WaferProcessed(surface.Degraded, surface.Method)
	}
	if p.cache != nil {
		p.cache.put(key, prep)
	}
	return prep, nil
}

// Analyze prepares every dataset, scores the batch and labels each wafer.
// Wafer order in the report matches datasets. When scoring is disabled the
// report carries per-wafer results only.
func (p *Pipeline) Analyze(ctx context.Context, datasets []*wafer.Dataset) (*Report, error) {
	prepared := make([]*Prepared, len(datasets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, ds := range datasets {
		i, ds := i, ds
		g.Go(func() error {
			prep, err := p.Prepare(gctx, ds)
			if err != nil {
				return fmt.Errorf("wafer %q: %w", ds.Name(), err)
			}
			prepared[i] = prep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := newReport(p.cfg, prepared)

	names := make([]string, len(prepared))
	vectors := make([]features.Vector, len(prepared))
	for i, prep := range prepared {
		names[i] = prep.Name
		vectors[i] = prep.Features
	}

	start := time.Now()
	res, err := anomaly.NewScorer(p.cfg.Anomaly, p.caps).Score(names, vectors)
	if errors.Is(err, anomaly.ErrUnavailable) {
		logrus.Warnf("anomaly scoring disabled; reporting per-wafer results only")
		report.Warnings = append(report.Warnings, err.Error())
		return report, nil
	}
	if err != nil {
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.ObserveStage("score", start)
		p.metrics.BatchScored(len(vectors))
	}

	batch := pattern.NewBatch(vectors)
	report.ExplainedVariance = res.ExplainedVariance
	report.Threshold = wafer.FiniteOrNil(res.Threshold)
	report.ScoringWarnings = res.Warnings
	for i, wr := range res.Wafers {
		w := &report.Wafers[i]
		score := wr.Score
		w.Score = &score
		w.IsOutlier = wr.IsOutlier
		w.PCA = wr.PCA
		w.Pattern = pattern.Classify(vectors[i], wr.IsOutlier, batch, p.cfg.Pattern)
		if w.Pattern == pattern.Gradient {
			w.GradientAxis = pattern.GradientAxis(vectors[i])
		}
		if wr.IsOutlier && p.metrics != nil {
			p.metrics.Outlier(string(w.Pattern))
		}
	}
	logrus.Debugf("scored %d wafers, %d outliers", len(vectors), len(res.Outliers()))
	return report, nil
}

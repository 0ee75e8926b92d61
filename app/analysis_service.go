package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"abverdict/domain/core"
	"abverdict/domain/dataset"
	"abverdict/domain/stats"
	"abverdict/domain/verdict"
	"abverdict/internal"
	"abverdict/internal/cache"
	"abverdict/internal/config"
	"abverdict/internal/errors"
	"abverdict/ports"

	"golang.org/x/sync/errgroup"
)

// AnalysisParams are the tunable knobs of one run. Zero values fall back to the
// service defaults; a nil Threshold means "use the Percentile of engagement".
type AnalysisParams struct {
	Threshold  *float64 `json:"threshold,omitempty"`
	Percentile float64  `json:"percentile,omitempty"`
	Iterations int      `json:"iterations,omitempty"`
	Seed       *int64   `json:"seed,omitempty"`
	Workers    int      `json:"workers,omitempty"`
}

// AnalysisRequest is a raw table plus the caller's column choices
type AnalysisRequest struct {
	Table   *dataset.Table
	Columns dataset.ColumnSelection
	AnalysisParams
}

// AnalysisService runs the pipeline: validate groups, filter outliers, estimate
// retention and engagement concurrently, decide, report.
type AnalysisService struct {
	bootstrap ports.BootstrapPort
	rankTest  ports.RankTestPort
	decision  *verdict.DecisionEngine
	reports   *cache.Reports
	defaults  config.AnalysisConfig
	logger    *internal.Logger
}

// NewAnalysisService wires the estimators. reports may be nil to disable memoization.
func NewAnalysisService(
	bootstrap ports.BootstrapPort,
	rankTest ports.RankTestPort,
	reports *cache.Reports,
	defaults config.AnalysisConfig,
	logger *internal.Logger,
) *AnalysisService {
	if logger == nil {
		logger = internal.NewDiscardLogger()
	}
	return &AnalysisService{
		bootstrap: bootstrap,
		rankTest:  rankTest,
		decision:  verdict.NewDecisionEngine(),
		reports:   reports,
		defaults:  defaults,
		logger:    logger,
	}
}

// Analyze converts the table with the chosen columns and runs the pipeline
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*verdict.Report, error) {
	ds, err := dataset.FromTable(req.Table, req.Columns)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeDataset(ctx, ds, req.Columns, req.AnalysisParams)
}

// AnalyzeDataset runs the pipeline over an already parsed dataset
func (s *AnalysisService) AnalyzeDataset(ctx context.Context, ds *dataset.Dataset, cols dataset.ColumnSelection, params AnalysisParams) (*verdict.Report, error) {
	start := time.Now()

	params, err := s.resolve(params)
	if err != nil {
		return nil, err
	}

	// Labels are fixed on the raw data so that filtering a group away surfaces as
	// "empty group" rather than a cardinality error.
	groups, err := dataset.ValidateGroups(ds)
	if err != nil {
		return nil, err
	}

	threshold, err := s.threshold(ds, params)
	if err != nil {
		return nil, err
	}
	filtered := dataset.FilterOutliers(ds, threshold)
	cleaned := filtered.Dataset
	if err := dataset.RequireNonEmptyGroups(cleaned, groups); err != nil {
		return nil, err
	}

	fingerprint := ds.Fingerprint()
	key := cacheKey(fingerprint, cols, threshold, params)
	if cached, ok := s.reports.Get(key); ok {
		s.logger.Info("analysis %s served from cache (key %s)", cached.RunID, key.Short())
		return cached, nil
	}

	s.logger.Debug("analyzing %d records (%d after removing engagement >= %g), groups %q/%q",
		ds.Len(), cleaned.Len(), threshold, groups.A, groups.B)

	var (
		boot *stats.BootstrapResult
		rank *stats.RankTestResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		boot, err = s.bootstrap.Estimate(gctx, cleaned, groups, ports.BootstrapOptions{
			Iterations: params.Iterations,
			Seed:       params.Seed,
			Workers:    params.Workers,
			Metric:     dataset.MetricRetention,
		})
		return err
	})
	g.Go(func() error {
		var err error
		rank, err = s.rankTest.Test(gctx, cleaned, groups, dataset.MetricEngagement)
		return err
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil && !errors.IsValidation(err) {
			return nil, errors.Cancelled(ctx.Err())
		}
		return nil, err
	}

	retA, retB := dataset.Split(cleaned, groups, dataset.MetricRetention)
	engA, engB := dataset.Split(cleaned, groups, dataset.MetricEngagement)
	rateA := stats.NewGroupStats(groups.A, retA)
	rateB := stats.NewGroupStats(groups.B, retB)

	report := &verdict.Report{
		RunID:             core.NewRunID(),
		Fingerprint:       fingerprint,
		Columns:           cols,
		Groups:            groups,
		RawSize:           ds.Len(),
		CleanedSize:       cleaned.Len(),
		RemovedOutliers:   filtered.Removed,
		OutlierThreshold:  threshold,
		RetentionA:        rateA,
		RetentionB:        rateB,
		RawRateDifference: rateA.Mean - rateB.Mean,
		EngagementA:       stats.Summarize(groups.A, engA),
		EngagementB:       stats.Summarize(groups.B, engB),
		Bootstrap:         boot,
		RankTest:          rank,
		Verdict:           s.decision.Decide(groups, boot, rank),
		CreatedAt:         time.Now().UTC(),
		RuntimeMs:         time.Since(start).Milliseconds(),
	}

	if params.Seed != nil {
		s.reports.Put(key, report)
	}

	s.logger.Info("analysis %s: retention %s (P(A>B)=%.3f), engagement p=%.4g, %dms",
		report.RunID, report.Verdict.Retention, boot.ProbabilityABetter, rank.PValue, report.RuntimeMs)
	return report, nil
}

func (s *AnalysisService) resolve(p AnalysisParams) (AnalysisParams, error) {
	if p.Iterations == 0 {
		p.Iterations = s.defaults.Iterations
	}
	if p.Iterations == 0 {
		p.Iterations = config.DefaultIterations
	}
	if p.Iterations < 0 || p.Iterations > config.MaxIterations {
		return p, errors.Validation("bootstrap iterations",
			fmt.Errorf("%w: %d not in [1, %d]", core.ErrInvalidParameter, p.Iterations, config.MaxIterations))
	}

	if p.Percentile == 0 {
		p.Percentile = s.defaults.OutlierPercentile
	}
	if p.Percentile == 0 {
		p.Percentile = config.DefaultOutlierPercentile
	}

	if p.Workers <= 0 {
		p.Workers = s.defaults.Workers
	}
	if p.Seed == nil && s.defaults.Seed != nil {
		seed := *s.defaults.Seed
		p.Seed = &seed
	}

	if p.Threshold != nil && (math.IsNaN(*p.Threshold) || math.IsInf(*p.Threshold, 0)) {
		return p, errors.Validation("outlier threshold",
			fmt.Errorf("%w: threshold must be finite", core.ErrInvalidParameter))
	}
	return p, nil
}

func (s *AnalysisService) threshold(ds *dataset.Dataset, p AnalysisParams) (float64, error) {
	if p.Threshold != nil {
		return *p.Threshold, nil
	}
	return dataset.DefaultThreshold(ds, p.Percentile)
}

// cacheKey covers every input that determines a seeded report. Worker count is
// excluded because results do not depend on it.
func cacheKey(fingerprint core.Hash, cols dataset.ColumnSelection, threshold float64, p AnalysisParams) core.Hash {
	if p.Seed == nil {
		return ""
	}
	return core.NewHasher().
		Text(fingerprint.String()).
		Text(cols.Group).Text(cols.Retention).Text(cols.Engagement).
		Float(threshold).
		Int(int64(p.Iterations)).
		Int(*p.Seed).
		Sum()
}

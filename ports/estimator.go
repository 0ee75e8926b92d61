package ports

import (
	"context"

	"abverdict/domain/dataset"
	"abverdict/domain/stats"
)

// BootstrapOptions tunes one bootstrap run. A nil Seed draws a fresh one.
type BootstrapOptions struct {
	Iterations int
	Seed       *int64
	Workers    int
	Metric     dataset.Metric
}

// BootstrapPort estimates the sampling distribution of mean(A) - mean(B)
type BootstrapPort interface {
	Estimate(ctx context.Context, ds *dataset.Dataset, groups dataset.GroupPair, opts BootstrapOptions) (*stats.BootstrapResult, error)
}

// RankTestPort compares two independent samples without assuming normality
type RankTestPort interface {
	Test(ctx context.Context, ds *dataset.Dataset, groups dataset.GroupPair, metric dataset.Metric) (*stats.RankTestResult, error)
}

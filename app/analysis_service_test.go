package app

import (
	"context"
	"math"
	"strconv"
	"testing"

	"abverdict/adapters/rng"
	"abverdict/adapters/stats/estimators"
	"abverdict/domain/core"
	"abverdict/domain/dataset"
	"abverdict/domain/stats"
	"abverdict/domain/verdict"
	"abverdict/internal/cache"
	"abverdict/internal/config"
	"abverdict/internal/errors"
	"abverdict/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var cols = dataset.ColumnSelection{Group: "version", Retention: "retention_7", Engagement: "sum_gamerounds"}

func seedPtr(s int64) *int64 { return &s }

func newService(reports *cache.Reports) *AnalysisService {
	r := rng.NewSeededAdapter()
	return NewAnalysisService(
		estimators.NewBootstrap(r, nil),
		estimators.NewMannWhitney(nil),
		reports,
		config.Default().Analysis,
		nil,
	)
}

// ctrlTestTable alternates the two labels, starting with first. Every "test" row is
// retained, no "ctrl" row is, and engagement has the same distribution in both groups.
func ctrlTestTable(first, second string, perGroup int) *dataset.Table {
	t := &dataset.Table{Headers: []string{"userid", "version", "retention_7", "sum_gamerounds"}}
	for i := 0; i < perGroup; i++ {
		for _, label := range []string{first, second} {
			ret := "False"
			if label == "test" {
				ret = "True"
			}
			t.Rows = append(t.Rows, dataset.Row{
				"userid":         strconv.Itoa(len(t.Rows)),
				"version":        label,
				"retention_7":    ret,
				"sum_gamerounds": strconv.Itoa(i % 50),
			})
		}
	}
	return t
}

func TestAnalyze_EndToEndCtrlTest(t *testing.T) {
	tests := []struct {
		name      string
		first     string
		second    string
		retention verdict.Outcome
	}{
		{"ctrl seen first", "ctrl", "test", verdict.BWins},
		{"test seen first", "test", "ctrl", verdict.AWins},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := newService(nil).Analyze(context.Background(), AnalysisRequest{
				Table:          ctrlTestTable(tt.first, tt.second, 500),
				Columns:        cols,
				AnalysisParams: AnalysisParams{Iterations: 300, Seed: seedPtr(42)},
			})
			require.NoError(t, err)

			assert.Equal(t, 1000, report.RawSize)
			assert.Equal(t, report.RawSize, report.CleanedSize+report.RemovedOutliers)
			assert.Equal(t, dataset.GroupPair{A: tt.first, B: tt.second}, report.Groups)

			assert.Equal(t, tt.retention, report.Verdict.Retention)
			assert.Equal(t, "test", report.Verdict.Winner)
			assert.Contains(t, report.Verdict.RetentionMessage, "test is the statistically significant winner")

			assert.False(t, report.Verdict.EngagementSignificant)
			assert.Greater(t, report.RankTest.PValue, 0.05)

			assert.Equal(t, 300, report.Bootstrap.Iterations)
			assert.Equal(t, int64(42), report.Bootstrap.Seed)
			assert.False(t, report.RunID.String() == "")
			assert.False(t, report.Cached)
		})
	}
}

func TestAnalyze_RetentionRates(t *testing.T) {
	report, err := newService(nil).Analyze(context.Background(), AnalysisRequest{
		Table:          ctrlTestTable("ctrl", "test", 100),
		Columns:        cols,
		AnalysisParams: AnalysisParams{Iterations: 50, Seed: seedPtr(1)},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, report.RetentionA.Mean)
	assert.Equal(t, 1.0, report.RetentionB.Mean)
	assert.Equal(t, -1.0, report.RawRateDifference)
	assert.Equal(t, report.RetentionA.Size, report.EngagementA.Size)
}

func TestAnalyze_ExplicitThresholdRemovesOutliers(t *testing.T) {
	threshold := 10.0
	report, err := newService(nil).Analyze(context.Background(), AnalysisRequest{
		Table:          ctrlTestTable("ctrl", "test", 100),
		Columns:        cols,
		AnalysisParams: AnalysisParams{Iterations: 50, Seed: seedPtr(1), Threshold: &threshold},
	})
	require.NoError(t, err)

	// engagement is i%50 for i<100, so values 0..9 appear twice per group
	assert.Equal(t, 40, report.CleanedSize)
	assert.Equal(t, 160, report.RemovedOutliers)
	assert.Equal(t, 10.0, report.OutlierThreshold)
	assert.Less(t, report.EngagementA.Max, 10.0)
}

func TestAnalyze_SeededRunsAreReproducible(t *testing.T) {
	req := AnalysisRequest{
		Table:          ctrlTestTable("ctrl", "test", 200),
		Columns:        cols,
		AnalysisParams: AnalysisParams{Iterations: 200, Seed: seedPtr(9), Workers: 1},
	}
	first, err := newService(nil).Analyze(context.Background(), req)
	require.NoError(t, err)

	req.Workers = 6
	second, err := newService(nil).Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Bootstrap, second.Bootstrap)
	assert.Equal(t, first.RankTest, second.RankTest)
	assert.Equal(t, first.Verdict, second.Verdict)
}

func TestAnalyze_GroupCardinality(t *testing.T) {
	table := ctrlTestTable("ctrl", "test", 10)
	table.Rows = append(table.Rows, dataset.Row{"version": "other", "retention_7": "1", "sum_gamerounds": "3"})

	_, err := newService(nil).Analyze(context.Background(), AnalysisRequest{Table: table, Columns: cols})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.ErrorIs(t, err, core.ErrGroupCardinality)

	single := &dataset.Table{Headers: table.Headers}
	for _, row := range table.Rows {
		if row["version"] == "ctrl" {
			single.Rows = append(single.Rows, row)
		}
	}
	_, err = newService(nil).Analyze(context.Background(), AnalysisRequest{Table: single, Columns: cols})
	assert.ErrorIs(t, err, core.ErrGroupCardinality)
}

func TestAnalyze_FilteredAwayGroupIsEmpty(t *testing.T) {
	table := &dataset.Table{Headers: []string{"version", "retention_7", "sum_gamerounds"}}
	for i := 0; i < 20; i++ {
		table.Rows = append(table.Rows,
			dataset.Row{"version": "ctrl", "retention_7": "0", "sum_gamerounds": "1"},
			dataset.Row{"version": "test", "retention_7": "1", "sum_gamerounds": "500"})
	}
	threshold := 100.0

	_, err := newService(nil).Analyze(context.Background(), AnalysisRequest{
		Table:          table,
		Columns:        cols,
		AnalysisParams: AnalysisParams{Threshold: &threshold},
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.ErrorIs(t, err, core.ErrEmptyGroup)
}

func TestAnalyze_MissingColumn(t *testing.T) {
	_, err := newService(nil).Analyze(context.Background(), AnalysisRequest{
		Table:   ctrlTestTable("ctrl", "test", 5),
		Columns: dataset.ColumnSelection{Group: "version", Retention: "retention_1", Engagement: "sum_gamerounds"},
	})
	assert.ErrorIs(t, err, core.ErrMissingColumn)
}

func TestAnalyze_InvalidParameters(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		name   string
		params AnalysisParams
	}{
		{"negative iterations", AnalysisParams{Iterations: -5}},
		{"too many iterations", AnalysisParams{Iterations: config.MaxIterations + 1}},
		{"infinite threshold", AnalysisParams{Threshold: &inf}},
		{"bad percentile", AnalysisParams{Percentile: 150}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newService(nil).Analyze(context.Background(), AnalysisRequest{
				Table:          ctrlTestTable("ctrl", "test", 5),
				Columns:        cols,
				AnalysisParams: tt.params,
			})
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			assert.ErrorIs(t, err, core.ErrInvalidParameter)
		})
	}
}

func TestAnalyze_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newService(nil).Analyze(ctx, AnalysisRequest{
		Table:          ctrlTestTable("ctrl", "test", 50),
		Columns:        cols,
		AnalysisParams: AnalysisParams{Seed: seedPtr(1)},
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeCancelled, errors.GetCode(err))
	assert.ErrorIs(t, err, context.Canceled)
}

// mockBootstrap records calls and delegates to a real estimator
type mockBootstrap struct {
	mock.Mock
	inner ports.BootstrapPort
}

func newMockBootstrap() *mockBootstrap {
	m := &mockBootstrap{inner: estimators.NewBootstrap(rng.NewSeededAdapter(), nil)}
	m.On("Estimate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	return m
}

func (m *mockBootstrap) Estimate(ctx context.Context, ds *dataset.Dataset, groups dataset.GroupPair, opts ports.BootstrapOptions) (*stats.BootstrapResult, error) {
	m.Called(ctx, ds, groups, opts)
	return m.inner.Estimate(ctx, ds, groups, opts)
}

func TestAnalyze_SeededRunsAreMemoized(t *testing.T) {
	boot := newMockBootstrap()
	reports := cache.NewReports(8)
	svc := NewAnalysisService(boot, estimators.NewMannWhitney(nil), reports, config.Default().Analysis, nil)

	req := AnalysisRequest{
		Table:          ctrlTestTable("ctrl", "test", 50),
		Columns:        cols,
		AnalysisParams: AnalysisParams{Iterations: 100, Seed: seedPtr(3)},
	}
	first, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)

	boot.AssertNumberOfCalls(t, "Estimate", 1)
	assert.True(t, second.Cached)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, first.Verdict, second.Verdict)

	req.Seed = seedPtr(4)
	_, err = svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	boot.AssertNumberOfCalls(t, "Estimate", 2)
}

func TestAnalyze_UnseededRunsAreNotMemoized(t *testing.T) {
	boot := newMockBootstrap()
	defaults := config.Default().Analysis
	svc := NewAnalysisService(boot, estimators.NewMannWhitney(nil), cache.NewReports(8), defaults, nil)

	req := AnalysisRequest{
		Table:          ctrlTestTable("ctrl", "test", 50),
		Columns:        cols,
		AnalysisParams: AnalysisParams{Iterations: 50},
	}
	for i := 0; i < 2; i++ {
		report, err := svc.Analyze(context.Background(), req)
		require.NoError(t, err)
		assert.False(t, report.Cached)
	}
	boot.AssertNumberOfCalls(t, "Estimate", 2)
}

package container

import (
	"context"
	"testing"

	"abverdict/app"
	"abverdict/domain/dataset"
	"abverdict/internal"
	"abverdict/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestNew_WiresPipeline(t *testing.T) {
	c, err := New(config.Default(), internal.NewDiscardLogger())
	require.NoError(t, err)

	assert.NotNil(t, c.Analysis)
	assert.NotNil(t, c.APIServer())
	assert.Same(t, c.APIServer(), c.APIServer())

	table := &dataset.Table{Headers: []string{"g", "r", "e"}}
	for i := 0; i < 30; i++ {
		table.Rows = append(table.Rows,
			dataset.Row{"g": "a", "r": "1", "e": "3"},
			dataset.Row{"g": "b", "r": "0", "e": "4"})
	}
	seed := int64(5)
	rep, err := c.Analysis.Analyze(context.Background(), app.AnalysisRequest{
		Table:          table,
		Columns:        dataset.ColumnSelection{Group: "g", Retention: "r", Engagement: "e"},
		AnalysisParams: app.AnalysisParams{Iterations: 50, Seed: &seed, Threshold: floatPtr(10)},
	})
	require.NoError(t, err)
	assert.Equal(t, "a", rep.Verdict.Winner)
	assert.Equal(t, 1, c.Reports.Stats().Size)

	require.NoError(t, c.Shutdown(context.Background()))
	assert.Zero(t, c.Reports.Stats().Size)
}

func floatPtr(f float64) *float64 { return &f }

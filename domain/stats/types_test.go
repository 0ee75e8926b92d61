package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGroupStats(t *testing.T) {
	gs := NewGroupStats("ctrl", []float64{1, 0, 1, 1})
	assert.Equal(t, "ctrl", gs.Label)
	assert.Equal(t, 4, gs.Size)
	assert.InDelta(t, 0.75, gs.Mean, 1e-12)

	empty := NewGroupStats("test", nil)
	assert.Equal(t, 0, empty.Size)
	assert.True(t, math.IsNaN(empty.Mean))
}

func TestSummarize(t *testing.T) {
	s := Summarize("gate_30", []float64{1, 2, 3, 4, 100})
	assert.Equal(t, 5, s.Size)
	assert.InDelta(t, 22.0, s.Mean, 1e-12)
	assert.Equal(t, 3.0, s.Median)
	assert.Equal(t, 100.0, s.Max)
	assert.LessOrEqual(t, s.P99, s.Max)

	assert.Equal(t, Summary{Label: "none"}, Summarize("none", nil))
}

func TestNewBootstrapResult(t *testing.T) {
	diffs := []float64{-0.02, 0.01, 0.03, 0.04, -0.01, 0.02, 0.05, 0.00, 0.01, 0.02}
	r := NewBootstrapResult(diffs, 12, 2, 7)

	assert.Equal(t, 12, r.Iterations)
	assert.Equal(t, 2, r.Skipped)
	assert.Equal(t, 10, r.Valid())
	assert.Equal(t, int64(7), r.Seed)
	// 0.00 is not an improvement
	assert.InDelta(t, 0.7, r.ProbabilityABetter, 1e-12)
	assert.InDelta(t, 0.015, r.MeanDifference, 1e-12)
	assert.Equal(t, -0.02, r.CI95Lower)
	assert.Equal(t, 0.05, r.CI95Upper)
	assert.Equal(t, diffs, r.Differences, "order of the collected distribution is preserved")
}

package report

import (
	"bytes"
	"fmt"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"abverdict/domain/core"
	"abverdict/domain/dataset"
	"abverdict/domain/stats"
	"abverdict/domain/verdict"
	"abverdict/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *verdict.Report {
	groups := dataset.GroupPair{A: "gate_30", B: "gate_40"}
	boot := stats.NewBootstrapResult([]float64{0.01, 0.02, 0.005, 0.015, 0.03}, 6, 1, 42)
	rank := &stats.RankTestResult{U: 1200, PValue: 0.0421, Z: 2.03, EffectSize: 0.54, Method: stats.RankMethodAsymptotic, SizeA: 50, SizeB: 44}
	return &verdict.Report{
		RunID:            core.NewRunID(),
		Columns:          dataset.ColumnSelection{Group: "version", Retention: "retention_7", Engagement: "sum_gamerounds"},
		Groups:           groups,
		RawSize:          100,
		CleanedSize:      94,
		RemovedOutliers:  6,
		OutlierThreshold: 493,
		RetentionA:       stats.GroupStats{Label: groups.A, Size: 50, Mean: 0.19},
		RetentionB:       stats.GroupStats{Label: groups.B, Size: 44, Mean: 0.18},
		EngagementA:      stats.Summary{Label: groups.A, Size: 50, Mean: 52.4, Median: 17, P99: 480, Max: 490},
		EngagementB:      stats.Summary{Label: groups.B, Size: 44, Mean: 51.3, Median: 16, P99: 470, Max: 488},
		Bootstrap:        boot,
		RankTest:         rank,
		Verdict:          verdict.NewDecisionEngine().Decide(groups, boot, rank),
		CreatedAt:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		RuntimeMs:        12,
	}
}

func render(t *testing.T, r *verdict.Report, f Format, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, f, opts))
	return buf.String()
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":         FormatText,
		"TEXT":     FormatText,
		"json":     FormatJSON,
		"yml":      FormatYAML,
		"md":       FormatMarkdown,
		"Markdown": FormatMarkdown,
		"html":     FormatHTML,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("pdf")
	assert.True(t, errors.IsValidation(err))
}

func TestRender_Text(t *testing.T) {
	out := render(t, sampleReport(), FormatText, DefaultOptions())

	assert.Contains(t, out, "gate_30 (A) vs gate_40 (B)")
	assert.Contains(t, out, "gate_30 rate: 19.00%")
	assert.Contains(t, out, "Probability that gate_30 is better than gate_40: 100.0%")
	assert.Contains(t, out, "gate_30 is the statistically significant winner")
	assert.Contains(t, out, "The distributions are significantly different")
	assert.Contains(t, out, "p-value = 0.04210")
	assert.Contains(t, out, "█")
}

func TestRender_JSONOmitsDistributionByDefault(t *testing.T) {
	r := sampleReport()
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(render(t, r, FormatJSON, DefaultOptions())), &decoded))

	boot := decoded["bootstrap"].(map[string]interface{})
	assert.Nil(t, boot["differences"])
	assert.Equal(t, 1.0, boot["probability_a_better"])
	assert.Len(t, r.Bootstrap.Differences, 5, "caller's report is untouched")

	v := decoded["verdict"].(map[string]interface{})
	assert.Equal(t, "A_WINS", v["retention"])
	assert.Equal(t, true, v["engagement_significant"])
}

func TestRender_JSONWithDistribution(t *testing.T) {
	var decoded verdict.Report
	out := render(t, sampleReport(), FormatJSON, Options{IncludeDistribution: true})
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Len(t, decoded.Bootstrap.Differences, 5)
	assert.Equal(t, "gate_40", decoded.Groups.B)
}

func TestRender_YAML(t *testing.T) {
	out := render(t, sampleReport(), FormatYAML, DefaultOptions())

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 100, decoded["raw_size"])
	v := decoded["verdict"].(map[string]interface{})
	assert.Equal(t, "A_WINS", v["retention"])
	assert.Equal(t, "gate_30", v["winner"])
}

func TestRender_Markdown(t *testing.T) {
	out := render(t, sampleReport(), FormatMarkdown, DefaultOptions())

	assert.True(t, strings.HasPrefix(out, "# A/B test: gate_30 vs gate_40"))
	assert.Contains(t, out, "| gate_30 | 50 | 19.00% |")
	assert.Contains(t, out, "| gate_40 | 44 | 51.30 | 16.00 | 470.00 | 488.00 |")
	assert.Contains(t, out, "**Recommendation (A_WINS):**")
	assert.Contains(t, out, "```")
}

func TestRender_HTML(t *testing.T) {
	out := render(t, sampleReport(), FormatHTML, DefaultOptions())

	assert.Contains(t, out, "<title>A/B test gate_30 vs gate_40</title>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "gate_30 is the statistically significant winner")
	assert.Equal(t, "text/html; charset=utf-8", FormatHTML.ContentType())
}

func TestRender_NilReport(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, nil, FormatText, DefaultOptions()))
}

func TestHistogram(t *testing.T) {
	values := []float64{-0.02, -0.01, 0, 0, 0.01, 0.02, 0.02, 0.03}
	lines := histogram(values, 4, 10)
	require.Len(t, lines, 4)

	total := 0
	for _, line := range lines {
		var n int
		fields := strings.Fields(line)
		_, err := fmt.Sscan(fields[len(fields)-1], &n)
		require.NoError(t, err)
		total += n
	}
	assert.Equal(t, len(values), total)

	assert.Len(t, histogram([]float64{0.5, 0.5}, 10, 10), 1)
	assert.Nil(t, histogram(nil, 10, 10))
	assert.Nil(t, histogram(values, 0, 10))
}

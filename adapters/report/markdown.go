package report

import (
	"fmt"
	"strings"

	"abverdict/domain/stats"
	"abverdict/domain/verdict"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders the report as a Markdown document
func Markdown(r *verdict.Report, opts Options) string {
	var b strings.Builder
	a, bb := r.Groups.A, r.Groups.B

	fmt.Fprintf(&b, "# A/B test: %s vs %s\n\n", a, bb)
	fmt.Fprintf(&b, "Run `%s`, %d rows, %d after removing %d outliers with `%s` ≥ %g.\n\n",
		r.RunID, r.RawSize, r.CleanedSize, r.RemovedOutliers, r.Columns.Engagement, r.OutlierThreshold)

	fmt.Fprintf(&b, "## Retention (`%s`)\n\n", r.Columns.Retention)
	b.WriteString("| Group | Users | Rate |\n|---|---:|---:|\n")
	fmt.Fprintf(&b, "| %s | %d | %s |\n", a, r.RetentionA.Size, percent(r.RetentionA.Mean))
	fmt.Fprintf(&b, "| %s | %d | %s |\n\n", bb, r.RetentionB.Size, percent(r.RetentionB.Mean))
	fmt.Fprintf(&b, "Raw difference (A − B): **%s**\n\n", signedPercent(r.RawRateDifference))

	if boot := r.Bootstrap; boot != nil {
		fmt.Fprintf(&b, "Bootstrap with %d iterations (%d skipped, seed `%d`): mean difference %s, 95%% interval [%s, %s].\n\n",
			boot.Iterations, boot.Skipped, boot.Seed,
			signedPercent(boot.MeanDifference), signedPercent(boot.CI95Lower), signedPercent(boot.CI95Upper))
		fmt.Fprintf(&b, "**Probability that %s is better than %s:** `%.1f%%`\n\n", a, bb, boot.ProbabilityABetter*100)
		if lines := histogram(boot.Differences, opts.HistogramBins, 40); len(lines) > 0 {
			b.WriteString("```\n")
			b.WriteString(strings.Join(lines, "\n"))
			b.WriteString("\n```\n\n")
		}
	}
	fmt.Fprintf(&b, "> **Recommendation (%s):** %s\n\n", r.Verdict.Retention, r.Verdict.RetentionMessage)

	fmt.Fprintf(&b, "## Engagement (`%s`)\n\n", r.Columns.Engagement)
	b.WriteString("| Group | Users | Mean | Median | p99 | Max |\n|---|---:|---:|---:|---:|---:|\n")
	for _, s := range []stats.Summary{r.EngagementA, r.EngagementB} {
		fmt.Fprintf(&b, "| %s | %d | %.2f | %.2f | %.2f | %.2f |\n", s.Label, s.Size, s.Mean, s.Median, s.P99, s.Max)
	}
	b.WriteString("\n")
	if rank := r.RankTest; rank != nil {
		fmt.Fprintf(&b, "Mann-Whitney U = %.1f, p-value **%.5f** (%s), effect size %.3f.\n\n",
			rank.U, rank.PValue, rank.Method, rank.EffectSize)
	}
	fmt.Fprintf(&b, "> **Result:** %s\n", r.Verdict.EngagementMessage)

	return b.String()
}

// HTML renders the Markdown report as a complete HTML page
func HTML(r *verdict.Report, opts Options) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("A/B test %s vs %s", r.Groups.A, r.Groups.B),
	})
	return markdown.ToHTML([]byte(Markdown(r, opts)), p, renderer)
}

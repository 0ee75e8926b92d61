package report

import (
	"fmt"
	"io"
	"strings"

	"abverdict/domain/stats"
	"abverdict/domain/verdict"
)

func writeText(w io.Writer, r *verdict.Report, opts Options) error {
	var b strings.Builder
	a, bb := r.Groups.A, r.Groups.B

	fmt.Fprintf(&b, "📋 A/B TEST REPORT %s\n", r.RunID)
	fmt.Fprintf(&b, "Groups: %s (A) vs %s (B)\n", a, bb)
	fmt.Fprintf(&b, "Rows: %d raw, %d after removing %d outliers (%s >= %g)\n",
		r.RawSize, r.CleanedSize, r.RemovedOutliers, r.Columns.Engagement, r.OutlierThreshold)
	if r.Cached {
		fmt.Fprintf(&b, "(served from cache)\n")
	}

	fmt.Fprintf(&b, "\n📈 RETENTION (%s)\n", r.Columns.Retention)
	fmt.Fprintf(&b, "%s rate: %s (n=%d)\n", a, percent(r.RetentionA.Mean), r.RetentionA.Size)
	fmt.Fprintf(&b, "%s rate: %s (n=%d)\n", bb, percent(r.RetentionB.Mean), r.RetentionB.Size)
	fmt.Fprintf(&b, "Raw difference (A - B): %s\n", signedPercent(r.RawRateDifference))
	if boot := r.Bootstrap; boot != nil {
		fmt.Fprintf(&b, "Bootstrap: %d iterations, %d skipped, seed %d\n", boot.Iterations, boot.Skipped, boot.Seed)
		fmt.Fprintf(&b, "Mean difference %s, 95%% interval [%s, %s]\n",
			signedPercent(boot.MeanDifference), signedPercent(boot.CI95Lower), signedPercent(boot.CI95Upper))
		fmt.Fprintf(&b, "Probability that %s is better than %s: %.1f%%\n", a, bb, boot.ProbabilityABetter*100)
		if opts.HistogramBins > 0 {
			for _, line := range histogram(boot.Differences, opts.HistogramBins, 40) {
				fmt.Fprintf(&b, "  %s\n", line)
			}
		}
	}
	fmt.Fprintf(&b, "%s Recommendation: %s\n", outcomeIcon(r.Verdict.Retention), r.Verdict.RetentionMessage)

	fmt.Fprintf(&b, "\n🎮 ENGAGEMENT (%s)\n", r.Columns.Engagement)
	for _, s := range []stats.Summary{r.EngagementA, r.EngagementB} {
		fmt.Fprintf(&b, "%s: mean %.2f, median %.2f, p99 %.2f, max %.2f (n=%d)\n",
			s.Label, s.Mean, s.Median, s.P99, s.Max, s.Size)
	}
	if rank := r.RankTest; rank != nil {
		fmt.Fprintf(&b, "Mann-Whitney U = %.1f, p-value = %.5f (%s), effect size %.3f\n",
			rank.U, rank.PValue, rank.Method, rank.EffectSize)
	}
	fmt.Fprintf(&b, "Result: %s\n", r.Verdict.EngagementMessage)

	fmt.Fprintf(&b, "\n⏱️  %dms\n", r.RuntimeMs)
	_, err := io.WriteString(w, b.String())
	return err
}

func outcomeIcon(o verdict.Outcome) string {
	if o == verdict.Inconclusive {
		return "⚠️ "
	}
	return "✅"
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func signedPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v*100)
}

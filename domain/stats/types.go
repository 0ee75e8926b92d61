package stats

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// GroupStats is the size and mean of one metric for one group
type GroupStats struct {
	Label string  `json:"label" yaml:"label"`
	Size  int     `json:"size" yaml:"size"`
	Mean  float64 `json:"mean" yaml:"mean"`
}

// NewGroupStats summarises values; an empty sample has mean NaN
func NewGroupStats(label string, values []float64) GroupStats {
	gs := GroupStats{Label: label, Size: len(values), Mean: math.NaN()}
	if len(values) > 0 {
		gs.Mean = stat.Mean(values, nil)
	}
	return gs
}

// Summary describes a skewed continuous sample
type Summary struct {
	Label  string  `json:"label" yaml:"label"`
	Size   int     `json:"size" yaml:"size"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	P99    float64 `json:"p99" yaml:"p99"`
	Max    float64 `json:"max" yaml:"max"`
}

// Summarize computes descriptive statistics; an empty sample yields zeros
func Summarize(label string, values []float64) Summary {
	s := Summary{Label: label, Size: len(values)}
	if len(values) == 0 {
		return s
	}
	data := mstats.Float64Data(values)
	s.Mean, _ = data.Mean()
	s.Median, _ = data.Median()
	s.Max, _ = data.Max()
	if p, err := data.Percentile(99); err == nil {
		s.P99 = p
	} else {
		s.P99 = s.Max
	}
	return s
}

// BootstrapResult is the resampled distribution of mean(A) - mean(B).
// Differences holds one value per non-skipped iteration, in iteration order.
type BootstrapResult struct {
	Differences        []float64 `json:"differences" yaml:"differences"`
	Iterations         int       `json:"iterations" yaml:"iterations"`
	Skipped            int       `json:"skipped" yaml:"skipped"`
	ProbabilityABetter float64   `json:"probability_a_better" yaml:"probability_a_better"`
	MeanDifference     float64   `json:"mean_difference" yaml:"mean_difference"`
	CI95Lower          float64   `json:"ci95_lower" yaml:"ci95_lower"`
	CI95Upper          float64   `json:"ci95_upper" yaml:"ci95_upper"`
	Seed               int64     `json:"seed" yaml:"seed"`
}

// NewBootstrapResult derives the summary fields from the collected differences.
// The caller guarantees len(diffs) > 0.
func NewBootstrapResult(diffs []float64, iterations, skipped int, seed int64) *BootstrapResult {
	positive := 0
	for _, d := range diffs {
		if d > 0 {
			positive++
		}
	}

	sorted := append([]float64(nil), diffs...)
	sort.Float64s(sorted)

	return &BootstrapResult{
		Differences:        diffs,
		Iterations:         iterations,
		Skipped:            skipped,
		ProbabilityABetter: float64(positive) / float64(len(diffs)),
		MeanDifference:     stat.Mean(diffs, nil),
		CI95Lower:          stat.Quantile(0.025, stat.Empirical, sorted, nil),
		CI95Upper:          stat.Quantile(0.975, stat.Empirical, sorted, nil),
		Seed:               seed,
	}
}

// Valid returns the number of iterations that contributed a difference
func (r *BootstrapResult) Valid() int {
	return r.Iterations - r.Skipped
}

// RankTestMethod names how the p-value of a rank test was obtained
type RankTestMethod string

const (
	RankMethodAuto       RankTestMethod = "auto"
	RankMethodExact      RankTestMethod = "exact"
	RankMethodAsymptotic RankTestMethod = "asymptotic"
)

// RankTestResult is the outcome of a two-sample rank-sum test. U is reported for
// group A; EffectSize is U/(nA*nB), the probability that a random A value exceeds a
// random B value (ties counting half).
type RankTestResult struct {
	U          float64        `json:"u" yaml:"u"`
	PValue     float64        `json:"p_value" yaml:"p_value"`
	Z          float64        `json:"z" yaml:"z"`
	EffectSize float64        `json:"effect_size" yaml:"effect_size"`
	Method     RankTestMethod `json:"method" yaml:"method"`
	SizeA      int            `json:"size_a" yaml:"size_a"`
	SizeB      int            `json:"size_b" yaml:"size_b"`
	Ties       bool           `json:"ties" yaml:"ties"`
}

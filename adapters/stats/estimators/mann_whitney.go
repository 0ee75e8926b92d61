package estimators

import (
	"context"
	"fmt"
	"math"
	"sort"

	"abverdict/domain/core"
	"abverdict/domain/dataset"
	"abverdict/domain/stats"
	"abverdict/internal"
	"abverdict/internal/errors"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// auto picks the exact distribution when both samples are at most this size
	// and no value is tied
	exactAutoMaxSize = 8
	// a forced exact test beyond this size falls back to the normal approximation
	exactMaxSize = 50
)

// MannWhitney is the two-sided Mann-Whitney U (Wilcoxon rank-sum) test
type MannWhitney struct {
	method stats.RankTestMethod
	logger *internal.Logger
}

// NewMannWhitney creates the test with automatic method selection
func NewMannWhitney(logger *internal.Logger) *MannWhitney {
	if logger == nil {
		logger = internal.NewDiscardLogger()
	}
	return &MannWhitney{method: stats.RankMethodAuto, logger: logger}
}

// WithMethod returns a copy that computes p-values with the given method
func (m *MannWhitney) WithMethod(method stats.RankTestMethod) *MannWhitney {
	c := *m
	c.method = method
	return &c
}

// Test implements ports.RankTestPort
func (m *MannWhitney) Test(ctx context.Context, ds *dataset.Dataset, groups dataset.GroupPair, metric dataset.Metric) (*stats.RankTestResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled(err)
	}
	if ds.Len() == 0 {
		return nil, errors.Validation("empty group", core.ErrEmptyGroup)
	}

	a, b := dataset.Split(ds, groups, metric)
	res, err := MannWhitneyU(a, b, m.method)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("mann-whitney %s: nA=%d nB=%d U=%.1f p=%.4g (%s)",
		metric, res.SizeA, res.SizeB, res.U, res.PValue, res.Method)
	return res, nil
}

// MannWhitneyU compares samples a and b. U is reported for a; the p-value is
// two-sided, computed as 2*P(U >= max(U_a, U_b)) and capped at 1.
func MannWhitneyU(a, b []float64, method stats.RankTestMethod) (*stats.RankTestResult, error) {
	nA, nB := len(a), len(b)
	if nA == 0 || nB == 0 {
		return nil, errors.Validation("empty group",
			fmt.Errorf("%w: sizes %d and %d", core.ErrEmptyGroup, nA, nB))
	}
	for _, v := range append(append([]float64(nil), a...), b...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Validation("non-numeric value", core.ErrNonNumeric)
		}
	}

	rankSumA, tieTerm := rankSum(a, b)
	fa, fb := float64(nA), float64(nB)
	n := fa + fb

	u1 := rankSumA - fa*(fa+1)/2
	u2 := fa*fb - u1
	uMax := math.Max(u1, u2)
	mu := fa * fb / 2
	sigma := math.Sqrt(fa * fb / 12 * ((n + 1) - tieTerm/(n*(n-1))))
	ties := tieTerm > 0

	res := &stats.RankTestResult{
		U:          u1,
		EffectSize: u1 / (fa * fb),
		SizeA:      nA,
		SizeB:      nB,
		Ties:       ties,
	}
	if sigma > 0 {
		res.Z = (u1 - mu) / sigma
	}

	switch chooseMethod(method, nA, nB, ties) {
	case stats.RankMethodExact:
		res.Method = stats.RankMethodExact
		res.PValue = math.Min(1, 2*exactSurvival(nA, nB, uMax))
	default:
		res.Method = stats.RankMethodAsymptotic
		if sigma == 0 {
			// every value tied
			res.PValue = 1
			return res, nil
		}
		z := (uMax - mu - 0.5) / sigma
		res.PValue = math.Min(1, 2*distuv.UnitNormal.Survival(z))
	}
	return res, nil
}

func chooseMethod(method stats.RankTestMethod, nA, nB int, ties bool) stats.RankTestMethod {
	switch method {
	case stats.RankMethodAsymptotic:
		return stats.RankMethodAsymptotic
	case stats.RankMethodExact:
		if ties || nA > exactMaxSize || nB > exactMaxSize {
			return stats.RankMethodAsymptotic
		}
		return stats.RankMethodExact
	default:
		if !ties && nA <= exactAutoMaxSize && nB <= exactAutoMaxSize {
			return stats.RankMethodExact
		}
		return stats.RankMethodAsymptotic
	}
}

// rankSum returns the sum of a's ranks in the pooled sample, tied values sharing
// their average rank, and the tie correction term sum(t^3 - t) over tie groups.
func rankSum(a, b []float64) (sumA, tieTerm float64) {
	type obs struct {
		v     float64
		fromA bool
	}
	pooled := make([]obs, 0, len(a)+len(b))
	for _, v := range a {
		pooled = append(pooled, obs{v, true})
	}
	for _, v := range b {
		pooled = append(pooled, obs{v, false})
	}
	sort.Slice(pooled, func(i, j int) bool { return pooled[i].v < pooled[j].v })

	for i := 0; i < len(pooled); {
		j := i
		for j < len(pooled) && pooled[j].v == pooled[i].v {
			j++
		}
		rank := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			if pooled[k].fromA {
				sumA += rank
			}
		}
		t := float64(j - i)
		tieTerm += t*t*t - t
		i = j
	}
	return sumA, tieTerm
}

// exactSurvival returns P(U >= u) under the null for sample sizes m and n with no
// ties. counts[k][s] is the number of k-subsets of ranks 1..m+n summing to s.
func exactSurvival(m, n int, u float64) float64 {
	total := m + n
	maxSum := total * (total + 1) / 2
	counts := make([][]float64, m+1)
	for k := range counts {
		counts[k] = make([]float64, maxSum+1)
	}
	counts[0][0] = 1
	for r := 1; r <= total; r++ {
		for k := min(r, m); k >= 1; k-- {
			prev, cur := counts[k-1], counts[k]
			for s := maxSum - r; s >= 0; s-- {
				if prev[s] != 0 {
					cur[s+r] += prev[s]
				}
			}
		}
	}

	offset := m * (m + 1) / 2
	var tail, all float64
	for s, c := range counts[m] {
		if c == 0 {
			continue
		}
		all += c
		if float64(s-offset) >= u {
			tail += c
		}
	}
	return tail / all
}

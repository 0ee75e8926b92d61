package dataset

import (
	"fmt"
	"math"
	"sort"

	"abverdict/domain/core"
	"abverdict/internal/errors"

	"github.com/montanaflynn/stats"
)

// FilterResult is the outcome of outlier removal
type FilterResult struct {
	Dataset   *Dataset
	Removed   int
	Threshold float64
}

// FilterOutliers keeps the records whose engagement is strictly below threshold.
// The input is left untouched. A threshold at or below the column minimum yields an
// empty dataset; that is a valid result and later stages report the empty groups.
func FilterOutliers(ds *Dataset, threshold float64) FilterResult {
	kept := make([]Record, 0, ds.Len())
	if ds != nil {
		for _, r := range ds.Records {
			if r.Engagement < threshold {
				kept = append(kept, r)
			}
		}
	}
	return FilterResult{
		Dataset:   New(kept),
		Removed:   ds.Len() - len(kept),
		Threshold: threshold,
	}
}

// DefaultThreshold returns the given percentile of the engagement column,
// interpolating linearly between the two closest ranks at position p/100*(n-1).
func DefaultThreshold(ds *Dataset, percentile float64) (float64, error) {
	if percentile <= 0 || percentile > 100 {
		return 0, errors.Validation("outlier percentile",
			fmt.Errorf("%w: percentile %g outside (0, 100]", core.ErrInvalidParameter, percentile))
	}
	if ds.Len() == 0 {
		return 0, errors.Validation("empty dataset", core.ErrEmptyGroup)
	}
	sorted := stats.Float64Data(ds.Values(MetricEngagement))
	sort.Sort(sorted)

	pos := percentile / 100 * float64(sorted.Len()-1)
	lo := int(math.Floor(pos))
	if lo >= sorted.Len()-1 {
		top, err := sorted.Max()
		if err != nil {
			return 0, errors.Validation("outlier percentile",
				fmt.Errorf("%w: percentile %g of %d values: %v", core.ErrInvalidParameter, percentile, ds.Len(), err))
		}
		return top, nil
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo]), nil
}

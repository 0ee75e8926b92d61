package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// histogram draws values as horizontal bars, one line per bin, the longest bar
// being width characters. Bin labels are the lower edges in percentage points.
func histogram(values []float64, bins, width int) []string {
	if len(values) == 0 || bins <= 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if hi == lo {
		bins = 1
		hi = lo + 1
	} else {
		// stat.Histogram needs every value strictly below the last divider
		hi = math.Max(hi+(hi-lo)*1e-9, math.Nextafter(hi, math.Inf(1)))
	}

	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	counts := stat.Histogram(make([]float64, bins), dividers, sorted, nil)
	peak := floats.Max(counts)

	lines := make([]string, len(counts))
	for i, c := range counts {
		n := 0
		if peak > 0 {
			n = int(c / peak * float64(width))
		}
		lines[i] = fmt.Sprintf("%+8.2f%% │%s %d", dividers[i]*100, strings.Repeat("█", n), int(c))
	}
	return lines
}

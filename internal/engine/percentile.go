package engine

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Distribution holds the five-point percentile summary of a pooled sample.
type Distribution struct {
	P10, P25, P50, P75, P90 float64
}

// ComputePercentiles calculates P10/P25/P50/P75/P90 from the pooled sample
// using linear interpolation between closest ranks. The orchestrator's
// no-data check makes an empty sample unreachable, but it is guarded
// anyway: an empty input is an explicit error, never silent zeros.
func ComputePercentiles(sample []float64) (Distribution, error) {
	if len(sample) == 0 {
		return Distribution{}, eris.New("percentile: empty pooled sample")
	}

	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	return Distribution{
		P10: quantile(sorted, 0.10),
		P25: quantile(sorted, 0.25),
		P50: quantile(sorted, 0.50),
		P75: quantile(sorted, 0.75),
		P90: quantile(sorted, 0.90),
	}, nil
}

// quantile interpolates linearly between order statistics of a sorted
// sample. q must be in [0,1].
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	pos := q * float64(n-1)
	lo := int(pos)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

package engine

import (
	"math"
	"sort"

	"github.com/talentops/pricing-engine/internal/model"
)

// NormalizeContributions orders contributions by descending weight, then
// source name, so the pooled sample is identical regardless of gatherer
// completion order. Unusable (empty) contributions are dropped.
func NormalizeContributions(contributions []model.SourceContribution) []model.SourceContribution {
	out := make([]model.SourceContribution, 0, len(contributions))
	for _, c := range contributions {
		if c.Usable() {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].SourceName < out[j].SourceName
	})
	return out
}

// BuildPooledSample expands each contribution's data points by an integer
// repetition factor of round(weight*100), so a source's influence on the
// percentiles is proportional to its trust weight rather than to how many
// raw records it happened to contribute. A weight below 0.005 rounds to
// zero repetitions and contributes no mass; that is accepted behavior, not
// special-cased.
//
// The input must already be normalized via NormalizeContributions.
func BuildPooledSample(contributions []model.SourceContribution) []float64 {
	var pooled []float64
	for _, c := range contributions {
		reps := int(math.Round(c.Weight * 100))
		for i := 0; i < reps; i++ {
			pooled = append(pooled, c.DataPoints...)
		}
	}
	return pooled
}

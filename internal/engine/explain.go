package engine

import (
	"fmt"
	"strings"

	"github.com/talentops/pricing-engine/internal/model"
)

// Explanation renders the one-sentence rationale naming the contributing
// sources, the total raw sample size, and the confidence score. It is a
// pure template over already-computed fields.
func Explanation(contributions []model.SourceContribution, confidence int) string {
	names := make([]string, len(contributions))
	total := 0
	for i, c := range contributions {
		names[i] = string(c.SourceName)
		total += c.SampleSize
	}

	return fmt.Sprintf(
		"This recommendation is based on %d data source(s): %s. Total sample size: %d data points. Confidence level: %d%%.",
		len(contributions),
		strings.Join(names, ", "),
		total,
		confidence,
	)
}

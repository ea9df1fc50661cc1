package engine

import (
	"math"

	"github.com/talentops/pricing-engine/internal/model"
)

// Confidence sub-score caps. Coverage and sample size dominate; recency and
// match quality refine.
const (
	maxCoverageScore     = 30
	maxSampleScore       = 30
	maxRecencyScore      = 20
	maxMatchQualityScore = 20

	// defaultRecencyDays is assumed when no contribution reports recency.
	defaultRecencyDays = 180.0
)

// ConfidenceScore derives a 0-100 trust score from the contributing
// evidence. The same score doubles as the audit "data consistency" figure.
func ConfidenceScore(contributions []model.SourceContribution) int {
	if len(contributions) == 0 {
		return 0
	}

	score := coverageScore(len(contributions)) +
		sampleSizeScore(totalSampleSize(contributions)) +
		recencyScore(meanRecencyDays(contributions)) +
		matchQualityScore(meanMatchQuality(contributions))

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func coverageScore(sources int) int {
	s := 6 * sources
	if s > maxCoverageScore {
		return maxCoverageScore
	}
	return s
}

func sampleSizeScore(total int) int {
	switch {
	case total >= 50:
		return maxSampleScore
	case total >= 20:
		return 20
	case total >= 10:
		return 10
	default:
		return 5
	}
}

func recencyScore(meanDays float64) int {
	switch {
	case meanDays <= 90:
		return maxRecencyScore
	case meanDays <= 180:
		return 15
	case meanDays <= 365:
		return 10
	default:
		return 5
	}
}

func matchQualityScore(mean float64) int {
	return int(math.Round(mean * maxMatchQualityScore))
}

func totalSampleSize(contributions []model.SourceContribution) int {
	total := 0
	for _, c := range contributions {
		total += c.SampleSize
	}
	return total
}

// meanRecencyDays averages the reported recencies; sources that do not
// report recency are excluded. No reports at all defaults to 180 days.
func meanRecencyDays(contributions []model.SourceContribution) float64 {
	var sum float64
	var n int
	for _, c := range contributions {
		if c.RecencyDays != nil {
			sum += *c.RecencyDays
			n++
		}
	}
	if n == 0 {
		return defaultRecencyDays
	}
	return sum / float64(n)
}

func meanMatchQuality(contributions []model.SourceContribution) float64 {
	var sum float64
	for _, c := range contributions {
		sum += c.MatchQuality
	}
	return sum / float64(len(contributions))
}

// Package model defines the core entities of the salary pricing engine.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceName identifies one of the configured compensation data sources.
type SourceName string

const (
	SourceBenchmarkSurvey   SourceName = "benchmark_survey"
	SourceListingsPrimary   SourceName = "listings_primary"
	SourceListingsSecondary SourceName = "listings_secondary"
	SourceInternalRecords   SourceName = "internal_records"
	SourceApplicantRecords  SourceName = "applicant_records"
)

// AllSources lists every configured source in descending trust order.
// The order is fixed; weight lookup and the attempted-source list in
// NoMarketData errors both follow it.
func AllSources() []SourceName {
	return []SourceName{
		SourceBenchmarkSurvey,
		SourceListingsPrimary,
		SourceListingsSecondary,
		SourceInternalRecords,
		SourceApplicantRecords,
	}
}

// CatalogMatch is the best-guess catalog entry supplied by the external
// job-matching service. Code and Family may be empty when the matcher
// had no opinion.
type CatalogMatch struct {
	Code       string  `json:"code"`
	Family     string  `json:"family,omitempty"`
	Similarity float64 `json:"similarity"`
}

// JobRequest is the pricing input. Title is required; everything else is
// optional enrichment from upstream collaborators.
type JobRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Catalog     *CatalogMatch `json:"catalog,omitempty"`
}

// SourceContribution is an immutable snapshot of one source's evidence for
// a single pricing request.
type SourceContribution struct {
	SourceName   SourceName `json:"source_name"`
	Weight       float64    `json:"weight"`
	SampleSize   int        `json:"sample_size"`
	DataPoints   []float64  `json:"data_points"`
	P10          *float64   `json:"p10,omitempty"`
	P25          *float64   `json:"p25,omitempty"`
	P50          *float64   `json:"p50,omitempty"`
	P75          *float64   `json:"p75,omitempty"`
	P90          *float64   `json:"p90,omitempty"`
	RecencyDays  *float64   `json:"recency_days,omitempty"`
	MatchQuality float64    `json:"match_quality"`
}

// Usable reports whether the contribution carries any evidence. Empty
// contributions must never enter aggregation.
func (c *SourceContribution) Usable() bool {
	return c != nil && len(c.DataPoints) > 0
}

// ScenarioBand is a named sub-range of the percentile distribution intended
// for a specific hiring strategy.
type ScenarioBand struct {
	Name    string          `json:"name"`
	Min     decimal.Decimal `json:"min"`
	Max     decimal.Decimal `json:"max"`
	UseCase string          `json:"use_case"`
}

// Percentiles holds the five-point distribution of the pooled sample.
type Percentiles struct {
	P10 decimal.Decimal `json:"p10"`
	P25 decimal.Decimal `json:"p25"`
	P50 decimal.Decimal `json:"p50"`
	P75 decimal.Decimal `json:"p75"`
	P90 decimal.Decimal `json:"p90"`
}

// PricingResult is the final output of one pricing request. It is built once
// and never mutated afterwards.
type PricingResult struct {
	ID                   string               `json:"id"`
	JobTitle             string               `json:"job_title"`
	Percentiles          Percentiles          `json:"percentiles"`
	RecommendedMin       decimal.Decimal      `json:"recommended_min"`
	RecommendedMax       decimal.Decimal      `json:"recommended_max"`
	TargetSalary         decimal.Decimal      `json:"target_salary"`
	ConfidenceScore      int                  `json:"confidence_score"`
	SourceContributions  []SourceContribution `json:"source_contributions"`
	AlternativeScenarios []ScenarioBand       `json:"alternative_scenarios"`
	Explanation          string               `json:"explanation"`
	CreatedAt            time.Time            `json:"created_at"`
}

// TotalSampleSize sums the raw sample sizes across contributions.
func (r *PricingResult) TotalSampleSize() int {
	total := 0
	for _, c := range r.SourceContributions {
		total += c.SampleSize
	}
	return total
}

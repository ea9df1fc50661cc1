package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talentops/pricing-engine/internal/model"
)

func TestExplanation_Template(t *testing.T) {
	contributions := []model.SourceContribution{
		{SourceName: model.SourceBenchmarkSurvey, SampleSize: 5},
		{SourceName: model.SourceListingsPrimary, SampleSize: 2},
		{SourceName: model.SourceInternalRecords, SampleSize: 1},
	}

	got := Explanation(contributions, 58)
	want := "This recommendation is based on 3 data source(s): benchmark_survey, listings_primary, internal_records. " +
		"Total sample size: 8 data points. Confidence level: 58%."
	assert.Equal(t, want, got)
}

func TestExplanation_SingleSource(t *testing.T) {
	got := Explanation([]model.SourceContribution{
		{SourceName: model.SourceApplicantRecords, SampleSize: 12},
	}, 31)
	want := "This recommendation is based on 1 data source(s): applicant_records. " +
		"Total sample size: 12 data points. Confidence level: 31%."
	assert.Equal(t, want, got)
}

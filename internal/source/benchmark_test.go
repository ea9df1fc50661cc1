package source

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentops/pricing-engine/internal/config"
	"github.com/talentops/pricing-engine/internal/model"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock
}

func testSourcesConfig() config.SourcesConfig {
	return config.SourcesConfig{GatherTimeoutMS: 1000, RetryAttempts: 1}
}

func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		SimilarityThreshold:   0.3,
		FamilyMatchQuality:    0.9,
		FuzzyMatchQuality:     0.75,
		SubstringMatchQuality: 0.6,
		InternalMatchQuality:  0.9,
		ApplicantMatchQuality: 0.7,
		ApplicantMaxAgeMonths: 24,
	}
}

var fixedNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestBenchmarkGatherer_NoCatalogMatch(t *testing.T) {
	mock := newMockPool(t)
	g := NewBenchmark(mock, testSourcesConfig())

	c, err := g.Gather(context.Background(), model.JobRequest{Title: "Software Engineer"})
	require.NoError(t, err)
	assert.Nil(t, c, "survey has no opinion without a catalog code")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBenchmarkGatherer_Contribution(t *testing.T) {
	mock := newMockPool(t)
	capturedAt := fixedNow.AddDate(0, 0, -60)

	mock.ExpectQuery(`SELECT p10, p25, p50, p75, p90, captured_at\s+FROM survey_benchmarks`).
		WithArgs("SE-3").
		WillReturnRows(pgxmock.NewRows([]string{"p10", "p25", "p50", "p75", "p90", "captured_at"}).
			AddRow(80000.0, 90000.0, 100000.0, 110000.0, 120000.0, capturedAt))

	g := NewBenchmark(mock, testSourcesConfig()).WithNow(func() time.Time { return fixedNow })

	c, err := g.Gather(context.Background(), model.JobRequest{
		Title:   "Software Engineer",
		Catalog: &model.CatalogMatch{Code: "SE-3", Similarity: 0.85},
	})
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, model.SourceBenchmarkSurvey, c.SourceName)
	assert.Equal(t, []float64{80000, 90000, 100000, 110000, 120000}, c.DataPoints)
	assert.Equal(t, 5, c.SampleSize)
	require.NotNil(t, c.P50)
	assert.Equal(t, 100000.0, *c.P50)
	require.NotNil(t, c.RecencyDays)
	assert.InDelta(t, 60, *c.RecencyDays, 0.001)
	assert.Equal(t, 0.85, c.MatchQuality)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBenchmarkGatherer_NoRows(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery(`FROM survey_benchmarks`).
		WithArgs("UNKNOWN").
		WillReturnError(pgx.ErrNoRows)

	g := NewBenchmark(mock, testSourcesConfig())

	c, err := g.Gather(context.Background(), model.JobRequest{
		Title:   "Software Engineer",
		Catalog: &model.CatalogMatch{Code: "UNKNOWN"},
	})
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBenchmarkGatherer_ExactCatalogDefaultsQuality(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery(`FROM survey_benchmarks`).
		WithArgs("SE-3").
		WillReturnRows(pgxmock.NewRows([]string{"p10", "p25", "p50", "p75", "p90", "captured_at"}).
			AddRow(80000.0, 90000.0, 100000.0, 110000.0, 120000.0, fixedNow))

	g := NewBenchmark(mock, testSourcesConfig()).WithNow(func() time.Time { return fixedNow })

	c, err := g.Gather(context.Background(), model.JobRequest{
		Title:   "Software Engineer",
		Catalog: &model.CatalogMatch{Code: "SE-3"}, // no similarity reported
	})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 1.0, c.MatchQuality)
}

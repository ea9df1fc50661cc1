package engine

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentops/pricing-engine/internal/config"
	"github.com/talentops/pricing-engine/internal/model"
	"github.com/talentops/pricing-engine/internal/source"
	"github.com/talentops/pricing-engine/internal/store"
)

// stubGatherer returns a canned contribution (or error) for orchestrator tests.
type stubGatherer struct {
	name         model.SourceName
	contribution *model.SourceContribution
	err          error
	delay        time.Duration
}

func (s *stubGatherer) Name() model.SourceName { return s.name }

func (s *stubGatherer) Gather(ctx context.Context, job model.JobRequest) (*model.SourceContribution, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.contribution, nil
}

// memStore records saved results in memory.
type memStore struct {
	saved   []*model.PricingResult
	saveErr error
}

func (m *memStore) SaveResult(ctx context.Context, r *model.PricingResult) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, r)
	return nil
}

func (m *memStore) GetResult(ctx context.Context, id string) (*model.PricingResult, error) {
	return nil, nil
}

func (m *memStore) ListResults(ctx context.Context, f store.ResultFilter) ([]model.PricingResult, error) {
	return nil, nil
}

func (m *memStore) Migrate(ctx context.Context) error { return nil }
func (m *memStore) Close() error                      { return nil }

func stubContribution(name model.SourceName, quality float64, points ...float64) *model.SourceContribution {
	return &model.SourceContribution{
		SourceName:   name,
		SampleSize:   len(points),
		DataPoints:   points,
		MatchQuality: quality,
	}
}

func newTestOrchestrator(audit store.Store, gatherers ...source.Gatherer) *Orchestrator {
	registry := source.NewRegistry()
	for _, g := range gatherers {
		registry.Register(g)
	}
	o := NewOrchestrator(registry, config.DefaultWeightProfile(), audit, config.SourcesConfig{GatherTimeoutMS: 1000})
	o.WithNow(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) })
	o.WithIDFunc(func() string { return "test-result-id" })
	return o
}

func TestOrchestrator_EmptyTitle(t *testing.T) {
	o := newTestOrchestrator(nil)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := o.Price(context.Background(), model.JobRequest{Title: title})
		var malformed *MalformedInputError
		require.ErrorAs(t, err, &malformed, "title %q", title)
	}
}

func TestOrchestrator_NoMarketData(t *testing.T) {
	// All five sources registered, none has data.
	o := newTestOrchestrator(nil,
		&stubGatherer{name: model.SourceBenchmarkSurvey},
		&stubGatherer{name: model.SourceListingsPrimary},
		&stubGatherer{name: model.SourceListingsSecondary},
		&stubGatherer{name: model.SourceInternalRecords},
		&stubGatherer{name: model.SourceApplicantRecords},
	)

	result, err := o.Price(context.Background(), model.JobRequest{Title: "Underwater Basket Weaver"})
	assert.Nil(t, result)

	var noData *NoMarketDataError
	require.ErrorAs(t, err, &noData)
	assert.Equal(t, "Underwater Basket Weaver", noData.JobTitle)
	assert.Equal(t, model.AllSources(), noData.AttemptedSources)
	assert.Contains(t, err.Error(), "benchmark_survey")
	assert.Contains(t, err.Error(), "applicant_records")
}

func TestOrchestrator_GathererErrorIsNotFatal(t *testing.T) {
	o := newTestOrchestrator(nil,
		&stubGatherer{name: model.SourceBenchmarkSurvey, err: errors.New("connection refused")},
		&stubGatherer{
			name:         model.SourceInternalRecords,
			contribution: stubContribution(model.SourceInternalRecords, 0.9, 95000, 100000),
		},
	)

	result, err := o.Price(context.Background(), model.JobRequest{Title: "Data Analyst"})
	require.NoError(t, err)
	require.Len(t, result.SourceContributions, 1)
	assert.Equal(t, model.SourceInternalRecords, result.SourceContributions[0].SourceName)
}

func TestOrchestrator_SlowGathererTimesOut(t *testing.T) {
	o := newTestOrchestrator(nil,
		&stubGatherer{
			name:         model.SourceBenchmarkSurvey,
			delay:        5 * time.Second,
			contribution: stubContribution(model.SourceBenchmarkSurvey, 1.0, 100000),
		},
		&stubGatherer{
			name:         model.SourceInternalRecords,
			contribution: stubContribution(model.SourceInternalRecords, 0.9, 95000),
		},
	)

	start := time.Now()
	result, err := o.Price(context.Background(), model.JobRequest{Title: "Data Analyst"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
	require.Len(t, result.SourceContributions, 1)
	assert.Equal(t, model.SourceInternalRecords, result.SourceContributions[0].SourceName)
}

func TestOrchestrator_WeightsStampedFromProfile(t *testing.T) {
	o := newTestOrchestrator(nil,
		&stubGatherer{
			name:         model.SourceBenchmarkSurvey,
			contribution: stubContribution(model.SourceBenchmarkSurvey, 1.0, 100000),
		},
		&stubGatherer{
			name:         model.SourceApplicantRecords,
			contribution: stubContribution(model.SourceApplicantRecords, 0.7, 72000),
		},
	)

	result, err := o.Price(context.Background(), model.JobRequest{Title: "Data Analyst"})
	require.NoError(t, err)
	require.Len(t, result.SourceContributions, 2)
	assert.Equal(t, 0.40, result.SourceContributions[0].Weight)
	assert.Equal(t, 0.05, result.SourceContributions[1].Weight)
}

func TestOrchestrator_PersistsBestEffort(t *testing.T) {
	audit := &memStore{}
	o := newTestOrchestrator(audit,
		&stubGatherer{
			name:         model.SourceBenchmarkSurvey,
			contribution: stubContribution(model.SourceBenchmarkSurvey, 1.0, 90000, 100000, 110000),
		},
	)

	result, err := o.Price(context.Background(), model.JobRequest{Title: "Data Analyst"})
	require.NoError(t, err)
	require.Len(t, audit.saved, 1)
	assert.Equal(t, result.ID, audit.saved[0].ID)
}

func TestOrchestrator_PersistFailureDoesNotFailRequest(t *testing.T) {
	audit := &memStore{saveErr: errors.New("sink down")}
	o := newTestOrchestrator(audit,
		&stubGatherer{
			name:         model.SourceBenchmarkSurvey,
			contribution: stubContribution(model.SourceBenchmarkSurvey, 1.0, 90000, 100000, 110000),
		},
	)

	result, err := o.Price(context.Background(), model.JobRequest{Title: "Data Analyst"})
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestOrchestrator_ResultShape(t *testing.T) {
	o := newTestOrchestrator(nil,
		&stubGatherer{
			name:         model.SourceBenchmarkSurvey,
			contribution: stubContribution(model.SourceBenchmarkSurvey, 1.0, 80000, 90000, 100000, 110000, 120000),
		},
	)

	result, err := o.Price(context.Background(), model.JobRequest{Title: "Software Engineer"})
	require.NoError(t, err)

	assert.Equal(t, "test-result-id", result.ID)
	assert.Equal(t, "Software Engineer", result.JobTitle)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), result.CreatedAt)

	// Derived fields mirror the percentile distribution.
	assert.True(t, result.RecommendedMin.Equal(result.Percentiles.P25))
	assert.True(t, result.RecommendedMax.Equal(result.Percentiles.P75))
	assert.True(t, result.TargetSalary.Equal(result.Percentiles.P50))
	assert.Len(t, result.AlternativeScenarios, 4)
	assert.NotEmpty(t, result.Explanation)
}

func TestPriceContributions_Deterministic(t *testing.T) {
	base := []model.SourceContribution{
		{SourceName: model.SourceBenchmarkSurvey, Weight: 0.40, SampleSize: 5, DataPoints: []float64{80000, 90000, 100000, 110000, 120000}, MatchQuality: 1.0},
		{SourceName: model.SourceListingsPrimary, Weight: 0.25, SampleSize: 2, DataPoints: []float64{95000, 105000}, MatchQuality: 0.9},
		{SourceName: model.SourceInternalRecords, Weight: 0.15, SampleSize: 1, DataPoints: []float64{100000}, MatchQuality: 0.9},
	}

	reference, err := PriceContributions("Software Engineer", base)
	require.NoError(t, err)
	refJSON, err := json.Marshal(reference)
	require.NoError(t, err)

	// Shuffled gatherer completion order must not change the output.
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]model.SourceContribution, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		result, err := PriceContributions("Software Engineer", shuffled)
		require.NoError(t, err)
		gotJSON, err := json.Marshal(result)
		require.NoError(t, err)
		assert.Equal(t, string(refJSON), string(gotJSON))
	}
}

func TestPriceContributions_EndToEndExample(t *testing.T) {
	contributions := []model.SourceContribution{
		{SourceName: model.SourceBenchmarkSurvey, Weight: 0.40, SampleSize: 5, DataPoints: []float64{80000, 90000, 100000, 110000, 120000}, MatchQuality: 1.0},
		{SourceName: model.SourceListingsPrimary, Weight: 0.25, SampleSize: 2, DataPoints: []float64{95000, 105000}, MatchQuality: 0.9},
		{SourceName: model.SourceInternalRecords, Weight: 0.15, SampleSize: 1, DataPoints: []float64{100000}, MatchQuality: 0.9},
	}

	result, err := PriceContributions("Software Engineer", contributions)
	require.NoError(t, err)

	// Pooled sample: 5 points x40 reps + 2 x25 + 1 x15 = 265 values; the
	// survey's 100000-centered spread dominates, so the median sits there.
	median, _ := result.TargetSalary.Float64()
	assert.InDelta(t, 100000, median, 2500)

	// Confidence from the sub-score formulas:
	// coverage 3 sources x6 = 18; raw sample 8 → tier 5; no recency
	// reported → default 180 days → 15; mean quality 0.9333 → round → 19.
	assert.Equal(t, 18+5+15+19, result.ConfidenceScore)

	assert.Equal(t, 8, result.TotalSampleSize())
	assert.Contains(t, result.Explanation, "3 data source(s)")
	assert.Contains(t, result.Explanation, "Total sample size: 8 data points")
}

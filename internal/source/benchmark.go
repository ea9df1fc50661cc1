package source

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/talentops/pricing-engine/internal/config"
	"github.com/talentops/pricing-engine/internal/db"
	"github.com/talentops/pricing-engine/internal/model"
	"github.com/talentops/pricing-engine/internal/resilience"
)

// BenchmarkGatherer reads the authoritative survey benchmark for a
// pre-matched catalog entry. The survey reports its own percentile
// breakdown; those five values stand in as the contribution's data points.
type BenchmarkGatherer struct {
	pool  db.Pool
	retry resilience.RetryConfig
	now   func() time.Time
}

// NewBenchmark creates the benchmark survey gatherer.
func NewBenchmark(pool db.Pool, cfg config.SourcesConfig) *BenchmarkGatherer {
	return &BenchmarkGatherer{
		pool:  pool,
		retry: resilience.DefaultRetryConfig(cfg.RetryAttempts),
		now:   time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (g *BenchmarkGatherer) WithNow(now func() time.Time) *BenchmarkGatherer {
	g.now = now
	return g
}

// Name implements Gatherer.
func (g *BenchmarkGatherer) Name() model.SourceName { return model.SourceBenchmarkSurvey }

const benchmarkSQL = `
SELECT p10, p25, p50, p75, p90, captured_at
FROM survey_benchmarks
WHERE catalog_code = $1
ORDER BY captured_at DESC
LIMIT 1`

type benchmarkRow struct {
	p10, p25, p50, p75, p90 float64
	capturedAt              time.Time
}

// Gather looks up the survey percentiles for the job's catalog code.
// Without a catalog match the survey has no opinion.
func (g *BenchmarkGatherer) Gather(ctx context.Context, job model.JobRequest) (*model.SourceContribution, error) {
	if job.Catalog == nil || job.Catalog.Code == "" {
		return nil, nil
	}

	row, err := resilience.DoVal(ctx, g.retry, "benchmark_survey", func(ctx context.Context) (*benchmarkRow, error) {
		var r benchmarkRow
		err := g.pool.QueryRow(ctx, benchmarkSQL, job.Catalog.Code).Scan(
			&r.p10, &r.p25, &r.p50, &r.p75, &r.p90, &r.capturedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, eris.Wrapf(err, "benchmark: query catalog %s", job.Catalog.Code)
		}
		return &r, nil
	})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	points := []float64{row.p10, row.p25, row.p50, row.p75, row.p90}
	recency := g.now().Sub(row.capturedAt).Hours() / 24
	if recency < 0 {
		recency = 0
	}

	// The matcher's title-similarity score is the survey's match quality;
	// an exact catalog resolution without a score counts as exact.
	quality := job.Catalog.Similarity
	if quality <= 0 {
		quality = 1.0
	}

	return &model.SourceContribution{
		SourceName:   model.SourceBenchmarkSurvey,
		SampleSize:   len(points),
		DataPoints:   points,
		P10:          &row.p10,
		P25:          &row.p25,
		P50:          &row.p50,
		P75:          &row.p75,
		P90:          &row.p90,
		RecencyDays:  &recency,
		MatchQuality: quality,
	}, nil
}

package source

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/talentops/pricing-engine/internal/config"
	"github.com/talentops/pricing-engine/internal/db"
	"github.com/talentops/pricing-engine/internal/match"
	"github.com/talentops/pricing-engine/internal/model"
	"github.com/talentops/pricing-engine/internal/resilience"
)

// ApplicantGatherer collects salary expectations from recent applicants.
// Expectations stated per month are annualized before entering the sample.
type ApplicantGatherer struct {
	pool     db.Pool
	matching config.MatchingConfig
	retry    resilience.RetryConfig
	now      func() time.Time
}

// NewApplicant creates the applicant expectations gatherer.
func NewApplicant(pool db.Pool, cfg config.SourcesConfig, matching config.MatchingConfig) *ApplicantGatherer {
	return &ApplicantGatherer{
		pool:     pool,
		matching: matching,
		retry:    resilience.DefaultRetryConfig(cfg.RetryAttempts),
		now:      time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (g *ApplicantGatherer) WithNow(now func() time.Time) *ApplicantGatherer {
	g.now = now
	return g
}

// Name implements Gatherer.
func (g *ApplicantGatherer) Name() model.SourceName { return model.SourceApplicantRecords }

const applicantSQL = `
SELECT desired_title, expected_salary, salary_period, applied_at
FROM applicant_records
WHERE applied_at >= $1
  AND expected_salary > 0`

type applicantRow struct {
	Title     string
	Expected  float64
	Period    string
	AppliedAt time.Time
}

// Gather collects annualized expectations of applicants whose desired title
// fuzzily matches the requested one.
func (g *ApplicantGatherer) Gather(ctx context.Context, job model.JobRequest) (*model.SourceContribution, error) {
	maxAge := g.matching.ApplicantMaxAgeMonths
	if maxAge <= 0 {
		maxAge = 24
	}
	cutoff := g.now().AddDate(0, -maxAge, 0)

	applicants, err := resilience.DoVal(ctx, g.retry, "applicant_records", func(ctx context.Context) ([]applicantRow, error) {
		rows, err := g.pool.Query(ctx, applicantSQL, cutoff)
		if err != nil {
			return nil, eris.Wrap(err, "applicant: query records")
		}
		defer rows.Close()

		var out []applicantRow
		for rows.Next() {
			var a applicantRow
			if err := rows.Scan(&a.Title, &a.Expected, &a.Period, &a.AppliedAt); err != nil {
				return nil, eris.Wrap(err, "applicant: scan record")
			}
			out = append(out, a)
		}
		if err := rows.Err(); err != nil {
			return nil, eris.Wrap(err, "applicant: iterate records")
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	var points []float64
	var ageSum float64
	for _, a := range applicants {
		if match.Similarity(a.Title, job.Title) < g.matching.SimilarityThreshold {
			continue
		}
		points = append(points, annualize(a.Expected, a.Period))
		age := g.now().Sub(a.AppliedAt).Hours() / 24
		if age < 0 {
			age = 0
		}
		ageSum += age
	}
	if len(points) == 0 {
		return nil, nil
	}
	recency := ageSum / float64(len(points))

	return &model.SourceContribution{
		SourceName:   model.SourceApplicantRecords,
		SampleSize:   len(points),
		DataPoints:   points,
		RecencyDays:  &recency,
		MatchQuality: g.matching.ApplicantMatchQuality,
	}, nil
}

// annualize converts an expected salary to a yearly amount. Only monthly
// figures need conversion; anything else is stored annual.
func annualize(amount float64, period string) float64 {
	if strings.EqualFold(strings.TrimSpace(period), "monthly") {
		return amount * 12
	}
	return amount
}

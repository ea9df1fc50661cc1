package source

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/talentops/pricing-engine/internal/config"
	"github.com/talentops/pricing-engine/internal/db"
	"github.com/talentops/pricing-engine/internal/match"
	"github.com/talentops/pricing-engine/internal/model"
	"github.com/talentops/pricing-engine/internal/resilience"
)

// InternalRecordsGatherer matches active employee records by fuzzy title.
// Titles are controlled vocabulary internally, so match quality is fixed
// high, and payroll data is always current (recency 0).
type InternalRecordsGatherer struct {
	pool     db.Pool
	matching config.MatchingConfig
	retry    resilience.RetryConfig
}

// NewInternalRecords creates the HR records gatherer.
func NewInternalRecords(pool db.Pool, cfg config.SourcesConfig, matching config.MatchingConfig) *InternalRecordsGatherer {
	return &InternalRecordsGatherer{
		pool:     pool,
		matching: matching,
		retry:    resilience.DefaultRetryConfig(cfg.RetryAttempts),
	}
}

// Name implements Gatherer.
func (g *InternalRecordsGatherer) Name() model.SourceName { return model.SourceInternalRecords }

const employeeSQL = `
SELECT title, annual_salary
FROM employee_records
WHERE active`

type employeeRow struct {
	Title  string
	Salary float64
}

// Gather collects current salaries of employees whose title fuzzily matches
// the requested one.
func (g *InternalRecordsGatherer) Gather(ctx context.Context, job model.JobRequest) (*model.SourceContribution, error) {
	employees, err := resilience.DoVal(ctx, g.retry, "internal_records", func(ctx context.Context) ([]employeeRow, error) {
		rows, err := g.pool.Query(ctx, employeeSQL)
		if err != nil {
			return nil, eris.Wrap(err, "internal: query employees")
		}
		defer rows.Close()

		var out []employeeRow
		for rows.Next() {
			var e employeeRow
			if err := rows.Scan(&e.Title, &e.Salary); err != nil {
				return nil, eris.Wrap(err, "internal: scan employee")
			}
			out = append(out, e)
		}
		if err := rows.Err(); err != nil {
			return nil, eris.Wrap(err, "internal: iterate employees")
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	var points []float64
	for _, e := range employees {
		if e.Salary <= 0 {
			continue
		}
		if match.Similarity(e.Title, job.Title) >= g.matching.SimilarityThreshold {
			points = append(points, e.Salary)
		}
	}
	if len(points) == 0 {
		return nil, nil
	}

	recency := 0.0
	return &model.SourceContribution{
		SourceName:   model.SourceInternalRecords,
		SampleSize:   len(points),
		DataPoints:   points,
		RecencyDays:  &recency,
		MatchQuality: g.matching.InternalMatchQuality,
	}, nil
}

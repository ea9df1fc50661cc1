package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/talentops/pricing-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the
// single-node audit backend for local and CI use.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS pricing_results (
	id               TEXT PRIMARY KEY,
	job_title        TEXT NOT NULL,
	percentiles      TEXT NOT NULL,
	recommended_min  TEXT NOT NULL,
	recommended_max  TEXT NOT NULL,
	target_salary    TEXT NOT NULL,
	confidence_score INTEGER NOT NULL,
	contributions    TEXT NOT NULL,
	scenarios        TEXT NOT NULL,
	explanation      TEXT NOT NULL,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_pricing_results_job_title ON pricing_results(job_title);
CREATE INDEX IF NOT EXISTS idx_pricing_results_created_at ON pricing_results(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveResult(ctx context.Context, result *model.PricingResult) error {
	percentilesJSON, err := json.Marshal(result.Percentiles)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal percentiles")
	}
	contributionsJSON, err := json.Marshal(result.SourceContributions)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal contributions")
	}
	scenariosJSON, err := json.Marshal(result.AlternativeScenarios)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal scenarios")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pricing_results
		 (id, job_title, percentiles, recommended_min, recommended_max, target_salary, confidence_score, contributions, scenarios, explanation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.JobTitle, string(percentilesJSON),
		result.RecommendedMin.String(), result.RecommendedMax.String(), result.TargetSalary.String(),
		result.ConfidenceScore, string(contributionsJSON), string(scenariosJSON),
		result.Explanation, result.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert result %s", result.ID)
}

func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*model.PricingResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, job_title, percentiles, recommended_min, recommended_max, target_salary, confidence_score, contributions, scenarios, explanation, created_at
		 FROM pricing_results WHERE id = ?`,
		id,
	)
	r, err := scanSQLiteResult(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get result %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.PricingResult, error) {
	query := `SELECT id, job_title, percentiles, recommended_min, recommended_max, target_salary, confidence_score, contributions, scenarios, explanation, created_at
	          FROM pricing_results WHERE 1=1`
	args := []any{}

	if filter.JobTitle != "" {
		query += ` AND job_title = ?`
		args = append(args, filter.JobTitle)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer rows.Close()

	var results []model.PricingResult
	for rows.Next() {
		r, err := scanSQLiteResult(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		results = append(results, *r)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list results iterate")
}

// scanSQLiteResult decodes one pricing_results row. Money columns are stored
// as decimal strings.
func scanSQLiteResult(scan func(dest ...any) error) (*model.PricingResult, error) {
	var r model.PricingResult
	var percentilesJSON, contributionsJSON, scenariosJSON string
	var recMin, recMax, target string

	if err := scan(&r.ID, &r.JobTitle, &percentilesJSON,
		&recMin, &recMax, &target,
		&r.ConfidenceScore, &contributionsJSON, &scenariosJSON,
		&r.Explanation, &r.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(percentilesJSON), &r.Percentiles); err != nil {
		return nil, fmt.Errorf("unmarshal percentiles: %w", err)
	}
	if err := json.Unmarshal([]byte(contributionsJSON), &r.SourceContributions); err != nil {
		return nil, fmt.Errorf("unmarshal contributions: %w", err)
	}
	if err := json.Unmarshal([]byte(scenariosJSON), &r.AlternativeScenarios); err != nil {
		return nil, fmt.Errorf("unmarshal scenarios: %w", err)
	}

	var err error
	if r.RecommendedMin, err = parseDecimal(recMin); err != nil {
		return nil, err
	}
	if r.RecommendedMax, err = parseDecimal(recMax); err != nil {
		return nil, err
	}
	if r.TargetSalary, err = parseDecimal(target); err != nil {
		return nil, err
	}
	return &r, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}

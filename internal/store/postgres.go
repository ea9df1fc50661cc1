package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/talentops/pricing-engine/internal/db"
	"github.com/talentops/pricing-engine/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_result": `INSERT INTO pricing_results
		(id, job_title, percentiles, recommended_min, recommended_max, target_salary, confidence_score, contributions, scenarios, explanation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
	"get_result": `SELECT id, job_title, percentiles, recommended_min, recommended_max, target_salary, confidence_score, contributions, scenarios, explanation, created_at
		FROM pricing_results WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests and by callers
// that share one pool between the audit store and the source gatherers.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for use by subsystems that need
// direct query access (e.g., the source gatherers and importers).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

// postgresMigration creates the audit table plus the market-data read schema
// the gatherers and importers operate on.
const postgresMigration = `
CREATE TABLE IF NOT EXISTS pricing_results (
	id               TEXT PRIMARY KEY,
	job_title        TEXT NOT NULL,
	percentiles      JSONB NOT NULL,
	recommended_min  NUMERIC(12,2) NOT NULL,
	recommended_max  NUMERIC(12,2) NOT NULL,
	target_salary    NUMERIC(12,2) NOT NULL,
	confidence_score INTEGER NOT NULL,
	contributions    JSONB NOT NULL,
	scenarios        JSONB NOT NULL,
	explanation      TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_pricing_results_job_title ON pricing_results(job_title);
CREATE INDEX IF NOT EXISTS idx_pricing_results_created_at ON pricing_results(created_at DESC);

CREATE TABLE IF NOT EXISTS catalog_titles (
	catalog_code TEXT NOT NULL,
	job_family   TEXT NOT NULL,
	title        TEXT NOT NULL,
	PRIMARY KEY (catalog_code, title)
);

CREATE INDEX IF NOT EXISTS idx_catalog_titles_family ON catalog_titles(job_family);

CREATE TABLE IF NOT EXISTS survey_benchmarks (
	catalog_code TEXT NOT NULL,
	p10          DOUBLE PRECISION NOT NULL,
	p25          DOUBLE PRECISION NOT NULL,
	p50          DOUBLE PRECISION NOT NULL,
	p75          DOUBLE PRECISION NOT NULL,
	p90          DOUBLE PRECISION NOT NULL,
	captured_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (catalog_code, captured_at)
);

CREATE TABLE IF NOT EXISTS job_listings (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	salary_min DOUBLE PRECISION,
	salary_max DOUBLE PRECISION,
	posted_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_job_listings_posted_at ON job_listings(posted_at DESC);

CREATE TABLE IF NOT EXISTS job_listings_secondary (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	salary_min DOUBLE PRECISION,
	salary_max DOUBLE PRECISION,
	posted_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_job_listings_secondary_posted_at ON job_listings_secondary(posted_at DESC);

CREATE TABLE IF NOT EXISTS employee_records (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	annual_salary DOUBLE PRECISION NOT NULL,
	active        BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS applicant_records (
	id              TEXT PRIMARY KEY,
	desired_title   TEXT NOT NULL,
	expected_salary DOUBLE PRECISION NOT NULL,
	salary_period   TEXT NOT NULL DEFAULT 'annual',
	applied_at      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_applicant_records_applied_at ON applicant_records(applied_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, result *model.PricingResult) error {
	percentilesJSON, err := json.Marshal(result.Percentiles)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal percentiles")
	}
	contributionsJSON, err := json.Marshal(result.SourceContributions)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal contributions")
	}
	scenariosJSON, err := json.Marshal(result.AlternativeScenarios)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal scenarios")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO pricing_results
		 (id, job_title, percentiles, recommended_min, recommended_max, target_salary, confidence_score, contributions, scenarios, explanation, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		result.ID, result.JobTitle, percentilesJSON,
		result.RecommendedMin, result.RecommendedMax, result.TargetSalary,
		result.ConfidenceScore, contributionsJSON, scenariosJSON,
		result.Explanation, result.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert result %s", result.ID)
}

func (s *PostgresStore) GetResult(ctx context.Context, id string) (*model.PricingResult, error) {
	var r model.PricingResult
	var percentilesJSON, contributionsJSON, scenariosJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, job_title, percentiles, recommended_min, recommended_max, target_salary, confidence_score, contributions, scenarios, explanation, created_at
		 FROM pricing_results WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.JobTitle, &percentilesJSON,
		&r.RecommendedMin, &r.RecommendedMax, &r.TargetSalary,
		&r.ConfidenceScore, &contributionsJSON, &scenariosJSON,
		&r.Explanation, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get result %s", id)
	}

	if err := unmarshalResultJSON(&r, percentilesJSON, contributionsJSON, scenariosJSON); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.PricingResult, error) {
	query := `SELECT id, job_title, percentiles, recommended_min, recommended_max, target_salary, confidence_score, contributions, scenarios, explanation, created_at
	          FROM pricing_results WHERE true`
	args := []any{}
	argIdx := 1

	if filter.JobTitle != "" {
		query += fmt.Sprintf(` AND job_title = $%d`, argIdx)
		args = append(args, filter.JobTitle)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var results []model.PricingResult
	for rows.Next() {
		var r model.PricingResult
		var percentilesJSON, contributionsJSON, scenariosJSON []byte

		if err := rows.Scan(&r.ID, &r.JobTitle, &percentilesJSON,
			&r.RecommendedMin, &r.RecommendedMax, &r.TargetSalary,
			&r.ConfidenceScore, &contributionsJSON, &scenariosJSON,
			&r.Explanation, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		if err := unmarshalResultJSON(&r, percentilesJSON, contributionsJSON, scenariosJSON); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list results iterate")
}

func unmarshalResultJSON(r *model.PricingResult, percentiles, contributions, scenarios []byte) error {
	if err := json.Unmarshal(percentiles, &r.Percentiles); err != nil {
		return eris.Wrap(err, "postgres: unmarshal percentiles")
	}
	if err := json.Unmarshal(contributions, &r.SourceContributions); err != nil {
		return eris.Wrap(err, "postgres: unmarshal contributions")
	}
	if err := json.Unmarshal(scenarios, &r.AlternativeScenarios); err != nil {
		return eris.Wrap(err, "postgres: unmarshal scenarios")
	}
	return nil
}

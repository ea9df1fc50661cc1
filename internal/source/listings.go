package source

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/talentops/pricing-engine/internal/config"
	"github.com/talentops/pricing-engine/internal/db"
	"github.com/talentops/pricing-engine/internal/match"
	"github.com/talentops/pricing-engine/internal/model"
	"github.com/talentops/pricing-engine/internal/resilience"
)

// listing is one scraped job posting with a salary range. Either bound may
// be missing; a listing with neither is unusable and never fetched.
type listing struct {
	Title     string
	SalaryMin *float64
	SalaryMax *float64
	PostedAt  time.Time
}

// ListingsGatherer matches scraped job-board listings against the requested
// title through an ordered chain of strategies: catalog-family fuzzy match,
// direct fuzzy match, plain substring. The first strategy that produces
// matches wins and fixes the contribution's match quality.
type ListingsGatherer struct {
	pool       db.Pool
	name       model.SourceName
	table      string
	matching   config.MatchingConfig
	familyTier bool
	retry      resilience.RetryConfig
	now        func() time.Time
}

// NewListingsPrimary creates the primary job-board gatherer. It is the only
// source that can use catalog-family matching.
func NewListingsPrimary(pool db.Pool, cfg config.SourcesConfig, matching config.MatchingConfig) *ListingsGatherer {
	return &ListingsGatherer{
		pool:       pool,
		name:       model.SourceListingsPrimary,
		table:      "job_listings",
		matching:   matching,
		familyTier: true,
		retry:      resilience.DefaultRetryConfig(cfg.RetryAttempts),
		now:        time.Now,
	}
}

// NewListingsSecondary creates the secondary job-board gatherer. It matches
// by direct fuzzy similarity only.
func NewListingsSecondary(pool db.Pool, cfg config.SourcesConfig, matching config.MatchingConfig) *ListingsGatherer {
	return &ListingsGatherer{
		pool:     pool,
		name:     model.SourceListingsSecondary,
		table:    "job_listings_secondary",
		matching: matching,
		retry:    resilience.DefaultRetryConfig(cfg.RetryAttempts),
		now:      time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (g *ListingsGatherer) WithNow(now func() time.Time) *ListingsGatherer {
	g.now = now
	return g
}

// Name implements Gatherer.
func (g *ListingsGatherer) Name() model.SourceName { return g.name }

// Listings older than a year no longer describe the market; the fetch also
// caps candidates so fuzzy matching stays cheap.
const (
	listingMaxAgeDays    = 365
	listingMaxCandidates = 500
)

const listingsSQL = `
SELECT title, salary_min, salary_max, posted_at
FROM %s
WHERE posted_at >= $1
  AND (salary_min IS NOT NULL OR salary_max IS NOT NULL)
ORDER BY posted_at DESC
LIMIT $2`

// listingsQueryFor fills in the listings table; primary and secondary share
// the same shape.
func listingsQueryFor(table string) string {
	return fmt.Sprintf(listingsSQL, table)
}

const familyTitlesSQL = `
SELECT title
FROM catalog_titles
WHERE job_family = $1`

// Gather fetches recent salaried listings and runs the matching chain.
func (g *ListingsGatherer) Gather(ctx context.Context, job model.JobRequest) (*model.SourceContribution, error) {
	candidates, err := resilience.DoVal(ctx, g.retry, string(g.name), func(ctx context.Context) ([]listing, error) {
		return g.fetchListings(ctx)
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	matched, quality, err := g.runMatchChain(ctx, job, candidates)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, nil
	}

	points := make([]float64, 0, len(matched))
	var ageSum float64
	for _, l := range matched {
		mid, ok := midpoint(l.SalaryMin, l.SalaryMax)
		if !ok {
			continue
		}
		points = append(points, mid)
		age := g.now().Sub(l.PostedAt).Hours() / 24
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
		SourceName:   g.name,
		SampleSize:   len(points),
		DataPoints:   points,
		RecencyDays:  &recency,
		MatchQuality: quality,
	}, nil
}

// runMatchChain applies the tiered matching strategies in order and returns
// the first non-empty match set with its quality.
func (g *ListingsGatherer) runMatchChain(ctx context.Context, job model.JobRequest, candidates []listing) ([]listing, float64, error) {
	if g.familyTier && job.Catalog != nil && job.Catalog.Family != "" {
		familyTitles, err := resilience.DoVal(ctx, g.retry, string(g.name)+"_family", func(ctx context.Context) ([]string, error) {
			return g.fetchFamilyTitles(ctx, job.Catalog.Family)
		})
		if err != nil {
			return nil, 0, err
		}
		if matched := matchByFamily(candidates, familyTitles, g.matching.SimilarityThreshold); len(matched) > 0 {
			return matched, g.matching.FamilyMatchQuality, nil
		}
	}

	if matched := matchByFuzzy(candidates, job.Title, g.matching.SimilarityThreshold); len(matched) > 0 {
		return matched, g.matching.FuzzyMatchQuality, nil
	}

	if matched := matchBySubstring(candidates, job.Title); len(matched) > 0 {
		return matched, g.matching.SubstringMatchQuality, nil
	}

	return nil, 0, nil
}

func (g *ListingsGatherer) fetchListings(ctx context.Context) ([]listing, error) {
	cutoff := g.now().AddDate(0, 0, -listingMaxAgeDays)
	rows, err := g.pool.Query(ctx, listingsQueryFor(g.table), cutoff, listingMaxCandidates)
	if err != nil {
		return nil, eris.Wrapf(err, "listings: query %s", g.table)
	}
	defer rows.Close()

	var out []listing
	for rows.Next() {
		var l listing
		if err := rows.Scan(&l.Title, &l.SalaryMin, &l.SalaryMax, &l.PostedAt); err != nil {
			return nil, eris.Wrapf(err, "listings: scan %s", g.table)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "listings: iterate %s", g.table)
	}
	return out, nil
}

func (g *ListingsGatherer) fetchFamilyTitles(ctx context.Context, family string) ([]string, error) {
	rows, err := g.pool.Query(ctx, familyTitlesSQL, family)
	if err != nil {
		return nil, eris.Wrap(err, "listings: query family titles")
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "listings: scan family title")
		}
		titles = append(titles, t)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "listings: iterate family titles")
	}
	return titles, nil
}

func matchByFamily(candidates []listing, familyTitles []string, threshold float64) []listing {
	if len(familyTitles) == 0 {
		return nil
	}
	var matched []listing
	for _, l := range candidates {
		if _, score := match.BestSimilarity(l.Title, familyTitles); score >= threshold {
			matched = append(matched, l)
		}
	}
	return matched
}

func matchByFuzzy(candidates []listing, title string, threshold float64) []listing {
	var matched []listing
	for _, l := range candidates {
		if match.Similarity(l.Title, title) >= threshold {
			matched = append(matched, l)
		}
	}
	return matched
}

func matchBySubstring(candidates []listing, title string) []listing {
	var matched []listing
	for _, l := range candidates {
		if match.ContainsFold(l.Title, title) {
			matched = append(matched, l)
		}
	}
	return matched
}

// midpoint returns the midpoint of a listing's salary range, falling back
// to whichever bound is present.
func midpoint(min, max *float64) (float64, bool) {
	switch {
	case min != nil && max != nil:
		return (*min + *max) / 2, true
	case min != nil:
		return *min, true
	case max != nil:
		return *max, true
	default:
		return 0, false
	}
}

// Package store persists finished pricing results for audit. The engine
// treats persistence as a best-effort collaborator: a failed write is
// logged, never propagated.
package store

import (
	"context"

	"github.com/talentops/pricing-engine/internal/model"
)

// ResultFilter specifies criteria for listing stored results.
type ResultFilter struct {
	JobTitle string `json:"job_title,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Store defines the audit-trail persistence interface.
type Store interface {
	// SaveResult stores a finished result with its full contribution list.
	SaveResult(ctx context.Context, result *model.PricingResult) error
	// GetResult fetches a stored result by ID.
	GetResult(ctx context.Context, id string) (*model.PricingResult, error)
	// ListResults returns stored results matching the filter, newest first.
	ListResults(ctx context.Context, filter ResultFilter) ([]model.PricingResult, error)

	// Migrate creates the audit schema.
	Migrate(ctx context.Context) error
	Close() error
}

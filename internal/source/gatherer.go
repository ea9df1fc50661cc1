// Package source implements the five compensation data gatherers. Each
// gatherer queries one read-only repository and converts whatever it finds
// into a SourceContribution; absence of data is a nil contribution, not an
// error.
package source

import (
	"context"
	"sync"

	"github.com/talentops/pricing-engine/internal/model"
)

// Gatherer queries one data source for salary evidence about a job.
// Implementations return (nil, nil) when the source has no opinion.
type Gatherer interface {
	// Name returns the source identifier (matches the weight profile).
	Name() model.SourceName
	// Gather collects this source's evidence for the job.
	Gather(ctx context.Context, job model.JobRequest) (*model.SourceContribution, error)
}

// Registry manages the configured gatherers in fixed trust order.
type Registry struct {
	mu        sync.RWMutex
	order     []model.SourceName
	gatherers map[model.SourceName]Gatherer
}

// NewRegistry creates an empty gatherer registry.
func NewRegistry() *Registry {
	return &Registry{
		gatherers: make(map[model.SourceName]Gatherer),
	}
}

// Register adds a gatherer. Registration order is preserved and defines the
// deterministic iteration order.
func (r *Registry) Register(g Gatherer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.gatherers[g.Name()]; !exists {
		r.order = append(r.order, g.Name())
	}
	r.gatherers[g.Name()] = g
}

// Get returns a gatherer by name, or nil if not registered.
func (r *Registry) Get(name model.SourceName) Gatherer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gatherers[name]
}

// List returns all registered gatherers in registration order.
func (r *Registry) List() []Gatherer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Gatherer, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.gatherers[name])
	}
	return out
}

// Names returns the registered source names in registration order.
func (r *Registry) Names() []model.SourceName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.SourceName, len(r.order))
	copy(out, r.order)
	return out
}

// Package engine implements the multi-source weighted salary aggregation
// pipeline: gather, pool, summarize, score, explain.
package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/talentops/pricing-engine/internal/config"
	"github.com/talentops/pricing-engine/internal/model"
	"github.com/talentops/pricing-engine/internal/source"
	"github.com/talentops/pricing-engine/internal/store"
)

// Status tracks the orchestrator's progress through one pricing request.
type Status string

const (
	StatusGathering   Status = "gathering"
	StatusAggregating Status = "aggregating"
	StatusScoring     Status = "scoring"
	StatusFinalizing  Status = "finalizing"
	StatusDone        Status = "done"
	StatusFailed      Status = "failed"
)

// Orchestrator runs the pricing pipeline. It holds no per-request state;
// every result is a pure function of the request and the repository reads.
type Orchestrator struct {
	registry      *source.Registry
	profile       config.WeightProfile
	audit         store.Store // optional; nil disables audit writes
	gatherTimeout time.Duration
	now           func() time.Time
	newID         func() string
}

// NewOrchestrator wires the pipeline. The weight profile is injected here
// so different profiles can coexist; it must already be validated.
func NewOrchestrator(registry *source.Registry, profile config.WeightProfile, audit store.Store, cfg config.SourcesConfig) *Orchestrator {
	timeout := time.Duration(cfg.GatherTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Orchestrator{
		registry:      registry,
		profile:       profile,
		audit:         audit,
		gatherTimeout: timeout,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// WithNow sets a fixed clock for testing.
func (o *Orchestrator) WithNow(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// WithIDFunc sets a deterministic ID generator for testing.
func (o *Orchestrator) WithIDFunc(fn func() string) *Orchestrator {
	o.newID = fn
	return o
}

// Price executes one pricing request end to end. It fails with
// MalformedInputError before gathering, or NoMarketDataError when every
// source comes back empty; individual source failures only shrink the
// evidence set.
func (o *Orchestrator) Price(ctx context.Context, job model.JobRequest) (*model.PricingResult, error) {
	if strings.TrimSpace(job.Title) == "" {
		return nil, &MalformedInputError{Reason: "job title is required"}
	}

	log := zap.L().With(zap.String("job_title", job.Title))
	log.Info("engine: pricing started", zap.String("status", string(StatusGathering)))

	contributions := o.gather(ctx, job, log)
	if len(contributions) == 0 {
		log.Warn("engine: no market data",
			zap.String("status", string(StatusFailed)),
			zap.Int("sources_attempted", len(o.registry.Names())),
		)
		return nil, &NoMarketDataError{
			JobTitle:         job.Title,
			AttemptedSources: o.registry.Names(),
		}
	}

	log.Info("engine: aggregating", zap.String("status", string(StatusAggregating)), zap.Int("sources", len(contributions)))
	result, err := PriceContributions(job.Title, contributions)
	if err != nil {
		return nil, err
	}

	log.Info("engine: finalizing", zap.String("status", string(StatusFinalizing)))
	result.ID = o.newID()
	result.CreatedAt = o.now().UTC()

	// Audit write is fire-and-forget: the result stands even if the sink
	// is down.
	if o.audit != nil {
		if saveErr := o.audit.SaveResult(ctx, result); saveErr != nil {
			log.Warn("engine: audit persist failed", zap.String("result_id", result.ID), zap.Error(saveErr))
		}
	}

	log.Info("engine: pricing complete",
		zap.String("status", string(StatusDone)),
		zap.String("result_id", result.ID),
		zap.Int("confidence", result.ConfidenceScore),
		zap.String("target_salary", result.TargetSalary.String()),
	)

	return result, nil
}

// gather runs every registered gatherer in parallel under a per-source
// timeout. A gatherer error or timeout is logged and treated as absence;
// it never aborts the request. Results are collected positionally so the
// outcome is independent of completion order.
func (o *Orchestrator) gather(ctx context.Context, job model.JobRequest, log *zap.Logger) []model.SourceContribution {
	gatherers := o.registry.List()
	collected := make([]*model.SourceContribution, len(gatherers))

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)

	for i, gatherer := range gatherers {
		g.Go(func() error {
			srcCtx, cancel := context.WithTimeout(gCtx, o.gatherTimeout)
			defer cancel()

			contribution, err := gatherer.Gather(srcCtx, job)
			if err != nil {
				// Recovered locally: this source simply has no opinion.
				log.Warn("engine: source query failed",
					zap.String("source", string(gatherer.Name())),
					zap.Error(err),
				)
				return nil
			}
			if !contribution.Usable() {
				log.Debug("engine: source has no data", zap.String("source", string(gatherer.Name())))
				return nil
			}

			contribution.Weight = o.profile.Weight(gatherer.Name())
			mu.Lock()
			collected[i] = contribution
			mu.Unlock()

			log.Info("engine: source contributed",
				zap.String("source", string(gatherer.Name())),
				zap.Int("sample_size", contribution.SampleSize),
				zap.Float64("match_quality", contribution.MatchQuality),
			)
			return nil
		})
	}

	// Gatherer errors are swallowed above; Wait only observes ctx.
	_ = g.Wait()

	var contributions []model.SourceContribution
	for _, c := range collected {
		if c != nil {
			contributions = append(contributions, *c)
		}
	}
	return contributions
}

// PriceContributions computes the full pricing result from already-gathered
// contributions. It is deterministic: identical contributions produce an
// identical result regardless of input order. ID and timestamp are left for
// the caller.
func PriceContributions(jobTitle string, contributions []model.SourceContribution) (*model.PricingResult, error) {
	normalized := NormalizeContributions(contributions)
	if len(normalized) == 0 {
		return nil, &NoMarketDataError{JobTitle: jobTitle, AttemptedSources: model.AllSources()}
	}

	pooled := BuildPooledSample(normalized)
	dist, err := ComputePercentiles(pooled)
	if err != nil {
		return nil, err
	}

	confidence := ConfidenceScore(normalized)

	return &model.PricingResult{
		JobTitle: jobTitle,
		Percentiles: model.Percentiles{
			P10: dec(dist.P10),
			P25: dec(dist.P25),
			P50: dec(dist.P50),
			P75: dec(dist.P75),
			P90: dec(dist.P90),
		},
		RecommendedMin:       dec(dist.P25),
		RecommendedMax:       dec(dist.P75),
		TargetSalary:         dec(dist.P50),
		ConfidenceScore:      confidence,
		SourceContributions:  normalized,
		AlternativeScenarios: Scenarios(dist),
		Explanation:          Explanation(normalized, confidence),
	}, nil
}

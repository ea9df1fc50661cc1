package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/talentops/pricing-engine/internal/config"
	"github.com/talentops/pricing-engine/internal/db"
	"github.com/talentops/pricing-engine/internal/engine"
	"github.com/talentops/pricing-engine/internal/source"
	"github.com/talentops/pricing-engine/internal/store"
)

// pricingEnv holds the initialized stores, source registry, and orchestrator
// shared by the price/batch/serve commands.
type pricingEnv struct {
	Store      store.Store
	SourcePool db.Pool
	Registry   *source.Registry
	Profile    config.WeightProfile
	Engine     *engine.Orchestrator

	sourcePoolOwned *pgxpool.Pool
}

// Close releases resources held by the pricing environment.
func (pe *pricingEnv) Close() {
	if pe.sourcePoolOwned != nil {
		pe.sourcePoolOwned.Close()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "pricing.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initSourcePool connects to the market-data read model. When no dedicated
// sources URL is configured, the audit store's Postgres pool is shared.
func initSourcePool(ctx context.Context, st store.Store) (db.Pool, *pgxpool.Pool, error) {
	if cfg.Sources.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.Sources.DatabaseURL)
		if err != nil {
			return nil, nil, eris.Wrap(err, "connect sources database")
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, eris.Wrap(err, "ping sources database")
		}
		return pool, pool, nil
	}

	if ps, ok := st.(*store.PostgresStore); ok {
		zap.L().Info("sources using shared audit database pool")
		return ps.Pool(), nil, nil
	}

	return nil, nil, eris.New("sources database URL is required when the audit store is not postgres (PRICING_SOURCES_DATABASE_URL)")
}

// initEngine sets up the audit store, source pool, gatherer registry, weight
// profile, and the orchestrator. Callers should defer env.Close().
func initEngine(ctx context.Context) (*pricingEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	pool, owned, err := initSourcePool(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	profile, err := config.ResolveWeightProfile(cfg.Weights)
	if err != nil {
		if owned != nil {
			owned.Close()
		}
		_ = st.Close()
		return nil, eris.Wrap(err, "resolve weight profile")
	}

	registry := source.NewRegistry()
	registry.Register(source.NewBenchmark(pool, cfg.Sources))
	registry.Register(source.NewListingsPrimary(pool, cfg.Sources, cfg.Matching))
	registry.Register(source.NewListingsSecondary(pool, cfg.Sources, cfg.Matching))
	registry.Register(source.NewInternalRecords(pool, cfg.Sources, cfg.Matching))
	registry.Register(source.NewApplicant(pool, cfg.Sources, cfg.Matching))

	zap.L().Info("pricing engine initialized",
		zap.String("weight_profile", profile.Name),
		zap.Int("sources", len(registry.Names())),
	)

	return &pricingEnv{
		Store:           st,
		SourcePool:      pool,
		Registry:        registry,
		Profile:         profile,
		Engine:          engine.NewOrchestrator(registry, profile, st, cfg.Sources),
		sourcePoolOwned: owned,
	}, nil
}

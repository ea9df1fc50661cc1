package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talentops/pricing-engine/internal/db"
	"github.com/talentops/pricing-engine/internal/importer"
	"github.com/talentops/pricing-engine/internal/store"
)

var (
	importXLSXPath     string
	importListingsPath string
	importTarget       string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load market data snapshots into the read model",
}

var importSurveyCmd = &cobra.Command{
	Use:   "survey",
	Short: "Import a compensation survey workbook (XLSX)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		pool, closeFn, err := importPool(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		result, err := importer.ImportSurveyXLSX(ctx, pool, importXLSXPath)
		if err != nil {
			return eris.Wrap(err, "import survey")
		}

		zap.L().Info("survey import complete",
			zap.Int64("benchmarks", result.Benchmarks),
			zap.Int64("titles", result.Titles),
			zap.String("xlsx", importXLSXPath),
		)
		return nil
	},
}

var importListingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "Import a job listings export (CSV)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		table, ok := importer.ListingTables[importTarget]
		if !ok {
			return eris.Errorf("unknown listings target: %s (want primary or secondary)", importTarget)
		}

		pool, closeFn, err := importPool(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		n, err := importer.ImportListingsCSV(ctx, pool, table, importListingsPath)
		if err != nil {
			return eris.Wrap(err, "import listings")
		}

		zap.L().Info("listings import complete",
			zap.Int64("rows", n),
			zap.String("target", importTarget),
			zap.String("csv", importListingsPath),
		)
		return nil
	},
}

// importPool connects to the market-data database for bulk loading. Prefers
// the dedicated sources URL, falls back to the Postgres audit store.
func importPool(ctx context.Context) (db.Pool, func(), error) {
	if cfg.Sources.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.Sources.DatabaseURL)
		if err != nil {
			return nil, nil, eris.Wrap(err, "connect sources database")
		}
		return pool, pool.Close, nil
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	ps, ok := st.(*store.PostgresStore)
	if !ok {
		_ = st.Close()
		return nil, nil, eris.New("import requires a postgres database (set PRICING_SOURCES_DATABASE_URL)")
	}
	if err := ps.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, nil, eris.Wrap(err, "migrate store")
	}
	return ps.Pool(), func() { _ = st.Close() }, nil
}

func init() {
	importSurveyCmd.Flags().StringVar(&importXLSXPath, "xlsx", "", "path to survey workbook (required)")
	_ = importSurveyCmd.MarkFlagRequired("xlsx")

	importListingsCmd.Flags().StringVar(&importListingsPath, "csv", "", "path to listings CSV (required)")
	importListingsCmd.Flags().StringVar(&importTarget, "target", "primary", "listings table: primary or secondary")
	_ = importListingsCmd.MarkFlagRequired("csv")

	importCmd.AddCommand(importSurveyCmd)
	importCmd.AddCommand(importListingsCmd)
	rootCmd.AddCommand(importCmd)
}

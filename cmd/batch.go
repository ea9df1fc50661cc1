package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/talentops/pricing-engine/internal/engine"
	"github.com/talentops/pricing-engine/internal/model"
)

var (
	batchCSV   string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Price many job titles from a CSV file",
	Long:  "Reads a CSV with a title column (optional catalog_code, family columns) and prices each row with bounded concurrency.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		jobs, err := readBatchCSV(batchCSV)
		if err != nil {
			return err
		}

		return processBatch(ctx, jobs, batchLimit, cfg.Batch.MaxConcurrentJobs, env.Engine.Price)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchCSV, "csv", "", "CSV file with job titles (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of rows to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}

// readBatchCSV parses the batch input. The title column is required; rows
// with catalog_code get a catalog match with similarity 1.0 attached.
func readBatchCSV(path string) ([]model.JobRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "batch: read header")
	}
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[h] = i
	}
	titleIdx, ok := colIdx["title"]
	if !ok {
		return nil, eris.New("batch: CSV must have a title column")
	}

	var jobs []model.JobRequest
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if titleIdx >= len(record) || record[titleIdx] == "" {
			continue
		}

		job := model.JobRequest{Title: record[titleIdx]}
		if i, ok := colIdx["catalog_code"]; ok && i < len(record) && record[i] != "" {
			job.Catalog = &model.CatalogMatch{Code: record[i], Similarity: 1.0}
			if fi, ok := colIdx["family"]; ok && fi < len(record) {
				job.Catalog.Family = record[fi]
			}
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// priceFunc is the callback signature for pricing one job.
type priceFunc func(ctx context.Context, job model.JobRequest) (*model.PricingResult, error)

// processBatch applies limit, then prices jobs concurrently and prints a
// summary table. Individual failures never abort the batch.
func processBatch(ctx context.Context, jobs []model.JobRequest, limit, concurrency int, price priceFunc) error {
	if len(jobs) == 0 {
		zap.L().Info("no jobs to price")
		return nil
	}

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	if concurrency <= 0 {
		concurrency = 5
	}

	zap.L().Info("processing batch",
		zap.Int("jobs", len(jobs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	var mu sync.Mutex
	results := make([]*model.PricingResult, len(jobs))

	for i, job := range jobs {
		g.Go(func() error {
			log := zap.L().With(zap.String("job_title", job.Title))

			result, err := price(gctx, job)
			if err != nil {
				failed.Add(1)
				var noData *engine.NoMarketDataError
				if errors.As(err, &noData) {
					log.Warn("no market data", zap.Int("sources_attempted", len(noData.AttemptedSources)))
				} else {
					log.Error("pricing failed", zap.Error(err))
				}
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	printBatchSummary(results)

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}

func printBatchSummary(results []*model.PricingResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tTARGET\tRANGE\tCONFIDENCE\tSOURCES\tSAMPLES")
	for _, r := range results {
		if r == nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s-%s\t%d%%\t%d\t%d\n",
			r.JobTitle,
			r.TargetSalary.String(),
			r.RecommendedMin.String(), r.RecommendedMax.String(),
			r.ConfidenceScore,
			len(r.SourceContributions),
			r.TotalSampleSize(),
		)
	}
	_ = w.Flush()
}

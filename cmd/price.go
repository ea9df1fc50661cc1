package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talentops/pricing-engine/internal/model"
)

var (
	priceDescription string
	priceCatalogCode string
	priceFamily      string
	priceSimilarity  float64
)

var priceCmd = &cobra.Command{
	Use:   "price <job title>",
	Short: "Price a single job title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		job := model.JobRequest{
			Title:       args[0],
			Description: priceDescription,
		}
		if priceCatalogCode != "" {
			job.Catalog = &model.CatalogMatch{
				Code:       priceCatalogCode,
				Family:     priceFamily,
				Similarity: priceSimilarity,
			}
		}

		result, err := env.Engine.Price(ctx, job)
		if err != nil {
			return eris.Wrap(err, "price job")
		}

		zap.L().Info("pricing complete",
			zap.String("job_title", result.JobTitle),
			zap.String("target_salary", result.TargetSalary.String()),
			zap.Int("confidence", result.ConfidenceScore),
			zap.Int("sample_size", result.TotalSampleSize()),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	priceCmd.Flags().StringVar(&priceDescription, "description", "", "job description")
	priceCmd.Flags().StringVar(&priceCatalogCode, "catalog-code", "", "matched catalog code")
	priceCmd.Flags().StringVar(&priceFamily, "family", "", "matched job family")
	priceCmd.Flags().Float64Var(&priceSimilarity, "similarity", 1.0, "catalog match similarity (0-1)")
	rootCmd.AddCommand(priceCmd)
}

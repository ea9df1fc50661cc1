package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/talentops/pricing-engine/internal/config"
	"github.com/talentops/pricing-engine/internal/model"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Show the active data sources and their trust weights",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := config.ResolveWeightProfile(cfg.Weights)
		if err != nil {
			return eris.Wrap(err, "resolve weight profile")
		}

		fmt.Printf("weight profile: %s\n\n", profile.Name)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tWEIGHT")
		for _, src := range model.AllSources() {
			fmt.Fprintf(w, "%s\t%.2f\n", src, profile.Weight(src))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

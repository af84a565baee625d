package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

var (
	planIndustry string
	planLocation string
	planMax      int
	planJSON     bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan the next diversified search queries",
	Long: `Rotates through industries, keywords and locations to produce search
queries that have not been used recently, plus the least exhausted sources
to run them against. Planned queries are recorded in rotation history.`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planIndustry, "industry", "", "restrict to one industry")
	planCmd.Flags().StringVar(&planLocation, "location", "", "restrict to locations matching this text")
	planCmd.Flags().IntVarP(&planMax, "max", "n", 0, "maximum number of queries (0 = configured default)")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "output the plan as JSON")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	if err := requireDiscovery(); err != nil {
		return err
	}

	plan, err := discoveryService.PlanQueries(cmd.Context(), domain.PlanRequest{
		Industry:   planIndustry,
		Location:   planLocation,
		MaxQueries: planMax,
	})
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	if planJSON {
		return printJSON(cmd, plan)
	}

	w := cmd.OutOrStdout()
	if len(plan.Queries) == 0 {
		fmt.Fprintln(w, "No fresh queries: every candidate was used recently.")
	} else {
		fmt.Fprintln(w, "Queries:")
		for _, q := range plan.Queries {
			fmt.Fprintf(w, "  %s\n", q)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Industries: %s\n", strings.Join(plan.Industries, ", "))
	fmt.Fprintf(w, "Locations:  %s\n", strings.Join(plan.Locations, ", "))
	fmt.Fprintf(w, "Sources:    %s\n", strings.Join(plan.RecommendedSources, ", "))
	return nil
}

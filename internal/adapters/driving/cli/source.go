package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

var (
	sourceFound      int
	sourceDuplicates int
	sourceAdmitted   int
	sourceQuery      string
	sourceWindow     time.Duration
	sourceJSON       bool
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Track source exhaustion and query freshness",
}

var sourceReportCmd = &cobra.Command{
	Use:   "report [source]",
	Short: "Report a scraping run's totals for a source",
	Long: `Folds the run's duplicate rate into the source's exhaustion level.
A run that found nothing counts as fully duplicated.`,
	Args: cobra.ExactArgs(1),
	RunE: runSourceReport,
}

var sourceStatusCmd = &cobra.Command{
	Use:   "status [source]",
	Short: "Show whether a source should be used",
	Long: `Reports whether the source is below the exhaustion threshold. With
--query, also reports whether that query is due against the source.`,
	Args: cobra.ExactArgs(1),
	RunE: runSourceStatus,
}

var sourceCheckedCmd = &cobra.Command{
	Use:   "checked [source] [query]",
	Short: "Record that a query was run against a source",
	Args:  cobra.ExactArgs(2),
	RunE:  runSourceChecked,
}

func init() {
	sourceReportCmd.Flags().IntVar(&sourceFound, "found", 0, "total results returned")
	sourceReportCmd.Flags().IntVar(&sourceDuplicates, "duplicates", 0, "results that were duplicates")
	sourceReportCmd.Flags().IntVar(&sourceAdmitted, "admitted", 0, "results admitted as new leads")
	sourceReportCmd.Flags().BoolVar(&sourceJSON, "json", false, "output as JSON")

	sourceStatusCmd.Flags().StringVar(&sourceQuery, "query", "", "also check whether this query is due")
	sourceStatusCmd.Flags().DurationVar(&sourceWindow, "window", 0, "freshness window (0 = configured default)")

	sourceCmd.AddCommand(sourceReportCmd)
	sourceCmd.AddCommand(sourceStatusCmd)
	sourceCmd.AddCommand(sourceCheckedCmd)
	rootCmd.AddCommand(sourceCmd)
}

func runSourceReport(cmd *cobra.Command, args []string) error {
	if err := requireDiscovery(); err != nil {
		return err
	}
	ctx := cmd.Context()

	health, err := discoveryService.MarkSourceResults(ctx, domain.SourceReport{
		Source:     args[0],
		TotalFound: sourceFound,
		Duplicates: sourceDuplicates,
		Admitted:   sourceAdmitted,
	})
	if err != nil {
		return fmt.Errorf("recording source results: %w", err)
	}
	use, err := discoveryService.ShouldUseSource(ctx, args[0])
	if err != nil {
		return fmt.Errorf("checking source: %w", err)
	}

	if sourceJSON {
		return printJSON(cmd, struct {
			domain.SourceHealth
			ShouldUse bool `json:"should_use"`
		}{health, use})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: exhaustion %.1f%% after %d runs\n", health.Source, health.Exhaustion, health.Runs)
	if !use {
		fmt.Fprintln(w, "Source is exhausted and will be skipped.")
	}
	return nil
}

func runSourceStatus(cmd *cobra.Command, args []string) error {
	if err := requireDiscovery(); err != nil {
		return err
	}
	source := args[0]

	use, err := discoveryService.ShouldUseSource(cmd.Context(), source)
	if err != nil {
		return fmt.Errorf("checking source: %w", err)
	}

	w := cmd.OutOrStdout()
	if use {
		fmt.Fprintf(w, "%s: usable\n", source)
	} else {
		fmt.Fprintf(w, "%s: exhausted\n", source)
	}

	if sourceQuery != "" {
		if discoveryService.ShouldCheckSource(source, sourceQuery, sourceWindow) {
			fmt.Fprintf(w, "Query %q is due.\n", sourceQuery)
		} else {
			fmt.Fprintf(w, "Query %q was checked recently.\n", sourceQuery)
		}
	}
	return nil
}

func runSourceChecked(cmd *cobra.Command, args []string) error {
	if err := requireDiscovery(); err != nil {
		return err
	}
	if err := discoveryService.MarkSourceChecked(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("recording source check: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %q against %s.\n", args[1], args[0])
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var housekeepCmd = &cobra.Command{
	Use:   "housekeep",
	Short: "Prune old daily counters and purge expired cache entries",
	Long: `Runs the same maintenance the scheduler performs in long-lived
commands: daily admission counters older than the retention period are
dropped and expired cache entries are purged.`,
	Args: cobra.NoArgs,
	RunE: runHousekeep,
}

func init() {
	rootCmd.AddCommand(housekeepCmd)
}

func runHousekeep(cmd *cobra.Command, _ []string) error {
	if err := requireDiscovery(); err != nil {
		return err
	}

	report, err := discoveryService.Housekeep(cmd.Context())
	if err != nil {
		return fmt.Errorf("housekeeping failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d daily counters, purged %d cache entries.\n",
		report.DailyEntriesPruned, report.CacheEntriesPurged)
	return nil
}

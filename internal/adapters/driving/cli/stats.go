package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

const defaultTermWidth = 80

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show quota, cache, ledger and rotation statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

type statsReport struct {
	domain.DiscoveryStats
	Rotation domain.RotationStats `json:"rotation"`
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := requireDiscovery(); err != nil {
		return err
	}
	ctx := cmd.Context()

	stats, err := discoveryService.Stats(ctx)
	if err != nil {
		return fmt.Errorf("loading stats: %w", err)
	}
	rotation, err := discoveryService.RotationStats(ctx)
	if err != nil {
		return fmt.Errorf("loading rotation stats: %w", err)
	}

	if statsJSON {
		return printJSON(cmd, statsReport{DiscoveryStats: stats, Rotation: rotation})
	}

	printStats(cmd.OutOrStdout(), stats, rotation, terminalWidth(cmd.OutOrStdout()))
	return nil
}

// terminalWidth returns the width of w when it is a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultTermWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultTermWidth
	}
	return width
}

func printStats(w io.Writer, stats domain.DiscoveryStats, rotation domain.RotationStats, width int) {
	heading := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0EA5E9"))
	warn := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	rule := strings.Repeat("-", min(width, 60))

	fmt.Fprintln(w, heading.Render("Today"))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Admitted:       %d / %d\n", stats.Today.Admitted, stats.Today.DailyLimit)
	fmt.Fprintf(w, "  Reserved:       %d\n", stats.Today.Reserved)
	fmt.Fprintf(w, "  Remaining:      %d\n", stats.Today.Remaining)
	fmt.Fprintf(w, "  External calls: %d\n", stats.Today.ExternalCalls)
	if stats.LimitReached() {
		fmt.Fprintln(w, warn.Render("  Daily limit reached."))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, heading.Render("Cache"))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Entries:        %d active, %d expired\n", stats.Cache.ActiveEntries, stats.Cache.ExpiredEntries)
	fmt.Fprintf(w, "  Hits / misses:  %d / %d\n", stats.Cache.Hits, stats.Cache.Misses)
	fmt.Fprintln(w)

	fmt.Fprintln(w, heading.Render("Ledger"))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Companies seen:     %d\n", stats.State.CompaniesSeen)
	fmt.Fprintf(w, "  Companies filtered: %d\n", stats.State.CompaniesFiltered)
	fmt.Fprintf(w, "  Sources checked:    %d\n", stats.State.SourcesTracked)
	fmt.Fprintln(w)

	fmt.Fprintln(w, heading.Render("Rotation"))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Queries in history: %d\n", rotation.TotalQueries)
	for _, q := range rotation.RecentQueries {
		fmt.Fprintf(w, "    %s\n", truncate(q, width-4))
	}

	names := make([]string, 0, len(rotation.Sources))
	for name := range rotation.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		fmt.Fprintln(w, "  Source exhaustion:")
		for _, name := range names {
			fmt.Fprintf(w, "    %-24s %5.1f%%\n", name, rotation.Sources[name].Exhaustion)
		}
	}
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

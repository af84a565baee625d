package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/leadscout/internal/adapters/driving/tui"
	"github.com/custodia-labs/leadscout/internal/core/domain"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	Long: `Launch the interactive terminal dashboard for leadscout.

The dashboard shows today's quota, cache and ledger counters, lets you
plan the next queries and lists source exhaustion. It refreshes itself
every few seconds.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Select
  p        - Plan queries (query plan view)
  r        - Refresh
  Esc      - Back
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if err := requireDiscovery(); err != nil {
		return err
	}

	threshold := domain.DefaultExhaustionThreshold
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			threshold = settings.Rotation.ExhaustionThreshold
		}
	}

	app, err := tui.NewApp(&tui.Ports{Discovery: discoveryService}, threshold)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	// TUI is long-running, so housekeeping runs alongside it.
	bgCtx, cancel := context.WithCancel(cmd.Context())
	g, gctx := errgroup.WithContext(bgCtx)
	startBackground(gctx, g)
	defer func() {
		cancel()
		_ = g.Wait()
	}()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

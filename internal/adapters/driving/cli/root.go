// Package cli provides the leadscout command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/leadscout/internal/core/ports/driving"
	"github.com/custodia-labs/leadscout/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// skipWiring marks commands that run without the engine.
const skipWiring = "skip-wiring"

// Options are the global flag values handed to the wiring function.
type Options struct {
	DataDir   string
	ConfigDir string
	Ephemeral bool
	Verbose   bool
}

// Runner is a long-lived background loop such as the database watcher.
type Runner interface {
	Run(ctx context.Context) error
}

// Services are the wired ports the commands drive.
type Services struct {
	Discovery driving.DiscoveryService
	Settings  driving.SettingsService
	Scheduler driving.Scheduler
	Watcher   Runner

	// Close releases storage. It may be nil.
	Close func() error
}

// WireFunc builds Services once global flags are parsed.
type WireFunc func(ctx context.Context, opts Options) (*Services, error)

var (
	discoveryService driving.DiscoveryService
	settingsService  driving.SettingsService
	schedulerService driving.Scheduler
	storeWatcher     Runner
	closeServices    func() error

	wire    WireFunc
	globals Options
)

var rootCmd = &cobra.Command{
	Use:   "leadscout",
	Short: "Lead discovery prioritisation engine",
	Long: `leadscout decides which discovered businesses are worth keeping.

It deduplicates candidate batches against stored records and a persistent
ledger, scores them against a weighted fit profile, enforces a daily
admission quota and plans the next diversified search queries.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&globals.Verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&globals.DataDir, "data-dir", "", "database directory (default ~/.leadscout/data)")
	flags.StringVar(&globals.ConfigDir, "config-dir", "", "configuration directory (default ~/.leadscout)")
	flags.BoolVar(&globals.Ephemeral, "ephemeral", false, "keep all state in memory for this run")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices installs already-wired services. Commands then skip wiring.
func SetServices(s *Services) {
	if s == nil {
		discoveryService, settingsService, schedulerService, storeWatcher, closeServices = nil, nil, nil, nil, nil
		return
	}
	discoveryService = s.Discovery
	settingsService = s.Settings
	schedulerService = s.Scheduler
	storeWatcher = s.Watcher
	closeServices = s.Close
}

// Execute runs the root command. wire is called lazily by commands that
// need the engine.
func Execute(ctx context.Context, fn WireFunc) error {
	wire = fn
	defer func() {
		if closeServices != nil {
			if err := closeServices(); err != nil {
				logger.Warn("closing storage: %v", err)
			}
			closeServices = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(globals.Verbose)

	if cmd.Annotations[skipWiring] == "true" || discoveryService != nil {
		return nil
	}
	if wire == nil {
		return errors.New("discovery service not configured")
	}

	s, err := wire(cmd.Context(), globals)
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	SetServices(s)
	return nil
}

func requireDiscovery() error {
	if discoveryService == nil {
		return errors.New("discovery service not configured")
	}
	return nil
}

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage engine configuration",
	Long: `View and change the admission quota, rotation and cache settings.

Settings live in config.toml under the config directory. The
DAILY_LEAD_LIMIT environment variable overrides the stored quota.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive configuration",
	Long:  `Step through the main settings. Press enter to keep the current value.`,
	RunE:  runConfigWizard,
}

var configSetLimitCmd = &cobra.Command{
	Use:   "set-limit [n]",
	Short: "Set the daily admission quota",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetLimit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configWizardCmd)
	configCmd.AddCommand(configSetLimitCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func requireSettings() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Current Configuration")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Discovery]")
	fmt.Fprintf(w, "  Daily limit: %d\n", settings.Discovery.DailyLimit)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Rotation]")
	fmt.Fprintf(w, "  Max queries: %d\n", settings.Rotation.MaxQueries)
	fmt.Fprintf(w, "  Repeat window: %s\n", settings.Rotation.RepeatWindow)
	fmt.Fprintf(w, "  History size: %d\n", settings.Rotation.HistorySize)
	fmt.Fprintf(w, "  Exhaustion threshold: %.0f%%\n", settings.Rotation.ExhaustionThreshold)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Ledger]")
	fmt.Fprintf(w, "  Retention: %d days\n", settings.Ledger.RetentionDays)
	fmt.Fprintf(w, "  Source check window: %s\n", settings.Ledger.SourceCheckWindow)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Cache]")
	fmt.Fprintf(w, "  TTL: %s\n", settings.Cache.TTL)
	fmt.Fprintf(w, "  Rate: %.1f/s (burst %d)\n", settings.Cache.RequestsPerSecond, settings.Cache.Burst)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Other]")
	endpoint := settings.Telemetry.OTLPEndpoint
	if endpoint == "" {
		endpoint = "(disabled)"
	}
	fmt.Fprintf(w, "  OTLP endpoint: %s\n", endpoint)
	profile := settings.ProfilePath
	if profile == "" {
		profile = "(default)"
	}
	fmt.Fprintf(w, "  Fit profile: %s\n", profile)
	fmt.Fprintf(w, "  Scheduler: %s\n", onOff(settings.SchedulerEnabled))
	fmt.Fprintln(w)

	if err := settingsService.Validate(); err != nil {
		fmt.Fprintf(w, "Warning: %v\n", err)
		fmt.Fprintln(w, "Run 'leadscout config wizard' to fix configuration issues.")
	} else {
		fmt.Fprintln(w, "Configuration is valid.")
	}
	return nil
}

func runConfigWizard(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	w := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	fmt.Fprintln(w, "leadscout Configuration Wizard")
	fmt.Fprintln(w, "==============================")
	fmt.Fprintln(w)

	settings.Discovery.DailyLimit = promptInt(w, reader, "Daily admission limit", settings.Discovery.DailyLimit)
	settings.Rotation.MaxQueries = promptInt(w, reader, "Queries per plan", settings.Rotation.MaxQueries)
	settings.Rotation.ExhaustionThreshold = promptFloat(w, reader,
		"Exhaustion threshold (0-100)", settings.Rotation.ExhaustionThreshold)
	settings.Ledger.RetentionDays = promptInt(w, reader, "Daily counter retention (days)", settings.Ledger.RetentionDays)

	fmt.Fprintf(w, "OTLP endpoint [%s]: ", settings.Telemetry.OTLPEndpoint)
	if endpoint := readLine(reader); endpoint != "" {
		settings.Telemetry.OTLPEndpoint = endpoint
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration saved.")
	return nil
}

func runConfigSetLimit(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	limit, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: limit must be a number", domain.ErrInvalidInput)
	}
	if err := settingsService.SetDailyLimit(limit); err != nil {
		return fmt.Errorf("failed to set limit: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Daily limit set to %d.\n", limit)
	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	if err := settingsService.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func promptInt(w io.Writer, reader *bufio.Reader, label string, current int) int {
	fmt.Fprintf(w, "%s [%d]: ", label, current)
	val, err := strconv.Atoi(readLine(reader))
	if err != nil || val < 0 {
		return current
	}
	return val
}

func promptFloat(w io.Writer, reader *bufio.Reader, label string, current float64) float64 {
	fmt.Fprintf(w, "%s [%.0f]: ", label, current)
	val, err := strconv.ParseFloat(readLine(reader), 64)
	if err != nil || val < 0 {
		return current
	}
	return val
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

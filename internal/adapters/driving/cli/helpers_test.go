package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/leadscout/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/leadscout/internal/core/domain"
	"github.com/custodia-labs/leadscout/internal/core/services"
)

// setupTestServices wires an engine over in-memory stores and resets
// command state when the test ends.
func setupTestServices(t *testing.T, dailyLimit int) (*services.Engine, *services.SettingsService) {
	t.Helper()
	t.Setenv(services.EnvDailyLimit, "")
	ctx := context.Background()

	settingsSvc := services.NewSettingsService(memory.NewConfigStore())
	require.NoError(t, settingsSvc.SetDailyLimit(dailyLimit))
	settings, err := settingsSvc.Get()
	require.NoError(t, err)

	ledger := services.NewLedger(ctx, memory.NewLedgerStore())
	planner := services.NewPlanner(ctx, memory.NewRotationStore(), settings.Rotation)
	cache := services.NewResponseCache(settings.Cache, services.WithCallRecorder(ledger.RecordCall))
	engine := services.NewEngine(ledger, planner, services.NewFitScorer(domain.DefaultFitProfile()), cache, *settings)

	SetServices(&Services{Discovery: engine, Settings: settingsSvc})
	t.Cleanup(func() {
		SetServices(nil)
		resetFlags()
	})
	return engine, settingsSvc
}

// resetFlags restores flag variables, which cobra keeps between runs.
func resetFlags() {
	prioritizeInput, prioritizeExisting, prioritizeMax = "-", "", 0
	prioritizeDryRun, prioritizeJSON = false, false
	planIndustry, planLocation, planMax, planJSON = "", "", 0, false
	sourceFound, sourceDuplicates, sourceAdmitted = 0, 0, 0
	sourceQuery, sourceWindow, sourceJSON = "", 0, false
	statsJSON = false
	explainInput, explainJSON = "", false
	explainCandidate = domain.Candidate{}
}

// runCommand executes the root command with args and returns its output.
func runCommand(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(io.Discard)
	if stdin != nil {
		rootCmd.SetIn(stdin)
	}
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

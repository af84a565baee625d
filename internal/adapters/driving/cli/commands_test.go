package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

const testBatch = `[
  {"company_name": "Aloha Tours", "industry": "Tourism", "location": "Honolulu",
   "employee_count": 80, "website": "https://alohatours.example.com"},
  {"company_name": "Mahalo Resort", "industry": "Hospitality", "location": "Maui",
   "employee_count": 120, "website": "https://mahalo.example.com"},
  {"company_name": "Plain Co"},
  {"website": "https://nameless.example.com"}
]`

func TestRootCmd_WithoutServices(t *testing.T) {
	SetServices(nil)
	wire = nil
	defer resetFlags()

	_, err := runCommand(t, nil, "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestPrioritizeCmd_CommitsByDefault(t *testing.T) {
	engine, _ := setupTestServices(t, 10)

	out, err := runCommand(t, strings.NewReader(testBatch), "prioritize", "--json")
	require.NoError(t, err)

	var report struct {
		Status    string                   `json:"status"`
		Committed bool                     `json:"committed"`
		Admitted  []domain.ScoredCandidate `json:"admitted"`
		Filtered  int                      `json:"filtered"`
		Malformed int                      `json:"malformed"`
		Today     domain.TodayStats        `json:"today"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, "ok", report.Status)
	assert.True(t, report.Committed)
	assert.Len(t, report.Admitted, 2)
	assert.Equal(t, 1, report.Filtered)
	assert.Equal(t, 1, report.Malformed)
	assert.Equal(t, 2, report.Today.Admitted)
	assert.Equal(t, 0, report.Today.Reserved)

	today, err := engine.Today(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 8, today.Remaining)
}

func TestPrioritizeCmd_DryRunReleases(t *testing.T) {
	engine, _ := setupTestServices(t, 10)

	out, err := runCommand(t, strings.NewReader(testBatch), "prioritize", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run")
	assert.Contains(t, out, "Aloha Tours")

	today, err := engine.Today(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, today.Admitted)
	assert.Equal(t, 0, today.Reserved)
	assert.Equal(t, 10, today.Remaining)
}

func TestPrioritizeCmd_LedgerDuplicatesOnRerun(t *testing.T) {
	setupTestServices(t, 10)

	_, err := runCommand(t, strings.NewReader(testBatch), "prioritize")
	require.NoError(t, err)

	out, err := runCommand(t, strings.NewReader(testBatch), "prioritize")
	require.NoError(t, err)
	assert.Contains(t, out, "no qualifying candidates")
	assert.Contains(t, out, "duplicates 3")
}

func TestPrioritizeCmd_ObjectInputWithExisting(t *testing.T) {
	setupTestServices(t, 10)

	input := `{"candidates": [
	  {"company_name": "Aloha Tours LLC", "industry": "Tourism", "location": "Honolulu", "employee_count": 80},
	  {"company_name": "Kona Dental", "industry": "Healthcare", "location": "Kailua-Kona",
	   "employee_count": 40, "website": "https://konadental.example.com"}
	], "existing": [{"company_name": "aloha tours"}]}`

	out, err := runCommand(t, strings.NewReader(input), "prioritize", "--json")
	require.NoError(t, err)

	var report struct {
		Admitted   []domain.ScoredCandidate `json:"admitted"`
		Duplicates int                      `json:"duplicates"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Duplicates)
	require.Len(t, report.Admitted, 1)
	assert.Equal(t, "Kona Dental", report.Admitted[0].CompanyName)
}

func TestPrioritizeCmd_DailyLimitReached(t *testing.T) {
	setupTestServices(t, 0)

	out, err := runCommand(t, strings.NewReader(testBatch), "prioritize")
	require.NoError(t, err)
	assert.Contains(t, out, "daily limit reached")
}

func TestPrioritizeCmd_RejectsBadInput(t *testing.T) {
	setupTestServices(t, 10)

	_, err := runCommand(t, strings.NewReader("not json"), "prioritize")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = runCommand(t, strings.NewReader("   "), "prioritize")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDecodeBatch(t *testing.T) {
	batch, err := decodeBatch([]byte(`[{"company_name":"A"}]`))
	require.NoError(t, err)
	assert.Len(t, batch.Candidates, 1)
	assert.Empty(t, batch.Existing)

	batch, err = decodeBatch([]byte(`{"candidates":[{"company_name":"A"}],"existing":[{"company_name":"B"}]}`))
	require.NoError(t, err)
	assert.Len(t, batch.Candidates, 1)
	assert.Len(t, batch.Existing, 1)
}

func TestPlanCmd(t *testing.T) {
	setupTestServices(t, 10)

	out, err := runCommand(t, nil, "plan", "--industry", "tourism", "--max", "2", "--json")
	require.NoError(t, err)

	var plan domain.QueryPlan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Len(t, plan.Queries, 2)
	assert.Equal(t, []string{"tourism"}, plan.Industries)
	assert.NotEmpty(t, plan.RecommendedSources)

	out, err = runCommand(t, nil, "plan", "--max", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Queries:")
	assert.Contains(t, out, "Sources:")
}

func TestSourceCmds(t *testing.T) {
	setupTestServices(t, 10)

	out, err := runCommand(t, nil, "source", "report", "yelp", "--found", "10", "--duplicates", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "yelp: exhaustion 30.0% after 1 runs")

	out, err = runCommand(t, nil, "source", "status", "yelp", "--query", "Honolulu hotel")
	require.NoError(t, err)
	assert.Contains(t, out, "yelp: usable")
	assert.Contains(t, out, `Query "Honolulu hotel" is due.`)

	_, err = runCommand(t, nil, "source", "checked", "yelp", "Honolulu hotel")
	require.NoError(t, err)

	out, err = runCommand(t, nil, "source", "status", "yelp", "--query", "Honolulu hotel")
	require.NoError(t, err)
	assert.Contains(t, out, "was checked recently")
}

func TestSourceReportCmd_InvalidReport(t *testing.T) {
	setupTestServices(t, 10)

	_, err := runCommand(t, nil, "source", "report", "yelp", "--found", "2", "--duplicates", "5")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStatsCmd(t *testing.T) {
	setupTestServices(t, 10)

	_, err := runCommand(t, strings.NewReader(testBatch), "prioritize")
	require.NoError(t, err)

	out, err := runCommand(t, nil, "stats", "--json")
	require.NoError(t, err)

	var report statsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Today.Admitted)
	assert.Equal(t, 10, report.Today.DailyLimit)
	assert.Equal(t, 2, report.State.CompaniesSeen)
	assert.Equal(t, 1, report.State.CompaniesFiltered)

	out, err = runCommand(t, nil, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Admitted:       2 / 10")
	assert.Contains(t, out, "Companies filtered: 1")
}

func TestHousekeepCmd(t *testing.T) {
	setupTestServices(t, 10)

	out, err := runCommand(t, nil, "housekeep")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 0 daily counters, purged 0 cache entries.")
}

func TestExplainCmd(t *testing.T) {
	setupTestServices(t, 10)

	out, err := runCommand(t, nil, "explain", "--name", "Aloha Tours", "--industry", "Tourism",
		"--location", "Honolulu", "--json")
	require.NoError(t, err)

	var b domain.ScoreBreakdown
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Greater(t, b.Industry, 0.0)
	assert.Greater(t, b.Location, 0.0)
	assert.InDelta(t, b.Base+b.Industry+b.Location+b.Size+b.PainPoints+b.Tech+b.Website+b.Contact, b.Total, 0.001)
}

func TestExplainCmd_FromStdin(t *testing.T) {
	setupTestServices(t, 10)

	out, err := runCommand(t, strings.NewReader(`{"company_name":"Kona Dental"}`), "explain", "-i", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Kona Dental")
	assert.Contains(t, out, "Total")
}

func TestExplainCmd_RequiresName(t *testing.T) {
	setupTestServices(t, 10)

	_, err := runCommand(t, nil, "explain")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigCmds(t *testing.T) {
	_, settingsSvc := setupTestServices(t, 10)

	out, err := runCommand(t, nil, "config", "set-limit", "25")
	require.NoError(t, err)
	assert.Contains(t, out, "Daily limit set to 25.")

	settings, err := settingsSvc.Get()
	require.NoError(t, err)
	assert.Equal(t, 25, settings.Discovery.DailyLimit)

	out, err = runCommand(t, nil, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Daily limit: 25")
	assert.Contains(t, out, "Configuration is valid.")

	out, err = runCommand(t, nil, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid.")

	_, err = runCommand(t, nil, "config", "set-limit", "lots")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigWizardCmd(t *testing.T) {
	_, settingsSvc := setupTestServices(t, 10)

	// Limit, queries, threshold kept, retention, endpoint kept.
	input := strings.NewReader("40\n3\n\n14\n\n")
	out, err := runCommand(t, input, "config", "wizard")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration saved.")

	settings, err := settingsSvc.Get()
	require.NoError(t, err)
	assert.Equal(t, 40, settings.Discovery.DailyLimit)
	assert.Equal(t, 3, settings.Rotation.MaxQueries)
	assert.Equal(t, domain.DefaultExhaustionThreshold, settings.Rotation.ExhaustionThreshold)
	assert.Equal(t, 14, settings.Ledger.RetentionDays)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "abc", truncate("abc", 2))
}

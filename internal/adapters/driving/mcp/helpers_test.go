package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/leadscout/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/leadscout/internal/core/domain"
	"github.com/custodia-labs/leadscout/internal/core/ports/driving"
	"github.com/custodia-labs/leadscout/internal/core/services"
)

// newTestEngine builds an engine over in-memory stores.
func newTestEngine(t *testing.T, dailyLimit int) *services.Engine {
	t.Helper()
	ctx := context.Background()

	settings := domain.DefaultAppSettings()
	settings.Discovery.DailyLimit = dailyLimit

	ledger := services.NewLedger(ctx, memory.NewLedgerStore())
	planner := services.NewPlanner(ctx, memory.NewRotationStore(), settings.Rotation)
	cache := services.NewResponseCache(settings.Cache, services.WithCallRecorder(ledger.RecordCall))

	return services.NewEngine(ledger, planner, services.NewFitScorer(domain.DefaultFitProfile()), cache, settings)
}

func newTestServer(t *testing.T, dailyLimit int) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Discovery: newTestEngine(t, dailyLimit)})
	require.NoError(t, err)
	return server
}

func qualifying(name string) domain.Candidate {
	return domain.Candidate{
		CompanyName:   name,
		Industry:      "Tourism",
		Location:      "Honolulu",
		EmployeeCount: 80,
		Website:       "https://" + name + ".example.com",
	}
}

// failingDiscovery fails every read it implements. Other methods are not
// called by the tests that use it.
type failingDiscovery struct {
	driving.DiscoveryService
}

var errStorage = errors.New("storage offline")

func (failingDiscovery) Stats(context.Context) (domain.DiscoveryStats, error) {
	return domain.DiscoveryStats{}, errStorage
}

func (failingDiscovery) RotationStats(context.Context) (domain.RotationStats, error) {
	return domain.RotationStats{}, errStorage
}

func (failingDiscovery) PlanQueries(context.Context, domain.PlanRequest) (*domain.QueryPlan, error) {
	return nil, errStorage
}

func (failingDiscovery) Today(context.Context) (domain.TodayStats, error) {
	return domain.TodayStats{}, errStorage
}

package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/leadscout/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/leadscout/internal/core/domain"
)

func newTestPlanner(t *testing.T, clock *fakeClock, store *memory.RotationStore) *Planner {
	t.Helper()
	if store == nil {
		store = memory.NewRotationStore()
	}
	return NewPlanner(context.Background(), store, domain.DefaultAppSettings().Rotation,
		WithPlannerClock(clock.Now),
		WithRandSource(rand.NewPCG(1, 2)),
	)
}

func seedHealth(t *testing.T, store *memory.RotationStore, health domain.SourceHealth) {
	t.Helper()
	_, err := store.UpdateSourceHealth(context.Background(), health.Source,
		func(domain.SourceHealth) domain.SourceHealth { return health })
	require.NoError(t, err)
}

func seedHistory(t *testing.T, store *memory.RotationStore, records ...domain.QueryRecord) {
	t.Helper()
	require.NoError(t, store.RecordPlan(context.Background(), records, nil, domain.DefaultHistorySize))
}

func queryStrings(records []domain.QueryRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Query
	}
	return out
}

func TestPlanner_NextQueries_RotatesIndustriesAndLocations(t *testing.T) {
	planner := newTestPlanner(t, newFakeClock(), nil)

	records, err := planner.NextQueries(context.Background(), domain.PlanRequest{MaxQueries: 5})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Honolulu hotel",
		"Oahu hotel",
		"Maui tour operator",
		"Kauai tour operator",
		"Big Island restaurant",
	}, queryStrings(records))
	assert.Equal(t, "hospitality", records[0].Industry)
	assert.Equal(t, "Honolulu", records[0].Location)

	stats := planner.Stats()
	assert.Equal(t, 5, stats.TotalQueries)
	assert.Equal(t, 1, stats.IndustryCursors["hospitality"])
}

func TestPlanner_NextQueries_LeastRecentlyUsedIndustryFirst(t *testing.T) {
	clock := newFakeClock()
	store := memory.NewRotationStore()
	seedHistory(t, store,
		domain.QueryRecord{Query: "Maui spa", Industry: "hospitality", Location: "Maui", UsedAt: clock.Now().Add(-time.Hour)},
		domain.QueryRecord{Query: "Hilo tours", Industry: "tourism", Location: "Hilo", UsedAt: clock.Now().Add(-time.Hour)},
	)
	planner := newTestPlanner(t, clock, store)

	records, err := planner.NextQueries(context.Background(), domain.PlanRequest{MaxQueries: 6})
	require.NoError(t, err)

	industries := map[string]bool{}
	for _, r := range records {
		industries[r.Industry] = true
	}
	assert.True(t, industries["restaurant"])
	assert.True(t, industries["retail"])
	assert.True(t, industries["healthcare"])
	assert.False(t, industries["hospitality"])
	assert.False(t, industries["tourism"])
}

func TestPlanner_NextQueries_SkipsRecentQueries(t *testing.T) {
	clock := newFakeClock()
	store := memory.NewRotationStore()
	seedHistory(t, store, domain.QueryRecord{
		Query:    "Honolulu hotel",
		Industry: "hospitality",
		Location: "Honolulu",
		UsedAt:   clock.Now().Add(-2 * 24 * time.Hour),
	})
	planner := newTestPlanner(t, clock, store)

	for range 10 {
		records, err := planner.NextQueries(context.Background(), domain.PlanRequest{MaxQueries: 5})
		require.NoError(t, err)
		for _, q := range queryStrings(records) {
			assert.NotEqual(t, "honolulu hotel", strings.ToLower(q))
		}
	}
}

func TestPlanner_NextQueries_ExplicitFiltersFallBackToModifiers(t *testing.T) {
	clock := newFakeClock()
	store := memory.NewRotationStore()
	seedHistory(t, store, domain.QueryRecord{Query: "HONOLULU HOTEL", UsedAt: clock.Now().Add(-time.Hour)})
	planner := newTestPlanner(t, clock, store)

	records, err := planner.NextQueries(context.Background(), domain.PlanRequest{
		Industry:   "Hospitality",
		Location:   "honolulu",
		MaxQueries: 3,
	})
	require.NoError(t, err)
	require.Len(t, records, 3)

	seen := map[string]bool{}
	for _, r := range records {
		assert.NotEqual(t, "honolulu hotel", strings.ToLower(r.Query))
		assert.Equal(t, "hospitality", r.Industry)
		assert.Equal(t, "Honolulu", r.Location)
		assert.True(t, strings.HasSuffix(r.Query, " Honolulu"), r.Query)
		assert.False(t, seen[r.Query], "duplicate query %q in one plan", r.Query)
		seen[r.Query] = true
	}
}

func TestPlanner_NextQueries_ReemitsAfterWindow(t *testing.T) {
	clock := newFakeClock()
	store := memory.NewRotationStore()
	seedHistory(t, store, domain.QueryRecord{Query: "Honolulu hotel", UsedAt: clock.Now().Add(-8 * 24 * time.Hour)})
	planner := newTestPlanner(t, clock, store)

	records, err := planner.NextQueries(context.Background(), domain.PlanRequest{
		Industry:   "hospitality",
		Location:   "Honolulu",
		MaxQueries: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Honolulu hotel"}, queryStrings(records))
}

func TestPlanner_NextQueries_UnknownFilters(t *testing.T) {
	planner := newTestPlanner(t, newFakeClock(), nil)

	records, err := planner.NextQueries(context.Background(), domain.PlanRequest{
		Industry:   "Fishing",
		Location:   "Molokai",
		MaxQueries: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Molokai fishing"}, queryStrings(records))
}

func TestPlanner_NextQueries_HistoryBounded(t *testing.T) {
	planner := newTestPlanner(t, newFakeClock(), nil)

	for range 30 {
		_, err := planner.NextQueries(context.Background(), domain.PlanRequest{MaxQueries: 5})
		require.NoError(t, err)
	}
	stats := planner.Stats()
	assert.LessOrEqual(t, stats.TotalQueries, domain.DefaultHistorySize)
	assert.Len(t, stats.RecentQueries, 10)
}

func TestPlanner_NextQueries_StoreFailure(t *testing.T) {
	store := memory.NewRotationStore()
	planner := newTestPlanner(t, newFakeClock(), store)
	store.FailWrites(errors.New("read-only"))

	_, err := planner.NextQueries(context.Background(), domain.PlanRequest{})
	require.Error(t, err)
	assert.Equal(t, 0, planner.Stats().TotalQueries)
}

func TestPlanner_MarkSourceResults_Smoothing(t *testing.T) {
	ctx := context.Background()
	planner := newTestPlanner(t, newFakeClock(), nil)

	health, err := planner.MarkSourceResults(ctx, domain.SourceReport{Source: "yelp", TotalFound: 10, Duplicates: 9, Admitted: 1})
	require.NoError(t, err)
	assert.InDelta(t, 27.0, health.Exhaustion, 1e-9)

	health, err = planner.MarkSourceResults(ctx, domain.SourceReport{Source: "yelp"})
	require.NoError(t, err)
	assert.InDelta(t, 48.9, health.Exhaustion, 1e-9)

	prev := health.Exhaustion
	for range 30 {
		health, err = planner.MarkSourceResults(ctx, domain.SourceReport{Source: "yelp"})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, health.Exhaustion, prev)
		assert.LessOrEqual(t, health.Exhaustion, 100.0)
		prev = health.Exhaustion
	}
	assert.Greater(t, health.Exhaustion, 99.0)
	assert.Equal(t, 32, health.Runs)
	assert.Equal(t, 10, health.TotalFound)
	assert.Equal(t, 1, health.Admitted)
}

func TestPlanner_MarkSourceResults_IgnoresPendingDecay(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := memory.NewRotationStore()
	seedHealth(t, store, domain.SourceHealth{
		Source:        "yelp",
		Exhaustion:    97.18,
		LastCheckedAt: clock.Now(),
	})
	planner := newTestPlanner(t, clock, store)

	clock.Advance(25 * time.Hour)
	health, err := planner.MarkSourceResults(ctx, domain.SourceReport{Source: "yelp", TotalFound: 10, Duplicates: 9})
	require.NoError(t, err)
	assert.InDelta(t, 0.7*97.18+0.3*90, health.Exhaustion, 1e-9)
	assert.True(t, health.DecayedAt.IsZero())
}

func TestPlanner_MarkSourceResults_SharedStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRotationStore()
	first := newTestPlanner(t, newFakeClock(), store)
	second := newTestPlanner(t, newFakeClock(), store)

	_, err := first.MarkSourceResults(ctx, domain.SourceReport{Source: "yelp", TotalFound: 10, Duplicates: 9, Admitted: 1})
	require.NoError(t, err)

	// second loaded its snapshot before first reported.
	health, err := second.MarkSourceResults(ctx, domain.SourceReport{Source: "yelp", TotalFound: 10, Duplicates: 0, Admitted: 4})
	require.NoError(t, err)
	assert.Equal(t, 2, health.Runs)
	assert.Equal(t, 20, health.TotalFound)
	assert.Equal(t, 9, health.Duplicates)
	assert.Equal(t, 5, health.Admitted)
	assert.InDelta(t, 0.7*27, health.Exhaustion, 1e-9)

	state, err := store.LoadRotation(ctx)
	require.NoError(t, err)
	assert.Equal(t, health, state.Sources["yelp"])
}

func TestPlanner_MarkSourceResults_Invalid(t *testing.T) {
	planner := newTestPlanner(t, newFakeClock(), nil)

	_, err := planner.MarkSourceResults(context.Background(), domain.SourceReport{Source: "", TotalFound: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = planner.MarkSourceResults(context.Background(), domain.SourceReport{Source: "yelp", TotalFound: 2, Duplicates: 3})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPlanner_ShouldUseSource_Decay(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := memory.NewRotationStore()
	seedHealth(t, store, domain.SourceHealth{
		Source:        "yelp",
		Exhaustion:    90,
		LastCheckedAt: clock.Now().Add(-time.Hour),
	})
	planner := newTestPlanner(t, clock, store)

	ok, err := planner.ShouldUseSource(ctx, "yelp")
	require.NoError(t, err)
	assert.False(t, ok)

	clock.Advance(24 * time.Hour)
	ok, err = planner.ShouldUseSource(ctx, "yelp")
	require.NoError(t, err)
	assert.True(t, ok)

	health, _ := planner.SourceHealth("yelp")
	assert.InDelta(t, 45.0, health.Exhaustion, 1e-9)

	// Decay applies once per period, not on every call.
	_, err = planner.ShouldUseSource(ctx, "yelp")
	require.NoError(t, err)
	state, err := store.LoadRotation(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 45.0, state.Sources["yelp"].Exhaustion, 1e-9)

	clock.Advance(25 * time.Hour)
	_, err = planner.ShouldUseSource(ctx, "yelp")
	require.NoError(t, err)
	health, _ = planner.SourceHealth("yelp")
	assert.InDelta(t, 22.5, health.Exhaustion, 1e-9)

	ok, err = planner.ShouldUseSource(ctx, "never_seen")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPlanner_RecommendedSources(t *testing.T) {
	ctx := context.Background()
	planner := newTestPlanner(t, newFakeClock(), nil)

	assert.Equal(t, []string{"google_maps", "yelp", "linkedin", "pacific_business_news", "hawaii_directories"},
		planner.RecommendedSources(domain.DefaultRecommendedSources))

	for range 10 {
		_, err := planner.MarkSourceResults(ctx, domain.SourceReport{Source: "google_maps"})
		require.NoError(t, err)
	}
	_, err := planner.MarkSourceResults(ctx, domain.SourceReport{Source: "yelp", TotalFound: 10, Duplicates: 5})
	require.NoError(t, err)

	got := planner.RecommendedSources(domain.DefaultRecommendedSources)
	assert.NotContains(t, got, "google_maps")
	assert.Equal(t, "linkedin", got[0])
	assert.Len(t, got, 5)
}

func TestPlanner_RecommendedSources_AllExhausted(t *testing.T) {
	ctx := context.Background()
	vocab := domain.DefaultVocabulary()
	vocab.Sources = []string{"a", "b"}
	planner := NewPlanner(ctx, memory.NewRotationStore(), domain.DefaultAppSettings().Rotation,
		WithPlannerClock(newFakeClock().Now), WithVocabulary(vocab))

	for range 10 {
		_, err := planner.MarkSourceResults(ctx, domain.SourceReport{Source: "a"})
		require.NoError(t, err)
	}
	for range 5 {
		_, err := planner.MarkSourceResults(ctx, domain.SourceReport{Source: "b"})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"b"}, planner.RecommendedSources(5))
}

func TestPlanner_DiversifiedParameters(t *testing.T) {
	planner := newTestPlanner(t, newFakeClock(), nil)

	plan, err := planner.DiversifiedParameters(context.Background(), domain.PlanRequest{})
	require.NoError(t, err)

	assert.Len(t, plan.Queries, domain.DefaultMaxQueries)
	assert.Equal(t, []string{"hospitality", "tourism", "restaurant"}, plan.Industries)
	assert.Equal(t, []string{"Honolulu", "Oahu", "Maui", "Kauai", "Big Island"}, plan.Locations)
	assert.Len(t, plan.RecommendedSources, domain.DefaultRecommendedSources)
}

func TestPlanner_LoadFailureStartsEmpty(t *testing.T) {
	store := memory.NewRotationStore()
	store.FailLoad(errors.New("corrupt"))

	planner := newTestPlanner(t, newFakeClock(), store)

	assert.Equal(t, 0, planner.Stats().TotalQueries)
}

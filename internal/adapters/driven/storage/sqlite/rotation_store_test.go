package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

func TestRotationStore_EmptyLoad(t *testing.T) {
	rotation := setupTestStore(t).RotationStore()

	state, err := rotation.LoadRotation(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.History)
	assert.Empty(t, state.Sources)
	assert.NotNil(t, state.IndustryCursors)
	assert.NotNil(t, state.LocationCursors)
}

func TestRotationStore_RecordPlan(t *testing.T) {
	rotation := setupTestStore(t).RotationStore()
	ctx := context.Background()

	records := []domain.QueryRecord{
		{Query: "Honolulu hotel", Industry: "hospitality", Location: "Honolulu", UsedAt: fixedTime},
		{Query: "Oahu hotel", Industry: "hospitality", Location: "Oahu", UsedAt: fixedTime},
	}
	cursors := map[string]map[string]int{
		domain.CursorIndustry: {"hospitality": 1},
		domain.CursorLocation: {"Honolulu": 1, "Oahu": 1},
	}
	require.NoError(t, rotation.RecordPlan(ctx, records, cursors, 100))

	require.NoError(t, rotation.RecordPlan(ctx, nil, map[string]map[string]int{
		domain.CursorIndustry: {"hospitality": 2},
	}, 100))

	state, err := rotation.LoadRotation(ctx)
	require.NoError(t, err)
	require.Len(t, state.History, 2)
	assert.Equal(t, "Honolulu hotel", state.History[0].Query)
	assert.Equal(t, "Oahu", state.History[1].Location)
	assert.True(t, state.History[0].UsedAt.Equal(fixedTime))
	assert.Equal(t, map[string]int{"hospitality": 2}, state.IndustryCursors)
	assert.Equal(t, map[string]int{"Honolulu": 1, "Oahu": 1}, state.LocationCursors)
}

func TestRotationStore_RecordPlan_TrimsHistory(t *testing.T) {
	rotation := setupTestStore(t).RotationStore()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		record := domain.QueryRecord{Query: fmt.Sprintf("q%d", i), UsedAt: fixedTime.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, rotation.RecordPlan(ctx, []domain.QueryRecord{record}, nil, 5))
	}

	state, err := rotation.LoadRotation(ctx)
	require.NoError(t, err)
	require.Len(t, state.History, 5)
	assert.Equal(t, "q2", state.History[0].Query)
	assert.Equal(t, "q6", state.History[4].Query)
}

func TestRotationStore_UpdateSourceHealth(t *testing.T) {
	rotation := setupTestStore(t).RotationStore()
	ctx := context.Background()

	health, err := rotation.UpdateSourceHealth(ctx, "yelp", func(h domain.SourceHealth) domain.SourceHealth {
		assert.Equal(t, domain.SourceHealth{Source: "yelp"}, h)
		h.Exhaustion = 24
		h.LastCheckedAt = fixedTime
		h.Runs = 1
		h.TotalFound = 10
		h.Duplicates = 8
		h.Admitted = 2
		return h
	})
	require.NoError(t, err)
	assert.Equal(t, 1, health.Runs)

	_, err = rotation.UpdateSourceHealth(ctx, "yelp", func(h domain.SourceHealth) domain.SourceHealth {
		assert.InDelta(t, 24.0, h.Exhaustion, 1e-9)
		assert.True(t, h.LastCheckedAt.Equal(fixedTime))
		h.Exhaustion /= 2
		h.DecayedAt = fixedTime.Add(25 * time.Hour)
		h.Duplicates += 3
		return h
	})
	require.NoError(t, err)

	state, err := rotation.LoadRotation(ctx)
	require.NoError(t, err)

	got := state.Sources["yelp"]
	assert.InDelta(t, 12.0, got.Exhaustion, 1e-9)
	assert.True(t, got.LastCheckedAt.Equal(fixedTime))
	assert.True(t, got.DecayedAt.Equal(fixedTime.Add(25*time.Hour)))
	assert.Equal(t, 11, got.Duplicates)

	_, err = rotation.UpdateSourceHealth(ctx, "", func(h domain.SourceHealth) domain.SourceHealth { return h })
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRotationStore_UpdateSourceHealth_SeparateStores(t *testing.T) {
	dir := t.TempDir()
	first, err := NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Close() })
	second, err := NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	ctx := context.Background()

	addRun := func(h domain.SourceHealth) domain.SourceHealth {
		h.Runs++
		h.TotalFound += 10
		return h
	}
	_, err = first.RotationStore().UpdateSourceHealth(ctx, "yelp", addRun)
	require.NoError(t, err)
	health, err := second.RotationStore().UpdateSourceHealth(ctx, "yelp", addRun)
	require.NoError(t, err)
	assert.Equal(t, 2, health.Runs)
	assert.Equal(t, 20, health.TotalFound)
}

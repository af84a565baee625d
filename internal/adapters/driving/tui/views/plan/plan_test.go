package plan

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/leadscout/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/leadscout/internal/core/domain"
	"github.com/custodia-labs/leadscout/internal/core/ports/driving"
)

type stubPlanner struct {
	driving.DiscoveryService
	plan  *domain.QueryPlan
	err   error
	calls int
}

func (s *stubPlanner) PlanQueries(context.Context, domain.PlanRequest) (*domain.QueryPlan, error) {
	s.calls++
	return s.plan, s.err
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestView_DoesNotPlanUntilAsked(t *testing.T) {
	planner := &stubPlanner{}
	view := NewView(nil, planner)

	assert.Contains(t, view.View(), "Press p")
	assert.Equal(t, 0, planner.calls)
}

func TestView_PlanOnRequest(t *testing.T) {
	planner := &stubPlanner{plan: &domain.QueryPlan{
		Queries:            []string{"Honolulu hotel", "Oahu hotel"},
		Industries:         []string{"hospitality"},
		Locations:          []string{"Honolulu", "Oahu"},
		RecommendedSources: []string{"google_maps"},
	}}
	view := NewView(nil, planner)

	_, cmd := view.Update(keyRune('p'))
	require.NotNil(t, cmd)
	assert.Contains(t, view.View(), "Planning...")

	// A second press while loading is ignored.
	_, again := view.Update(keyRune('p'))
	assert.Nil(t, again)

	view.Update(cmd())
	assert.Equal(t, 1, planner.calls)
	require.NotNil(t, view.Plan())

	output := view.View()
	assert.Contains(t, output, "Honolulu hotel")
	assert.Contains(t, output, "hospitality")
	assert.Contains(t, output, "google_maps")

	view.Update(keyRune('j'))
	view.Update(keyRune('j'))
	assert.Equal(t, 1, view.Selected())
	view.Update(keyRune('k'))
	assert.Equal(t, 0, view.Selected())
}

func TestView_PlanError(t *testing.T) {
	view := NewView(nil, &stubPlanner{})

	view.Update(messages.PlanLoaded{Err: errors.New("rotation store offline")})

	assert.Contains(t, view.View(), "Planning failed: rotation store offline")
	assert.Nil(t, view.Plan())
}

func TestView_EmptyPlan(t *testing.T) {
	view := NewView(nil, &stubPlanner{})

	view.Update(messages.PlanLoaded{Plan: &domain.QueryPlan{}})

	assert.Contains(t, view.View(), "used recently")
}

package sources

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

func TestView_Empty(t *testing.T) {
	view := NewView(nil, 0)

	assert.Equal(t, domain.DefaultExhaustionThreshold, view.threshold)
	assert.Contains(t, view.View(), "No source results")
}

func TestView_SortsByExhaustion(t *testing.T) {
	view := NewView(nil, 80)
	view.SetSources(map[string]domain.SourceHealth{
		"yelp":        {Source: "yelp", Exhaustion: 20, Runs: 2},
		"google_maps": {Source: "google_maps", Exhaustion: 90, Runs: 5},
		"linkedin":    {Source: "linkedin", Exhaustion: 20, Runs: 1},
	})

	got := view.Sources()
	require.Len(t, got, 3)
	assert.Equal(t, "google_maps", got[0].Source)
	assert.Equal(t, "linkedin", got[1].Source)
	assert.Equal(t, "yelp", got[2].Source)

	output := view.View()
	assert.Contains(t, output, "SOURCE")
	assert.Contains(t, output, "90.0%")
	assert.Equal(t, 1, strings.Count(output, "skipped"))
}

func TestView_Navigate(t *testing.T) {
	view := NewView(nil, 80)
	view.SetSources(map[string]domain.SourceHealth{
		"a": {Source: "a"},
		"b": {Source: "b"},
	})

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.selected)

	view.SetSources(map[string]domain.SourceHealth{"a": {Source: "a"}})
	assert.Equal(t, 0, view.selected)
}

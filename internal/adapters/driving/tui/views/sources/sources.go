// Package sources lists source exhaustion, most exhausted first.
package sources

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/leadscout/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/leadscout/internal/core/domain"
)

// View is the source health view.
type View struct {
	styles    *styles.Styles
	sources   []domain.SourceHealth
	threshold float64
	selected  int
	width     int
	height    int
}

// NewView creates a new sources view. threshold is the exhaustion level at
// which a source is skipped.
func NewView(s *styles.Styles, threshold float64) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if threshold <= 0 {
		threshold = domain.DefaultExhaustionThreshold
	}
	return &View{styles: s, threshold: threshold, width: 80, height: 24}
}

// SetSources replaces the listed sources.
func (v *View) SetSources(sources map[string]domain.SourceHealth) {
	v.sources = v.sources[:0]
	for _, h := range sources {
		v.sources = append(v.sources, h)
	}
	sort.Slice(v.sources, func(i, j int) bool {
		if v.sources[i].Exhaustion != v.sources[j].Exhaustion {
			return v.sources[i].Exhaustion > v.sources[j].Exhaustion
		}
		return v.sources[i].Source < v.sources[j].Source
	})
	if v.selected >= len(v.sources) {
		v.selected = max(0, len(v.sources)-1)
	}
}

// Sources returns the listed sources in display order.
func (v *View) Sources() []domain.SourceHealth {
	return v.sources
}

// Update handles messages for the sources view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
		case "down", "j":
			if v.selected < len(v.sources)-1 {
				v.selected++
			}
		}
	}
	return v, nil
}

// View renders the source table.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Sources"))
	b.WriteString("\n\n")

	if len(v.sources) == 0 {
		b.WriteString(v.styles.Muted.Render("No source results reported yet."))
		return b.String()
	}

	header := fmt.Sprintf("  %-24s %10s %6s %8s %8s", "SOURCE", "EXHAUSTION", "RUNS", "FOUND", "DUPES")
	b.WriteString(v.styles.Muted.Render(header))
	b.WriteString("\n")

	for i, h := range v.sources {
		cursor := "  "
		if i == v.selected {
			cursor = "> "
		}
		level := v.styles.Level(h.Exhaustion, v.threshold/2, v.threshold)
		line := fmt.Sprintf("%-24s %s %6d %8d %8d",
			h.Source, level.Render(fmt.Sprintf("%9.1f%%", h.Exhaustion)), h.Runs, h.TotalFound, h.Duplicates)
		if h.Exhaustion >= v.threshold {
			line += " " + v.styles.Error.Render("skipped")
		}
		b.WriteString(cursor + line + "\n")
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

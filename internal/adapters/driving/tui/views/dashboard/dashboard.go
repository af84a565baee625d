// Package dashboard renders today's admission quota alongside cache,
// ledger and rotation counters.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/leadscout/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/leadscout/internal/core/domain"
)

const (
	gaugeWidth    = 30
	recentQueries = 5
)

// View is the dashboard view.
type View struct {
	styles   *styles.Styles
	stats    domain.DiscoveryStats
	rotation domain.RotationStats
	loaded   bool
	width    int
	height   int
}

// NewView creates a new dashboard view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, width: 80, height: 24}
}

// SetStats replaces the displayed figures.
func (v *View) SetStats(stats domain.DiscoveryStats, rotation domain.RotationStats) {
	v.stats = stats
	v.rotation = rotation
	v.loaded = true
}

// Stats returns the displayed discovery figures.
func (v *View) Stats() domain.DiscoveryStats {
	return v.stats
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// View renders the dashboard.
func (v *View) View() string {
	if !v.loaded {
		return v.styles.Muted.Render("Loading statistics...")
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Today"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Panel.Render(v.renderQuota()))
	b.WriteString("\n")

	cache := v.styles.Panel.Render(v.renderCache())
	ledger := v.styles.Panel.Render(v.renderLedger())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cache, " ", ledger))
	b.WriteString("\n")
	b.WriteString(v.styles.Panel.Render(v.renderRotation()))

	return b.String()
}

func (v *View) renderQuota() string {
	t := v.stats.Today
	used := t.Admitted + t.Reserved

	load := 0.0
	if t.DailyLimit > 0 {
		load = float64(used) * 100 / float64(t.DailyLimit)
	} else if used > 0 {
		load = 100
	}
	gauge := v.styles.Level(load, 75, 100).Render(styles.Gauge(used, t.DailyLimit, gaugeWidth))

	lines := []string{
		v.styles.Subtitle.Render("Admission quota"),
		gauge + fmt.Sprintf(" %d/%d", used, t.DailyLimit),
		v.row("Admitted", t.Admitted),
		v.row("Reserved", t.Reserved),
		v.row("Remaining", t.Remaining),
		v.row("External calls", t.ExternalCalls),
	}
	if v.stats.LimitReached() {
		lines = append(lines, v.styles.Warning.Render("Daily limit reached"))
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderCache() string {
	c := v.stats.Cache
	hitRate := "n/a"
	if c.Lookups() > 0 {
		hitRate = fmt.Sprintf("%.0f%%", float64(c.Hits)*100/float64(c.Lookups()))
	}
	return strings.Join([]string{
		v.styles.Subtitle.Render("Response cache"),
		v.row("Active entries", c.ActiveEntries),
		v.row("Expired entries", c.ExpiredEntries),
		v.row("Hits", c.Hits),
		v.row("Misses", c.Misses),
		v.row("Hit rate", hitRate),
	}, "\n")
}

func (v *View) renderLedger() string {
	s := v.stats.State
	return strings.Join([]string{
		v.styles.Subtitle.Render("Ledger"),
		v.row("Companies seen", s.CompaniesSeen),
		v.row("Filtered", s.CompaniesFiltered),
		v.row("Source queries", s.SourcesTracked),
	}, "\n")
}

func (v *View) renderRotation() string {
	lines := []string{
		v.styles.Subtitle.Render("Query rotation"),
		v.row("Queries in history", v.rotation.TotalQueries),
	}
	recent := v.rotation.RecentQueries
	if len(recent) > recentQueries {
		recent = recent[len(recent)-recentQueries:]
	}
	for _, q := range recent {
		lines = append(lines, v.styles.Muted.Render("  "+q))
	}
	return strings.Join(lines, "\n")
}

func (v *View) row(label string, value any) string {
	return v.styles.Label.Render(label) + v.styles.Normal.Render(fmt.Sprint(value))
}

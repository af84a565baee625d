// Package plan shows the planner's next query bundle. Planning records the
// emitted queries in rotation history, so it only runs on request.
package plan

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/leadscout/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/leadscout/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/leadscout/internal/core/domain"
	"github.com/custodia-labs/leadscout/internal/core/ports/driving"
)

// View is the query plan view.
type View struct {
	styles    *styles.Styles
	discovery driving.DiscoveryService
	ctx       context.Context
	plan      *domain.QueryPlan
	selected  int
	loading   bool
	err       error
	width     int
	height    int
}

// NewView creates a new plan view.
func NewView(s *styles.Styles, discovery driving.DiscoveryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:    s,
		discovery: discovery,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for planner calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Update handles messages for the plan view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.PlanLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.plan = msg.Plan
			v.selected = 0
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "p":
			if v.loading {
				return v, nil
			}
			v.loading = true
			return v, v.requestPlan()
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
		case "down", "j":
			if v.plan != nil && v.selected < len(v.plan.Queries)-1 {
				v.selected++
			}
		}
	}
	return v, nil
}

func (v *View) requestPlan() tea.Cmd {
	ctx := v.ctx
	discovery := v.discovery
	return func() tea.Msg {
		plan, err := discovery.PlanQueries(ctx, domain.PlanRequest{})
		return messages.PlanLoaded{Plan: plan, Err: err}
	}
}

// View renders the plan.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Query Plan"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Planning..."))
		return b.String()
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Planning failed: " + v.err.Error()))
		b.WriteString("\n\n")
	case v.plan == nil:
		b.WriteString(v.styles.Muted.Render("Press p to plan the next queries."))
		return b.String()
	}
	if v.plan == nil {
		return b.String()
	}

	if len(v.plan.Queries) == 0 {
		b.WriteString(v.styles.Warning.Render("Every candidate query was used recently."))
		b.WriteString("\n")
	}
	for i, q := range v.plan.Queries {
		if i == v.selected {
			b.WriteString("> " + v.styles.Selected.Render(q))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(q))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Label.Render("Industries") + strings.Join(v.plan.Industries, ", ") + "\n")
	b.WriteString(v.styles.Label.Render("Locations") + strings.Join(v.plan.Locations, ", ") + "\n")
	b.WriteString(v.styles.Label.Render("Sources") + strings.Join(v.plan.RecommendedSources, ", ") + "\n")
	return b.String()
}

// Plan returns the last loaded plan, or nil.
func (v *View) Plan() *domain.QueryPlan {
	return v.plan
}

// Selected returns the highlighted query index.
func (v *View) Selected() int {
	return v.selected
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

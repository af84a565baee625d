// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/leadscout/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewDashboard shows today's quota, cache and ledger counters.
	ViewDashboard
	// ViewPlan shows the next planned queries.
	ViewPlan
	// ViewSources lists source exhaustion.
	ViewSources
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewDashboard:
		return "dashboard"
	case ViewPlan:
		return "plan"
	case ViewSources:
		return "sources"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// RefreshTick fires periodically so long-lived views can reload.
type RefreshTick struct{}

// StatsLoaded carries the discovery and rotation summaries.
type StatsLoaded struct {
	Stats    domain.DiscoveryStats
	Rotation domain.RotationStats
	Err      error
}

// PlanLoaded carries a freshly planned query bundle.
type PlanLoaded struct {
	Plan *domain.QueryPlan
	Err  error
}

package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/leadscout/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/leadscout/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/leadscout/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/leadscout/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/leadscout/internal/adapters/driving/tui/views/dashboard"
	"github.com/custodia-labs/leadscout/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/leadscout/internal/adapters/driving/tui/views/plan"
	"github.com/custodia-labs/leadscout/internal/adapters/driving/tui/views/sources"
)

// DefaultRefreshInterval is how often the dashboard reloads statistics.
const DefaultRefreshInterval = 5 * time.Second

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView      *menu.View
	dashboardView *dashboard.View
	planView      *plan.View
	sourcesView   *sources.View
	statusBar     *status.Bar

	currentView messages.ViewType
	refresh     time.Duration
	now         func() time.Time

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports. threshold is
// the source exhaustion level above which sources are skipped.
func NewApp(ports *Ports, threshold float64) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		menuView:      menu.NewView(s, km),
		dashboardView: dashboard.NewView(s),
		planView:      plan.NewView(s, ports.Discovery),
		sourcesView:   sources.NewView(s, threshold),
		statusBar:     status.NewBar(s, km),
		currentView:   messages.ViewMenu,
		refresh:       DefaultRefreshInterval,
		now:           time.Now,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.planView.WithContext(ctx)
	return a
}

// WithRefreshInterval changes the statistics refresh period.
func (a *App) WithRefreshInterval(d time.Duration) *App {
	if d > 0 {
		a.refresh = d
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("leadscout"),
		a.loadStats(),
		a.tick(),
	)
}

func (a *App) loadStats() tea.Cmd {
	ctx := a.ctx
	discovery := a.ports.Discovery
	return func() tea.Msg {
		stats, err := discovery.Stats(ctx)
		if err != nil {
			return messages.StatsLoaded{Err: err}
		}
		rotation, err := discovery.RotationStats(ctx)
		return messages.StatsLoaded{Stats: stats, Rotation: rotation, Err: err}
	}
}

func (a *App) tick() tea.Cmd {
	return tea.Tick(a.refresh, func(time.Time) tea.Msg {
		return messages.RefreshTick{}
	})
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		a.statusBar.SetInView(msg.View != messages.ViewMenu)
		if msg.View == messages.ViewDashboard || msg.View == messages.ViewSources {
			a.statusBar.SetState(status.StateLoading)
			return a, a.loadStats()
		}
		return a, nil

	case messages.RefreshTick:
		return a, tea.Batch(a.loadStats(), a.tick())

	case messages.StatsLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			a.statusBar.SetError(msg.Err)
			return a, nil
		}
		a.err = nil
		a.menuView.SetToday(msg.Stats.Today)
		a.dashboardView.SetStats(msg.Stats, msg.Rotation)
		a.sourcesView.SetSources(msg.Rotation.Sources)
		a.statusBar.MarkRefreshed(a.now())
		return a, nil

	case messages.PlanLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			a.statusBar.SetError(msg.Err)
		}
		a.planView, cmd = a.planView.Update(msg)
		// Planning changes rotation history.
		return a, tea.Batch(cmd, a.loadStats())

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.statusBar.SetError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	if a.currentView == messages.ViewMenu {
		a.menuView, cmd = a.menuView.Update(msg)
		return a, cmd
	}

	switch {
	case keymap.Matches(msg.String(), a.keymap.Back):
		a.currentView = messages.ViewMenu
		a.statusBar.SetInView(false)
		return a, nil
	case keymap.Matches(msg.String(), a.keymap.Quit):
		return a, tea.Quit
	case keymap.Matches(msg.String(), a.keymap.Refresh):
		a.statusBar.SetState(status.StateLoading)
		return a, a.loadStats()
	}

	switch a.currentView {
	case messages.ViewPlan:
		a.planView, cmd = a.planView.Update(msg)
	case messages.ViewSources:
		a.sourcesView, cmd = a.sourcesView.Update(msg)
	case messages.ViewMenu, messages.ViewDashboard, messages.ViewHelp:
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewDashboard:
		body = a.dashboardView.View()
	case messages.ViewPlan:
		body = a.planView.View()
	case messages.ViewSources:
		body = a.sourcesView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		return a.menuView.View()
	}
	return body + "\n\n" + a.statusBar.View()
}

func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back to Menu
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Dashboard and Sources:
  r           Refresh now (also refreshes automatically)

Query Plan:
  p           Plan the next queries (records them in history)
  j/k, ↑/↓    Move through queries

[esc] back to menu`
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.dashboardView.SetDimensions(width, height)
	a.planView.SetDimensions(width, height)
	a.sourcesView.SetDimensions(width, height)
	a.statusBar.SetWidth(width)
}

// Package ui implements the stockdeck terminal application: a session-gated
// set of views driven by a single bubbletea event loop.
package ui

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"stockdeck/internal/auth"
	"stockdeck/pkg/stockdeck"
)

type route int

const (
	routeDashboard route = iota
	routeCharts
	routeAlerts
	routeStats
	routeCount
)

var routeNames = [routeCount]string{"Dashboard", "Charts", "Alerts", "Stats"}

// sessionMsg carries a session state change into the event loop.
type sessionMsg auth.State

// App is the root model. It owns the route guard: nothing renders until the
// session resolves, anonymous sessions see only the login view, and the
// protected views exist behind an authenticated session.
type App struct {
	session   *auth.Session
	api       *stockdeck.Client
	log       *slog.Logger
	states    <-chan auth.State
	cancelSub func()

	resolved bool
	user     *auth.User

	route  route
	login  loginModel
	dash   dashboardModel
	charts chartsModel
	alerts alertsModel
	stats  statsModel

	width, height int
}

// NewApp builds the application model and subscribes to session changes.
// The subscription is released when the program quits.
func NewApp(session *auth.Session, api *stockdeck.Client, logger *slog.Logger) App {
	if logger == nil {
		logger = slog.Default()
	}
	states, cancel := session.Subscribe()
	return App{
		session:   session,
		api:       api,
		log:       logger,
		states:    states,
		cancelSub: cancel,
		login:     newLoginModel(session, logger),
		dash:      newDashboardModel(api, logger),
		charts:    newChartsModel(api, logger),
		alerts:    newAlertsModel(api, logger),
		stats:     newStatsModel(api, logger),
	}
}

func (a App) Init() tea.Cmd {
	return a.waitForSession()
}

// waitForSession re-arms after every delivery so each state change becomes
// one message.
func (a App) waitForSession() tea.Cmd {
	ch := a.states
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return sessionMsg(st)
	}
}

func (a App) authed() bool {
	return a.user != nil
}

// editing reports whether the active view is capturing free text, in which
// case single-letter shortcuts must not fire.
func (a App) editing() bool {
	return a.route == routeAlerts && a.alerts.editing()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case sessionMsg:
		st := auth.State(msg)
		wasAuthed := a.authed()
		a.resolved = st.Resolved
		a.user = st.User

		cmds := []tea.Cmd{a.waitForSession()}
		if a.authed() && !wasAuthed {
			// Entering the protected area: clear the login form and mount
			// the requested view so its initial fetches fire.
			a.login = newLoginModel(a.session, a.log)
			cmds = append(cmds, a.mountRoute())
		}
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	// Async results are routed to every view; each one ignores message
	// types it does not own, and stale results are dropped by sequence.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.login, cmd = a.login.update(msg)
	cmds = append(cmds, cmd)
	a.dash, cmd = a.dash.update(msg)
	cmds = append(cmds, cmd)
	a.charts, cmd = a.charts.update(msg)
	cmds = append(cmds, cmd)
	a.alerts, cmd = a.alerts.update(msg)
	cmds = append(cmds, cmd)
	a.stats, cmd = a.stats.update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		a.cancelSub()
		return a, tea.Quit
	}

	if !a.resolved {
		return a, nil
	}

	if !a.authed() {
		var cmd tea.Cmd
		a.login, cmd = a.login.update(msg)
		return a, cmd
	}

	if !a.editing() {
		switch msg.String() {
		case "q":
			a.cancelSub()
			return a, tea.Quit
		case "tab":
			a.route = (a.route + 1) % routeCount
			return a, a.mountRoute()
		case "shift+tab":
			a.route = (a.route + routeCount - 1) % routeCount
			return a, a.mountRoute()
		case "1", "2", "3", "4":
			a.route = route(msg.String()[0] - '1')
			return a, a.mountRoute()
		case "ctrl+l":
			a.session.SignOut()
			return a, nil
		}
	}

	var cmd tea.Cmd
	switch a.route {
	case routeDashboard:
		a.dash, cmd = a.dash.update(msg)
	case routeCharts:
		a.charts, cmd = a.charts.update(msg)
	case routeAlerts:
		a.alerts, cmd = a.alerts.update(msg)
	case routeStats:
		a.stats, cmd = a.stats.update(msg)
	}
	return a, cmd
}

// mountRoute resets the active view and fires its initial fetches.
func (a *App) mountRoute() tea.Cmd {
	switch a.route {
	case routeDashboard:
		var cmd tea.Cmd
		a.dash, cmd = a.dash.mount()
		return cmd
	case routeCharts:
		var cmd tea.Cmd
		a.charts, cmd = a.charts.mount()
		return cmd
	case routeAlerts:
		var cmd tea.Cmd
		a.alerts, cmd = a.alerts.mount()
		return cmd
	case routeStats:
		var cmd tea.Cmd
		a.stats, cmd = a.stats.mount()
		return cmd
	}
	return nil
}

func (a App) View() string {
	// No flash of login or protected content before the session resolves.
	if !a.resolved {
		return ""
	}

	if !a.authed() {
		return a.login.view(a.width)
	}

	var body string
	switch a.route {
	case routeDashboard:
		body = a.dash.view(a.width)
	case routeCharts:
		body = a.charts.view(a.width)
	case routeAlerts:
		body = a.alerts.view(a.width)
	case routeStats:
		body = a.stats.view(a.width)
	}

	return a.renderNav() + "\n" + body + "\n" + a.renderFooter()
}

func (a App) renderNav() string {
	var parts []string
	for r := routeDashboard; r < routeCount; r++ {
		label := fmt.Sprintf(" %d %s ", int(r)+1, routeNames[r])
		if r == a.route {
			parts = append(parts, navActiveStyle.Render(label))
		} else {
			parts = append(parts, navStyle.Render(label))
		}
	}
	user := ""
	if a.user != nil {
		user = dimStyle.Render("  " + a.user.Email)
	}
	return strings.Join(parts, " ") + user
}

func (a App) renderFooter() string {
	help := " tab/1-4 views  up/dn select  enter fetch  ctrl+l sign out  q quit"
	if a.width <= 0 {
		return footerBarStyle.Render(help)
	}
	return footerBarStyle.Render(padOrTrunc(help, a.width))
}

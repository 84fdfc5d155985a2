// Package tui implements the terminal front-end: a gated set of
// screens over the back-office API plus a local sample browser.
package tui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/v2/spinner"
	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/counterdeskhq/counterdesk/engine"
	"github.com/counterdeskhq/counterdesk/engine/model"
)

// Deps carries the wired services the UI runs against.
type Deps struct {
	Session *engine.Session
	Client  *engine.Client
	Logger  *slog.Logger
}

// App is the root model. It owns one sub-model per screen and routes
// every navigation request through the permission gate.
type App struct {
	deps   Deps
	logger *slog.Logger

	width  int
	height int
	narrow bool

	path       string
	drawerOpen bool
	notice     string

	nav          *navBar
	login        *loginForm
	persons      *serverList
	transactions *serverList
	refunds      *serverList
	voids        *serverList
	sample       *localList
}

// NewApp builds the root model. The session must already be restored
// so the gate sees a settled auth state.
func NewApp(deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &App{
		deps:         deps,
		logger:       logger,
		path:         engine.DashboardPath,
		nav:          newNavBar(deps.Session.State(), engine.DashboardPath),
		login:        newLoginForm(deps.Session),
		persons:      newPersonList(deps.Client),
		transactions: newTransactionList(deps.Client),
		refunds:      newRefundList(deps.Client),
		voids:        newVoidList(deps.Client),
		sample:       newLocalList(),
	}
}

func (a *App) Init() tea.Cmd {
	return a.navigate(engine.DashboardPath)
}

// Cleanup releases UI resources after the program exits.
func (a *App) Cleanup() error {
	a.logger.Debug("tui shut down", "last_path", a.path)
	return nil
}

// navigate runs the permission gate for a target path and switches
// screens according to the verdict.
func (a *App) navigate(path string) tea.Cmd {
	result := engine.Decide(a.deps.Session.State(), path)

	switch result.Decision {
	case engine.DecideWait:
		// auth state is settled by Restore before the UI starts; if it
		// ever is not, stay put rather than flash the wrong screen
		return nil

	case engine.DecideLoginRedirect:
		a.path = engine.LoginPath
		a.login.reset()
		return nil

	case engine.DecideHomeRedirect:
		if result.Denied {
			a.notice = "you do not have access to " + engine.RouteName(path)
		}
		a.path = engine.DashboardPath
		a.nav.setActive(a.path)
		return nil
	}

	a.path = path
	a.nav.setActive(path)

	if list := a.listFor(path); list != nil {
		return list.refresh()
	}
	return nil
}

// listFor maps a route path onto its server-backed list, if any.
func (a *App) listFor(path string) *serverList {
	switch engine.NormalizePath(path) {
	case engine.NormalizePath(engine.PersonsPath):
		return a.persons
	case engine.NormalizePath(engine.TransactionsPath):
		return a.transactions
	case engine.NormalizePath(engine.RefundsPath):
		return a.refunds
	case engine.NormalizePath(engine.VoidsPath):
		return a.voids
	}
	return nil
}

// editing reports whether the focused screen is consuming raw text,
// which suppresses the global single-key shortcuts.
func (a *App) editing() bool {
	switch a.path {
	case engine.LoginPath:
		return true
	case SamplePath:
		return a.sample.editing >= 0
	}
	if list := a.listFor(a.path); list != nil {
		return list.editing >= 0
	}
	return false
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.narrow = msg.Width < narrowLayoutWidth
		contentHeight := a.height - chromeHeight(a.narrow)
		a.persons.setSize(a.width, contentHeight)
		a.transactions.setSize(a.width, contentHeight)
		a.refunds.setSize(a.width, contentHeight)
		a.voids.setSize(a.width, contentHeight)
		a.sample.setSize(a.width, contentHeight)
		return a, nil

	case SessionEndedMsg:
		return a, a.sessionEnded(msg)

	case loginResultMsg:
		cmd, _ := a.login.update(msg)
		if msg.err == nil {
			a.notice = ""
			a.nav.rebuild(a.deps.Session.State())
			return a, tea.Batch(cmd, a.navigate(engine.DashboardPath))
		}
		return a, cmd

	case pageLoadedMsg, pageErrorMsg:
		// each list checks the id and sequence number itself, so stale
		// pages from superseded requests are dropped here
		var cmds []tea.Cmd
		for _, list := range a.serverLists() {
			if cmd, handled := list.update(msg); handled {
				cmds = append(cmds, cmd)
			}
		}
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmds []tea.Cmd
		for _, list := range a.serverLists() {
			if cmd, handled := list.update(msg); handled {
				cmds = append(cmds, cmd)
			}
		}
		if cmd, handled := a.login.update(msg); handled {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case tea.MouseMsg:
		a.deps.Session.Touch()
		return a, nil

	case tea.KeyPressMsg:
		a.deps.Session.Touch()
		return a.handleKey(msg)
	}

	return a, nil
}

func (a *App) serverLists() []*serverList {
	return []*serverList{a.persons, a.transactions, a.refunds, a.voids}
}

// sessionEnded handles an idle timeout or a rejected token: the gate
// re-runs for the current path, which lands on the login screen with a
// notice explaining why.
func (a *App) sessionEnded(msg SessionEndedMsg) tea.Cmd {
	a.logger.Info("session ended", "event", int(msg.Event))
	a.drawerOpen = false
	a.nav.rebuild(a.deps.Session.State())

	switch msg.Event {
	case engine.EventIdleTimeout:
		a.login.setNotice("signed out after inactivity")
	case engine.EventUnauthorized:
		a.login.setNotice("session expired, please sign in again")
	}
	return a.navigate(a.path)
}

func (a *App) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	if a.drawerOpen {
		if path, done := a.nav.handleKey(msg); done {
			a.drawerOpen = false
			if path != "" {
				return a, a.navigate(path)
			}
		}
		return a, nil
	}

	if !a.editing() {
		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "m":
			a.drawerOpen = true
			return a, nil
		case "g":
			return a, a.navigate(engine.DashboardPath)
		case "x":
			if a.deps.Session.State().Status == model.AuthLoggedIn {
				return a, a.signOut()
			}
		}
	}

	switch a.path {
	case engine.LoginPath:
		cmd, _ := a.login.update(msg)
		return a, cmd
	case SamplePath:
		cmd, _ := a.sample.update(msg)
		return a, cmd
	}

	if list := a.listFor(a.path); list != nil {
		cmd, _ := list.update(msg)
		return a, cmd
	}
	return a, nil
}

// signOut is the explicit logout path, as opposed to timer or 401
// driven expiry.
func (a *App) signOut() tea.Cmd {
	if err := a.deps.Session.Logout(); err != nil {
		a.logger.Error("logout failed", "error", err)
	}
	a.deps.Client.InvalidateCache()
	a.nav.rebuild(a.deps.Session.State())
	a.login.setNotice("signed out")
	return a.navigate(a.path)
}

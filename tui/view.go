package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"

	"github.com/counterdeskhq/counterdesk/engine"
	"github.com/counterdeskhq/counterdesk/engine/model"
)

// chromeHeight is the number of rows the frame takes around the
// screen content: title bar, nav bar (wide layout) and status bar.
func chromeHeight(narrow bool) int {
	if narrow {
		return 3
	}
	return 4
}

func (a *App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.drawerOpen {
		return a.nav.viewDrawer(a.width, a.height)
	}

	if a.path == engine.LoginPath {
		return a.login.view(a.width, a.height)
	}

	var b strings.Builder
	b.WriteString(a.viewHeader())
	b.WriteString(a.viewScreen())
	b.WriteString("\n")
	b.WriteString(a.viewStatusBar())
	return b.String()
}

func (a *App) viewHeader() string {
	var b strings.Builder
	title := TitleStyle.Render("counterdesk")
	if a.notice != "" {
		title += "  " + NoticeStyle.Render(a.notice)
	}
	b.WriteString(title + "\n")

	if a.narrow {
		b.WriteString(HelpStyle.Render("m: menu") + "\n")
	} else {
		b.WriteString(a.nav.viewBar(a.width) + "\n")
	}
	return b.String()
}

func (a *App) viewScreen() string {
	switch engine.NormalizePath(a.path) {
	case engine.NormalizePath(engine.DashboardPath):
		return a.viewDashboard()
	case engine.NormalizePath(engine.ProfilePath):
		return a.viewProfile()
	case engine.NormalizePath(engine.SettingsPath):
		return a.viewSettings()
	case engine.NormalizePath(engine.SignupPath):
		return a.viewSignup()
	case SamplePath:
		return a.sample.view()
	}

	if list := a.listFor(a.path); list != nil {
		return list.view()
	}
	return SubtitleStyle.Render("nothing here")
}

func (a *App) viewDashboard() string {
	state := a.deps.Session.State()

	var b strings.Builder
	if state.Status == model.AuthLoggedIn {
		name := state.FullName
		if name == "" {
			name = state.Username
		}
		b.WriteString(fmt.Sprintf("Welcome back, %s.\n\n", name))
		b.WriteString(LabelStyle.Render("Roles: ") + strings.Join(state.Roles, ", ") + "\n\n")
	} else {
		b.WriteString("Browsing without a session. Sign in to reach the live data.\n\n")
	}

	b.WriteString("Where to go:\n")
	for _, e := range navEntries(state) {
		b.WriteString("  " + NavItemStyle.Render(e.label) + "\n")
	}
	b.WriteString("\n" + HelpStyle.Render("m: menu · x: sign out · q: quit"))
	return b.String()
}

func (a *App) viewProfile() string {
	state := a.deps.Session.State()

	rows := []struct{ label, value string }{
		{"Username", state.Username},
		{"Full name", state.FullName},
		{"Email", state.Email},
		{"Contact", state.Contact},
		{"Roles", strings.Join(state.Roles, ", ")},
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Profile") + "\n\n")
	for _, r := range rows {
		value := r.value
		if value == "" {
			value = SubtitleStyle.Render("not set")
		}
		b.WriteString(LabelStyle.Render(fmt.Sprintf("%-10s", r.label)) + " " + value + "\n")
	}
	return b.String()
}

func (a *App) viewSettings() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Settings") + "\n\n")
	b.WriteString(LabelStyle.Render("API        ") + " " + a.deps.Client.BaseURL() + "\n")
	b.WriteString(LabelStyle.Render("Idle limit ") + " " + engine.DefaultIdleTimeout.String() + "\n")
	b.WriteString("\n" + SubtitleStyle.Render("Settings are read-only here; use flags or environment variables."))
	return b.String()
}

func (a *App) viewSignup() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Sign Up") + "\n\n")
	b.WriteString("Accounts are provisioned by a back-office administrator.\n")
	b.WriteString("Ask yours for credentials, then sign in from the login screen.\n")
	return b.String()
}

func (a *App) viewStatusBar() string {
	state := a.deps.Session.State()

	left := RouteName(a.path)
	who := "not signed in"
	if state.Status == model.AuthLoggedIn {
		who = state.Username + " (" + strings.Join(state.Roles, ",") + ")"
	}

	bar := fmt.Sprintf(" %s · %s · %s", left, who, a.deps.Client.BaseURL())
	return lipgloss.NewStyle().
		Foreground(RGBGrey).
		Width(a.width).
		Render(bar)
}

// RouteName labels the current screen for the status bar, covering the
// local-only paths the route table does not know about.
func RouteName(path string) string {
	if path == SamplePath {
		return "Sample"
	}
	if name := engine.RouteName(path); name != "" {
		return name
	}
	return path
}

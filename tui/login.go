package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/counterdeskhq/counterdesk/engine"
)

// loginForm is the credential screen shown whenever the navigation
// gate bounces an unauthenticated user.
type loginForm struct {
	session *engine.Session

	username textinput.Model
	password textinput.Model
	active   int // 0 username, 1 password

	submitting bool
	errMsg     string
	notice     string
	spin       spinner.Model
}

func newLoginForm(session *engine.Session) *loginForm {
	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 64
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.CharLimit = 128
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	return &loginForm{
		session:  session,
		username: user,
		password: pass,
		spin:     newSpinner(),
	}
}

// setNotice shows a one-shot banner above the form, used for the
// session-expiry message.
func (f *loginForm) setNotice(text string) {
	f.notice = text
}

func (f *loginForm) reset() {
	f.password.SetValue("")
	f.submitting = false
	f.errMsg = ""
	f.active = 0
	f.username.Focus()
	f.password.Blur()
}

func (f *loginForm) submit() tea.Cmd {
	username := strings.TrimSpace(f.username.Value())
	password := f.password.Value()
	if username == "" || password == "" {
		f.errMsg = "username and password are required"
		return nil
	}

	f.submitting = true
	f.errMsg = ""
	f.notice = ""
	session := f.session

	return tea.Batch(f.spin.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return loginResultMsg{err: session.Login(ctx, username, password)}
	})
}

func (f *loginForm) update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case loginResultMsg:
		f.submitting = false
		if msg.err != nil {
			f.errMsg = msg.err.Error()
			f.password.SetValue("")
			return nil, true
		}
		return nil, true

	case spinner.TickMsg:
		if !f.submitting {
			return nil, false
		}
		var cmd tea.Cmd
		f.spin, cmd = f.spin.Update(msg)
		return cmd, true

	case tea.KeyPressMsg:
		if f.submitting {
			return nil, true
		}
		switch msg.String() {
		case "tab", "shift+tab", "down", "up":
			f.toggleField()
			return nil, true
		case "enter":
			if f.active == 0 {
				f.toggleField()
				return nil, true
			}
			return f.submit(), true
		}

		var cmd tea.Cmd
		if f.active == 0 {
			f.username, cmd = f.username.Update(msg)
		} else {
			f.password, cmd = f.password.Update(msg)
		}
		return cmd, true
	}

	return nil, false
}

func (f *loginForm) toggleField() {
	if f.active == 0 {
		f.active = 1
		f.username.Blur()
		f.password.Focus()
	} else {
		f.active = 0
		f.password.Blur()
		f.username.Focus()
	}
}

func (f *loginForm) view(width, height int) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Sign in") + "\n\n")
	if f.notice != "" {
		b.WriteString(NoticeStyle.Render(f.notice) + "\n\n")
	}
	b.WriteString(LabelStyle.Render("Username") + "\n")
	b.WriteString(f.username.View() + "\n\n")
	b.WriteString(LabelStyle.Render("Password") + "\n")
	b.WriteString(f.password.View() + "\n\n")

	switch {
	case f.submitting:
		b.WriteString(f.spin.View() + " signing in...")
	case f.errMsg != "":
		b.WriteString(ErrorStyle.Render(f.errMsg))
	default:
		b.WriteString(HelpStyle.Render("enter: sign in · tab: switch field · q: quit"))
	}

	box := BorderStyle.Width(loginBoxWidth).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

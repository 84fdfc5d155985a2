package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/counterdeskhq/counterdesk/engine"
	"github.com/counterdeskhq/counterdesk/tui"
)

// LaunchTUI wires the store, client and session together and runs the
// terminal UI until the user quits.
func LaunchTUI() error {
	logger := GetLogger()

	store, err := openSessionStore()
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	client := newAPIClient(logger)
	session := engine.NewSession(store, client, engine.SessionOptions{Logger: logger})
	client.SetTokenProvider(session)
	client.OnUnauthorized(session.HandleUnauthorized)

	if err := session.Restore(); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	model := tui.NewApp(tui.Deps{
		Session: session,
		Client:  client,
		Logger:  logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	// timer expiry and 401s happen off the UI loop; deliver them as
	// messages so the gate can redirect
	session.SetNotify(func(event engine.SessionEvent) {
		p.Send(tui.SessionEndedMsg{Event: event})
	})

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	// cleanup resources
	if m, ok := finalModel.(*tui.App); ok {
		if err := m.Cleanup(); err != nil {
			return fmt.Errorf("cleanup error: %w", err)
		}
	}

	return session.Close()
}

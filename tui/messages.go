package tui

import (
	"github.com/charmbracelet/bubbles/v2/table"

	"github.com/counterdeskhq/counterdesk/engine"
	"github.com/counterdeskhq/counterdesk/engine/model"
)

// SessionEndedMsg is delivered when the session terminates outside the
// UI loop: inactivity timeout or a 401 observed on any request.
type SessionEndedMsg struct {
	Event engine.SessionEvent
}

// pageLoadedMsg carries one fetched page. seq ties it to the request
// that produced it; stale sequences are discarded so a slow response
// never overwrites a newer page.
type pageLoadedMsg struct {
	listID string
	seq    int
	rows   []table.Row
	pg     model.Pagination
}

// pageErrorMsg carries a failed fetch for the same sequencing scheme.
type pageErrorMsg struct {
	listID string
	seq    int
	err    error
}

// loginResultMsg carries the outcome of a credential exchange.
type loginResultMsg struct {
	err error
}

package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/counterdeskhq/counterdesk/engine"
	"github.com/counterdeskhq/counterdesk/engine/model"
)

// SamplePath is the local-only sample browser. It is not in the route
// permission table, so the gate lets it through in any auth state.
const SamplePath = "sample"

// navEntry is one navigable destination, with dropdown groups
// flattened into their items.
type navEntry struct {
	label string
	path  string
}

// navEntries flattens the visible route table for the current session
// and appends the local sample browser, which needs no session at all.
func navEntries(state model.AuthState) []navEntry {
	var out []navEntry
	for _, route := range engine.VisibleRoutes(state) {
		if len(route.Items) == 0 {
			out = append(out, navEntry{label: route.Name, path: route.Path})
			continue
		}
		for _, item := range route.Items {
			out = append(out, navEntry{label: route.Name + " · " + item.Title, path: item.Href})
		}
	}
	out = append(out, navEntry{label: "Sample", path: SamplePath})
	return out
}

// navBar is the horizontal navigation used on wide terminals and the
// backing model for the drawer on narrow ones.
type navBar struct {
	entries []navEntry
	cursor  int
	active  string // current route path
}

func newNavBar(state model.AuthState, active string) *navBar {
	n := &navBar{active: active}
	n.rebuild(state)
	return n
}

// rebuild recomputes the entries after an auth state change, keeping
// the cursor on the active route when it survives.
func (n *navBar) rebuild(state model.AuthState) {
	n.entries = navEntries(state)
	n.cursor = 0
	for i, e := range n.entries {
		if e.path == n.active {
			n.cursor = i
			break
		}
	}
}

func (n *navBar) setActive(path string) {
	n.active = path
	for i, e := range n.entries {
		if e.path == path {
			n.cursor = i
			break
		}
	}
}

// handleKey moves the drawer cursor. The second return carries the
// chosen path on enter.
func (n *navBar) handleKey(msg tea.KeyPressMsg) (selected string, done bool) {
	switch msg.String() {
	case "up", "k":
		if n.cursor > 0 {
			n.cursor--
		}
	case "down", "j":
		if n.cursor < len(n.entries)-1 {
			n.cursor++
		}
	case "enter":
		if len(n.entries) > 0 {
			return n.entries[n.cursor].path, true
		}
	case "esc", "m":
		return "", true
	}
	return "", false
}

// viewBar renders the wide-layout horizontal navigation.
func (n *navBar) viewBar(width int) string {
	parts := make([]string, 0, len(n.entries))
	for _, e := range n.entries {
		if e.path == n.active {
			parts = append(parts, NavActiveStyle.Render(e.label))
		} else {
			parts = append(parts, NavItemStyle.Render(e.label))
		}
	}
	bar := strings.Join(parts, " ")
	return lipgloss.NewStyle().Width(width).Render(bar)
}

// viewDrawer renders the narrow-layout modal menu.
func (n *navBar) viewDrawer(width, height int) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Menu") + "\n\n")
	for i, e := range n.entries {
		line := "  " + e.label
		if i == n.cursor {
			line = "> " + e.label
			b.WriteString(NavActiveStyle.Render(line) + "\n")
			continue
		}
		if e.path == n.active {
			b.WriteString(NavItemStyle.Bold(true).Render(line) + "\n")
			continue
		}
		b.WriteString(NavItemStyle.Render(line) + "\n")
	}
	b.WriteString("\n" + HelpStyle.Render("enter: open · esc: close"))

	box := BorderStyle.Width(drawerModalWidth).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

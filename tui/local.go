package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/v2/table"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/counterdeskhq/counterdesk/datagen"
	"github.com/counterdeskhq/counterdesk/engine"
	"github.com/counterdeskhq/counterdesk/engine/model"
)

// localList browses a generated sample dataset entirely in memory. It
// runs the same filter/sort/paginate pipeline the demo server does, so
// it works without an API and without signing in.
type localList struct {
	title   string
	columns []columnSpec

	records []model.Person
	state   *engine.ListState[model.Person]
	result  engine.Result[model.Person]

	table   table.Model
	inputs  []textinput.Model
	editing int

	width  int
	height int
	ready  bool
}

func newLocalList() *localList {
	ds := datagen.Generate(datagen.DefaultOptions())

	inputs := make([]textinput.Model, 0)
	for _, col := range personColumns {
		if col.filterKey == "" {
			continue
		}
		in := textinput.New()
		in.Placeholder = col.title
		in.CharLimit = 64
		inputs = append(inputs, in)
	}

	l := &localList{
		title:   "Sample data",
		columns: personColumns,
		records: ds.Persons,
		state:   engine.NewListState(engine.PersonView, defaultPageSize),
		inputs:  inputs,
		editing: -1,
	}
	l.recompute()
	return l
}

func (l *localList) recompute() {
	l.result = l.state.Apply(l.records)
	if l.ready {
		l.table.SetRows(l.rows())
		l.table.SetColumns(l.tableColumns())
	}
}

func (l *localList) rows() []table.Row {
	rows := make([]table.Row, 0, len(l.result.Rows))
	for _, p := range l.result.Rows {
		rows = append(rows, personRow(p))
	}
	return rows
}

func (l *localList) filterKeys() []string {
	keys := make([]string, 0, len(l.inputs))
	for _, col := range l.columns {
		if col.filterKey != "" {
			keys = append(keys, col.filterKey)
		}
	}
	return keys
}

func (l *localList) setSize(width, height int) {
	l.width = width
	l.height = height

	tableHeight := height - tableVerticalPadding
	if tableHeight < minTableHeight {
		tableHeight = minTableHeight
	}

	cols := l.tableColumns()
	if !l.ready {
		l.table = table.New(
			table.WithColumns(cols),
			table.WithFocused(true),
			table.WithHeight(tableHeight),
			table.WithWidth(width),
		)
		l.table = ApplyTableStyles(l.table)
		l.ready = true
	} else {
		l.table.SetColumns(cols)
		l.table.SetHeight(tableHeight)
		l.table.SetWidth(width)
	}
	l.table.SetRows(l.rows())
}

func (l *localList) tableColumns() []table.Column {
	fixed := 0
	flexAt := -1
	for i, col := range l.columns {
		if col.flex {
			flexAt = i
			continue
		}
		fixed += col.width
	}

	cols := make([]table.Column, 0, len(l.columns))
	for i, col := range l.columns {
		width := col.width
		if i == flexAt {
			width = l.width - fixed - borderPadding
			if width < col.width {
				width = col.width
			}
		}
		cols = append(cols, table.Column{Title: l.columnTitle(i), Width: width})
	}
	return cols
}

func (l *localList) columnTitle(i int) string {
	col := l.columns[i]
	title := col.title
	if col.sortKey == "" {
		return title
	}

	title = fmt.Sprintf("%d %s", i+1, title)
	if l.state.Sort.Key == col.sortKey {
		switch l.state.Sort.Direction {
		case engine.SortDesc:
			title += " ↓"
		case engine.SortAsc:
			title += " ↑"
		}
	}
	return title
}

func (l *localList) applyFilters() {
	keys := l.filterKeys()
	for i, key := range keys {
		l.state.SetFilter(key, strings.TrimSpace(l.inputs[i].Value()))
	}
	l.recompute()
}

func (l *localList) update(msg tea.Msg) (tea.Cmd, bool) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return nil, false
	}

	if l.editing >= 0 {
		switch key.String() {
		case "tab":
			l.focusInput((l.editing + 1) % len(l.inputs))
			return nil, true
		case "shift+tab":
			l.focusInput((l.editing - 1 + len(l.inputs)) % len(l.inputs))
			return nil, true
		case "enter":
			l.blurInputs()
			l.applyFilters()
			return nil, true
		case "esc":
			l.blurInputs()
			return nil, true
		default:
			var cmd tea.Cmd
			l.inputs[l.editing], cmd = l.inputs[l.editing].Update(msg)
			return cmd, true
		}
	}

	switch key.String() {
	case "/":
		l.focusInput(0)
		return nil, true
	case "[":
		l.state.PrevPage()
		l.recompute()
		return nil, true
	case "]":
		l.state.NextPage(l.result.TotalPages)
		l.recompute()
		return nil, true
	case "+", "=":
		l.cyclePageSize(1)
		return nil, true
	case "-":
		l.cyclePageSize(-1)
		return nil, true
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		i := int(key.String()[0]-'0') - 1
		if i < len(l.columns) && l.columns[i].sortKey != "" {
			l.state.ToggleSort(l.columns[i].sortKey)
			l.recompute()
		}
		return nil, true
	}

	if l.ready {
		var cmd tea.Cmd
		l.table, cmd = l.table.Update(msg)
		return cmd, true
	}
	return nil, false
}

func (l *localList) cyclePageSize(step int) {
	current := 0
	for i, s := range pageSizes {
		if s == l.state.Page.Size {
			current = i
			break
		}
	}
	next := current + step
	if next < 0 || next >= len(pageSizes) {
		return
	}
	l.state.SetPageSize(pageSizes[next])
	l.recompute()
}

func (l *localList) focusInput(i int) {
	l.editing = i
	for j := range l.inputs {
		if j == i {
			l.inputs[j].Focus()
		} else {
			l.inputs[j].Blur()
		}
	}
}

func (l *localList) blurInputs() {
	l.editing = -1
	for j := range l.inputs {
		l.inputs[j].Blur()
	}
}

func (l *localList) view() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(l.title))
	b.WriteString(" " + SubtitleStyle.Render("(generated locally)"))
	b.WriteString("\n")
	b.WriteString(l.renderFilters())
	b.WriteString("\n")

	if len(l.result.Rows) == 0 {
		b.WriteString("\n" + SubtitleStyle.Render(" no matching records") + "\n")
	} else if l.ready {
		b.WriteString(l.table.View())
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("page %d / %d · %d records · %d rows",
		l.state.Page.Current, l.result.TotalPages, l.result.Total, l.state.Page.Size))
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("/: filter · enter: apply · 1-9: sort · [ ]: page · +/-: rows · m: menu · q: quit"))
	return b.String()
}

func (l *localList) renderFilters() string {
	if len(l.inputs) == 0 {
		return ""
	}

	parts := make([]string, 0, len(l.inputs))
	keys := l.filterKeys()
	for i := range l.inputs {
		label := FilterLabelStyle
		if l.editing == i || l.state.Filters[keys[i]] != "" {
			label = FilterActiveStyle
		}
		parts = append(parts, label.Render(l.inputs[i].Placeholder+":")+" "+l.inputs[i].View())
	}
	return strings.Join(parts, "  ")
}

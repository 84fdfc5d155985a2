package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/table"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/counterdeskhq/counterdesk/engine"
	"github.com/counterdeskhq/counterdesk/engine/model"
)

// columnSpec is one table column with its sort and filter bindings. A
// column without a sortKey cannot be toggled; one without a filterKey
// has no filter input.
type columnSpec struct {
	title     string
	width     int
	flex      bool // column absorbs leftover width
	sortKey   string
	filterKey string
}

// listRequest is the state snapshot a fetch is issued with.
type listRequest struct {
	Filters map[string]string
	Sort    engine.SortState
	Page    int
	Limit   int
}

// listFetcher retrieves one server-side page for a request.
type listFetcher func(ctx context.Context, req listRequest) ([]table.Row, model.Pagination, error)

// serverList is a server-backed list screen: filter inputs, a sortable
// table and pagination controls over a remote resource.
type serverList struct {
	id      string
	title   string
	columns []columnSpec
	fetch   listFetcher

	table   table.Model
	inputs  []textinput.Model
	editing int // index into inputs, -1 when the table has focus

	filters  map[string]string
	sort     engine.SortState
	page     int
	limit    int
	pg       model.Pagination
	rows     []table.Row
	haveRows bool

	loading bool
	loadErr error
	seq     int
	spin    spinner.Model

	width  int
	height int
	ready  bool
}

func newServerList(id, title string, columns []columnSpec, fetch listFetcher) *serverList {
	inputs := make([]textinput.Model, 0)
	for _, col := range columns {
		if col.filterKey == "" {
			continue
		}
		in := textinput.New()
		in.Placeholder = col.title
		in.CharLimit = 64
		inputs = append(inputs, in)
	}

	return &serverList{
		id:      id,
		title:   title,
		columns: columns,
		fetch:   fetch,
		inputs:  inputs,
		editing: -1,
		filters: make(map[string]string),
		page:    1,
		limit:   defaultPageSize,
		spin:    newSpinner(),
	}
}

func newSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(RGBPink)
	return s
}

// filterKeys returns the filter field names in column order.
func (l *serverList) filterKeys() []string {
	keys := make([]string, 0, len(l.inputs))
	for _, col := range l.columns {
		if col.filterKey != "" {
			keys = append(keys, col.filterKey)
		}
	}
	return keys
}

// setSize recomputes table dimensions for the terminal size.
func (l *serverList) setSize(width, height int) {
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
	l.table.SetRows(l.rows)
}

func (l *serverList) tableColumns() []table.Column {
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

// columnTitle decorates the header with the sort indicator and the
// toggle digit.
func (l *serverList) columnTitle(i int) string {
	col := l.columns[i]
	title := col.title
	if col.sortKey == "" {
		return title
	}

	title = fmt.Sprintf("%d %s", i+1, title)
	if l.sort.Key == col.sortKey {
		switch l.sort.Direction {
		case engine.SortDesc:
			title += " ↓"
		case engine.SortAsc:
			title += " ↑"
		}
	}
	return title
}

// refresh issues a fetch for the current filter/sort/page state. Any
// response from an earlier fetch becomes stale the moment seq moves.
func (l *serverList) refresh() tea.Cmd {
	l.seq++
	l.loading = true
	l.loadErr = nil

	req := listRequest{
		Filters: make(map[string]string, len(l.filters)),
		Sort:    l.sort,
		Page:    l.page,
		Limit:   l.limit,
	}
	for k, v := range l.filters {
		req.Filters[k] = v
	}

	id := l.id
	seq := l.seq
	fetch := l.fetch

	return tea.Batch(l.spin.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		rows, pg, err := fetch(ctx, req)
		if err != nil {
			return pageErrorMsg{listID: id, seq: seq, err: err}
		}
		return pageLoadedMsg{listID: id, seq: seq, rows: rows, pg: pg}
	})
}

// applyFilters copies the input values into the filter state, resets
// to page 1 and refetches.
func (l *serverList) applyFilters() tea.Cmd {
	keys := l.filterKeys()
	for i, key := range keys {
		l.filters[key] = strings.TrimSpace(l.inputs[i].Value())
	}
	l.page = 1
	return l.refresh()
}

// setPageSize switches the rows-per-page and resets to page 1.
func (l *serverList) setPageSize(size int) tea.Cmd {
	if size == l.limit {
		return nil
	}
	l.limit = size
	l.page = 1
	return l.refresh()
}

func (l *serverList) nextPageSize(step int) tea.Cmd {
	current := 0
	for i, s := range pageSizes {
		if s == l.limit {
			current = i
			break
		}
	}
	next := current + step
	if next < 0 || next >= len(pageSizes) {
		return nil
	}
	return l.setPageSize(pageSizes[next])
}

// toggleSort advances the sort cycle for column i and refetches.
func (l *serverList) toggleSort(i int) tea.Cmd {
	if i < 0 || i >= len(l.columns) || l.columns[i].sortKey == "" {
		return nil
	}
	l.sort.Toggle(l.columns[i].sortKey)
	if l.ready {
		l.table.SetColumns(l.tableColumns())
	}
	return l.refresh()
}

func (l *serverList) nextPage() tea.Cmd {
	if !l.pg.HasNext() {
		return nil
	}
	l.page++
	return l.refresh()
}

func (l *serverList) prevPage() tea.Cmd {
	if !l.pg.HasPrev() {
		return nil
	}
	l.page--
	return l.refresh()
}

func (l *serverList) handleLoaded(msg pageLoadedMsg) {
	if msg.seq != l.seq {
		return // stale response from a superseded request
	}
	l.loading = false
	l.loadErr = nil
	l.rows = msg.rows
	l.pg = msg.pg
	l.haveRows = true
	if l.ready {
		l.table.SetRows(l.rows)
	}
}

func (l *serverList) handleError(msg pageErrorMsg) {
	if msg.seq != l.seq {
		return
	}
	l.loading = false
	l.loadErr = msg.err
}

// update handles input for this list. The second return reports
// whether the message was consumed.
func (l *serverList) update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case pageLoadedMsg:
		if msg.listID != l.id {
			return nil, false
		}
		l.handleLoaded(msg)
		return nil, true

	case pageErrorMsg:
		if msg.listID != l.id {
			return nil, false
		}
		l.handleError(msg)
		return nil, true

	case spinner.TickMsg:
		if !l.loading {
			return nil, false
		}
		var cmd tea.Cmd
		l.spin, cmd = l.spin.Update(msg)
		return cmd, true

	case tea.KeyPressMsg:
		return l.handleKey(msg)
	}

	return nil, false
}

func (l *serverList) handleKey(msg tea.KeyPressMsg) (tea.Cmd, bool) {
	key := msg.String()

	if l.editing >= 0 {
		switch key {
		case "tab":
			l.focusInput((l.editing + 1) % len(l.inputs))
			return nil, true
		case "shift+tab":
			l.focusInput((l.editing - 1 + len(l.inputs)) % len(l.inputs))
			return nil, true
		case "enter":
			l.blurInputs()
			return l.applyFilters(), true
		case "esc":
			l.blurInputs()
			return nil, true
		default:
			var cmd tea.Cmd
			l.inputs[l.editing], cmd = l.inputs[l.editing].Update(msg)
			return cmd, true
		}
	}

	switch key {
	case "/":
		if len(l.inputs) > 0 {
			l.focusInput(0)
			return nil, true
		}
	case "[":
		return l.prevPage(), true
	case "]":
		return l.nextPage(), true
	case "+", "=":
		return l.nextPageSize(1), true
	case "-":
		return l.nextPageSize(-1), true
	case "r":
		return l.refresh(), true
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return l.toggleSort(int(key[0]-'0') - 1), true
	}

	if l.ready {
		var cmd tea.Cmd
		l.table, cmd = l.table.Update(msg)
		return cmd, true
	}
	return nil, false
}

func (l *serverList) focusInput(i int) {
	l.editing = i
	for j := range l.inputs {
		if j == i {
			l.inputs[j].Focus()
		} else {
			l.inputs[j].Blur()
		}
	}
}

func (l *serverList) blurInputs() {
	l.editing = -1
	for j := range l.inputs {
		l.inputs[j].Blur()
	}
}

func (l *serverList) view() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(l.title))
	b.WriteString("\n")
	b.WriteString(l.renderFilters())
	b.WriteString("\n")

	switch {
	case l.loading && !l.haveRows:
		b.WriteString(fmt.Sprintf("\n %s loading...\n", l.spin.View()))
	case l.loadErr != nil:
		// a failed fetch is not an empty result; show it as such
		b.WriteString("\n" + ErrorStyle.Render(fmt.Sprintf(" could not load data: %v", l.loadErr)) + "\n")
		b.WriteString(HelpStyle.Render(" press r to retry") + "\n")
	case l.haveRows && len(l.rows) == 0:
		b.WriteString("\n" + SubtitleStyle.Render(" no matching records") + "\n")
	case l.ready:
		b.WriteString(l.table.View())
		b.WriteString("\n")
	}

	b.WriteString(l.renderPagination())
	b.WriteString("\n")
	b.WriteString(l.renderHelp())
	return b.String()
}

func (l *serverList) renderFilters() string {
	if len(l.inputs) == 0 {
		return ""
	}

	parts := make([]string, 0, len(l.inputs))
	keys := l.filterKeys()
	for i := range l.inputs {
		label := FilterLabelStyle
		if l.editing == i || l.filters[keys[i]] != "" {
			label = FilterActiveStyle
		}
		parts = append(parts, label.Render(l.inputs[i].Placeholder+":")+" "+l.inputs[i].View())
	}
	return strings.Join(parts, "  ")
}

func (l *serverList) renderPagination() string {
	prev := "[ prev"
	next := "next ]"
	if !l.pg.HasPrev() {
		prev = SubtitleStyle.Render(prev)
	} else {
		prev = HelpKeyStyle.Render(prev)
	}
	if !l.pg.HasNext() {
		next = SubtitleStyle.Render(next)
	} else {
		next = HelpKeyStyle.Render(next)
	}

	pageInfo := ""
	if l.pg.LastPage > 0 {
		pageInfo = fmt.Sprintf("page %d / %d · %d records", l.pg.CurrentPage, l.pg.LastPage, l.pg.Total)
	} else {
		pageInfo = fmt.Sprintf("page %d", l.page)
	}

	loading := ""
	if l.loading && l.haveRows {
		loading = " " + l.spin.View()
	}

	return fmt.Sprintf("%s  %s  %s  · %d rows%s", prev, pageInfo, next, l.limit, loading)
}

func (l *serverList) renderHelp() string {
	return HelpStyle.Render("/: filter · enter: apply · 1-9: sort · [ ]: page · +/-: rows · r: reload · m: menu · q: quit")
}

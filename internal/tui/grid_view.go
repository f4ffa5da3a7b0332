package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/oikos/internal/prefs"
	"github.com/alexanderramin/oikos/internal/tabling"
	"github.com/alexanderramin/oikos/internal/tabling/grid"
)

const cellWidth = 14

// gridView is the spreadsheet-like budget table. It renders the session's
// row array and translates key gestures into table change events.
type gridView struct {
	session *TableSession
	store   prefs.Store
	key     prefs.TableKey
	title   string

	cursor  grid.CellPosition
	hidden  map[string]bool
	editing bool
	input   textinput.Model

	clip string // cell/block clipboard, tab-and-newline separated
	cut  grid.CutBuffer

	menuOpen   bool
	menuItems  []grid.MenuItem
	menuCursor int

	groupForm *huh.Form
	groupName string

	width, height int
	status        string
}

// NewGridView creates the grid over an initialized session. The first fetch
// fires from Init.
func NewGridView(session *TableSession, store prefs.Store, key prefs.TableKey, title string) tea.Model {
	v := &gridView{
		session: session,
		store:   store,
		key:     key,
		title:   title,
		hidden:  map[string]bool{},
	}
	if store != nil {
		if p, err := store.LoadTablePrefs(context.Background(), key); err == nil {
			for _, f := range p.HiddenColumns {
				v.hidden[f] = true
			}
			v.session.Reducer.Assembler.Ordering = p.Ordering
		}
	}
	return v
}

var _ grid.Adapter = (*gridView)(nil)

// Rows implements grid.Adapter.
func (v *gridView) Rows() []tabling.Row {
	return v.session.State.Data
}

// SetColumnVisibility implements grid.Adapter.
func (v *gridView) SetColumnVisibility(field string, visible bool) {
	if visible {
		delete(v.hidden, field)
	} else {
		v.hidden[field] = true
	}
	v.clampCursor()
}

// RefreshRows implements grid.Adapter. Bubbletea redraws the whole view
// each frame, so a targeted refresh is a no-op.
func (v *gridView) RefreshRows([]tabling.RowID) {}

func (v *gridView) manager() *tabling.RowManager {
	return v.session.Reducer.Assembler.Manager
}

// visibleColumns returns the read-capable, non-hidden columns in order.
func (v *gridView) visibleColumns() []tabling.Column {
	var out []tabling.Column
	for _, col := range v.manager().Columns {
		if col.CanRead() && !v.hidden[col.Field] {
			out = append(out, col)
		}
	}
	return out
}

func (v *gridView) Init() tea.Cmd {
	return tea.Batch(
		v.session.WaitForEvent(),
		func() tea.Msg {
			v.session.Coordinator.Fetch(context.Background())
			return nil
		},
	)
}

func (v *gridView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		return v, nil

	case remoteEventMsg:
		v.session.ApplyRemote(msg.Event)
		v.clampCursor()
		return v, v.session.WaitForEvent()

	case cellErrorsMsg:
		v.session.RecordCellErrors(msg.Errors)
		v.status = fmt.Sprintf("%d cell(s) rejected by the server", len(msg.Errors))
		return v, v.session.WaitForEvent()

	case tea.KeyMsg:
		if v.groupForm != nil {
			return v.updateGroupForm(msg)
		}
		if v.menuOpen {
			return v.updateMenu(msg)
		}
		if v.editing {
			return v.updateEditor(msg)
		}
		return v.updateGrid(msg)
	}

	if v.groupForm != nil {
		form, cmd := v.groupForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			v.groupForm = f
		}
		return v, cmd
	}
	return v, nil
}

func (v *gridView) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	data := v.session.State.Data
	cols := v.visibleColumns()
	v.status = ""

	switch msg.String() {
	case "q", "ctrl+c":
		v.savePrefs()
		return v, tea.Quit

	case "up", "k":
		pos, _ := grid.NextVertical(data, v.cursor, -1)
		v.cursor = pos
	case "down", "j":
		pos, sig := grid.NextVertical(data, v.cursor, 1)
		v.cursor = pos
		if sig == grid.SignalNewRowRequired {
			v.addRowAtEnd(ctx)
		}
	case "left", "h":
		if v.cursor.Col > 0 {
			v.cursor.Col--
		}
	case "right", "l":
		if v.cursor.Col < len(cols)-1 {
			v.cursor.Col++
		}
	case "tab":
		pos, sig := grid.NextHorizontal(data, cols, v.cursor)
		v.cursor = pos
		if sig == grid.SignalNewRowRequired {
			v.addRowAtEnd(ctx)
		}

	case "enter":
		v.beginEdit()

	case "y":
		if row, col, ok := v.cell(); ok {
			v.clip = grid.CopyValue(col, row)
			v.status = "copied"
		}
	case "d":
		v.cutCell(ctx)
	case "p":
		v.paste(ctx)
	case "u":
		if change, ok := v.cut.Restore(v.rowID(), v.currentField()); ok {
			v.session.Apply(ctx, tabling.DataChangeEvent{Changes: []tabling.RowChange{change}})
			v.status = "restored"
		}

	case "o":
		v.addRowAtEnd(ctx)
	case "x":
		if row, _, ok := v.cell(); ok {
			v.session.Apply(ctx, tabling.RowDeleteEvent{IDs: []tabling.RowID{row.RowID()}})
			v.clampCursor()
		}

	case "m":
		if row, _, ok := v.cell(); ok {
			v.menuItems = grid.RowMenu(v.session.State, v.manager(), row)
			if len(v.menuItems) > 0 {
				v.menuOpen = true
				v.menuCursor = 0
			}
		}
	case "G":
		v.openGroupForm()
		return v, v.groupForm.Init()

	case "H":
		if len(cols) > 1 {
			v.SetColumnVisibility(cols[v.cursor.Col].Field, false)
		}
	case "s":
		v.toggleSort()

	case "r":
		v.session.Coordinator.Fetch(ctx)
	}
	return v, nil
}

func (v *gridView) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.editing = false
		return v, nil
	case "enter", "tab":
		v.commitEdit()
		data := v.session.State.Data
		if msg.String() == "tab" {
			pos, _ := grid.NextHorizontal(data, v.visibleColumns(), v.cursor)
			v.cursor = pos
		} else {
			pos, _ := grid.NextVertical(data, v.cursor, 1)
			v.cursor = pos
		}
		return v, nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *gridView) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.menuOpen = false
	case "up", "k":
		if v.menuCursor > 0 {
			v.menuCursor--
		}
	case "down", "j":
		if v.menuCursor < len(v.menuItems)-1 {
			v.menuCursor++
		}
	case "enter":
		item := v.menuItems[v.menuCursor]
		v.menuOpen = false
		v.session.Apply(context.Background(), item.Event)
		v.clampCursor()
	}
	return v, nil
}

func (v *gridView) updateGroupForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		v.groupForm = nil
		return v, nil
	}
	form, cmd := v.groupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		v.groupForm = f
	}
	if v.groupForm.State == huh.StateCompleted {
		name := strings.TrimSpace(v.groupName)
		v.groupForm = nil
		if name != "" {
			color := groupColorFor(len(v.session.State.Groups))
			v.session.Coordinator.SaveGroup(context.Background(), name, color, nil)
		}
		return v, nil
	}
	return v, cmd
}

// beginEdit opens the inline editor on the focused cell when it is writable.
func (v *gridView) beginEdit() {
	row, col, ok := v.cell()
	if !ok || !col.CanWrite() || !tabling.Editable(row) {
		return
	}
	input := textinput.New()
	input.SetValue(grid.CopyValue(col, row))
	input.Focus()
	input.CharLimit = 64
	v.input = input
	v.editing = true
}

func (v *gridView) commitEdit() {
	v.editing = false
	row, col, ok := v.cell()
	if !ok {
		return
	}
	text := v.input.Value()
	var value any = text
	if col.ParseClipboard != nil {
		parsed, ok := col.ParseClipboard(text)
		if !ok {
			v.status = fmt.Sprintf("invalid value for %s: %q", col.Field, text)
			return
		}
		value = parsed
	}
	change := tabling.RowChange{
		ID: row.RowID(),
		Data: tabling.RowChangeData{
			col.Field: {OldValue: row.RowData()[col.Field], NewValue: value},
		},
	}
	v.session.Apply(context.Background(), tabling.DataChangeEvent{Changes: []tabling.RowChange{change}})
}

func (v *gridView) cutCell(ctx context.Context) {
	row, col, ok := v.cell()
	if !ok || !col.CanWrite() || !tabling.Editable(row) {
		return
	}
	prior := row.RowData()[col.Field]
	v.clip = grid.CopyValue(col, row)
	v.cut.Record(row.RowID(), col.Field, prior)
	change := tabling.RowChange{
		ID:   row.RowID(),
		Data: tabling.RowChangeData{col.Field: {OldValue: prior, NewValue: col.NullValue}},
	}
	v.session.Apply(ctx, tabling.DataChangeEvent{Changes: []tabling.RowChange{change}})
	v.status = "cut"
}

func (v *gridView) paste(ctx context.Context) {
	block := grid.ParseBlock(v.clip)
	if block == nil {
		return
	}
	result, err := grid.BuildPaste(v.session.State.Data, v.visibleColumns(), v.cursor, block, nil)
	if err != nil {
		v.status = "paste aborted: wider than the writable columns here"
		return
	}
	if len(result.Changes) > 0 {
		v.session.Apply(ctx, tabling.DataChangeEvent{Changes: result.Changes})
	}
	if len(result.Adds) > 0 {
		rows := make([]tabling.PlaceholderRow, len(result.Adds))
		for i, data := range result.Adds {
			rows[i] = v.manager().CreatePlaceholder(data, nil)
		}
		v.session.Apply(ctx, tabling.RowAddEvent{Rows: rows})
		// Pasted rows may already be complete enough to create.
		v.session.submitReadyPlaceholders(ctx)
	}
}

func (v *gridView) addRowAtEnd(ctx context.Context) {
	ph := v.manager().CreatePlaceholder(nil, nil)
	v.session.Apply(ctx, tabling.RowAddEvent{Rows: []tabling.PlaceholderRow{ph}})
	if idx := indexOfRow(v.session.State.Data, ph.ID); idx >= 0 {
		v.cursor.Row = idx
	}
}

func (v *gridView) openGroupForm() {
	v.groupName = ""
	v.groupForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Group name").
				Placeholder("Crew").
				Value(&v.groupName),
		),
	).WithTheme(oikosHuhTheme()).WithShowHelp(false)
}

func (v *gridView) toggleSort() {
	cols := v.visibleColumns()
	if v.cursor.Col >= len(cols) {
		return
	}
	field := cols[v.cursor.Col].Field
	asm := v.session.Reducer.Assembler

	switch {
	case len(asm.Ordering) == 1 && asm.Ordering[0].Field == field && asm.Ordering[0].Ascending:
		asm.Ordering = []tabling.FieldOrder{{Field: field, Ascending: false}}
	case len(asm.Ordering) == 1 && asm.Ordering[0].Field == field:
		asm.Ordering = nil
	default:
		asm.Ordering = []tabling.FieldOrder{{Field: field, Ascending: true}}
	}

	// Rebuild locally from the cached models; the server order is only a
	// tiebreaker.
	st := v.session.State
	v.session.ApplyRemote(tabling.ResponseEvent{Models: st.Models, Groups: st.Groups})
	v.clampCursor()
}

func (v *gridView) savePrefs() {
	if v.store == nil {
		return
	}
	var hidden []string
	for f, h := range v.hidden {
		if h {
			hidden = append(hidden, f)
		}
	}
	p := prefs.TablePrefs{
		HiddenColumns: hidden,
		Ordering:      v.session.Reducer.Assembler.Ordering,
	}
	if err := v.store.SaveTablePrefs(context.Background(), v.key, p); err != nil {
		v.status = fmt.Sprintf("saving preferences: %v", err)
	}
}

func (v *gridView) cell() (tabling.Row, tabling.Column, bool) {
	data := v.session.State.Data
	cols := v.visibleColumns()
	if v.cursor.Row < 0 || v.cursor.Row >= len(data) || v.cursor.Col < 0 || v.cursor.Col >= len(cols) {
		return nil, tabling.Column{}, false
	}
	return data[v.cursor.Row], cols[v.cursor.Col], true
}

func (v *gridView) rowID() tabling.RowID {
	if row, _, ok := v.cell(); ok {
		return row.RowID()
	}
	return tabling.RowID{}
}

func (v *gridView) currentField() string {
	if _, col, ok := v.cell(); ok {
		return col.Field
	}
	return ""
}

func (v *gridView) clampCursor() {
	data := v.session.State.Data
	if v.cursor.Row >= len(data) {
		v.cursor.Row = len(data) - 1
	}
	if v.cursor.Row < 0 {
		v.cursor.Row = 0
	}
	cols := v.visibleColumns()
	if v.cursor.Col >= len(cols) {
		v.cursor.Col = len(cols) - 1
	}
	if v.cursor.Col < 0 {
		v.cursor.Col = 0
	}
}

func (v *gridView) View() string {
	var b strings.Builder

	b.WriteString(styleHeader.Render(v.title))
	if v.session.State.Loading {
		b.WriteString(styleDim.Render("  loading…"))
	} else if v.session.Coordinator.Busy() {
		b.WriteString(stylePending.Render("  saving…"))
	}
	b.WriteString("\n")

	cols := v.visibleColumns()
	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = styleHeader.Render(pad(col.Field))
	}
	b.WriteString(strings.Join(headers, " "))
	b.WriteString("\n")

	for ri, row := range v.session.State.Data {
		b.WriteString(v.renderRow(ri, row, cols))
		b.WriteString("\n")
	}

	if v.menuOpen {
		b.WriteString("\n")
		for i, item := range v.menuItems {
			if i == v.menuCursor {
				b.WriteString(styleMenuSel.Render("> " + item.Label))
			} else {
				b.WriteString(styleMenuItem.Render(item.Label))
			}
			b.WriteString("\n")
		}
	}
	if v.groupForm != nil {
		b.WriteString("\n")
		b.WriteString(v.groupForm.View())
	}

	b.WriteString("\n")
	if v.status != "" {
		b.WriteString(styleStatus.Render(v.status))
		b.WriteString("\n")
	}
	b.WriteString(styleDim.Render("enter edit · tab next · y/d/p copy/cut/paste · o add · x delete · m menu · G group · s sort · H hide · r refresh · q quit"))
	return b.String()
}

func (v *gridView) renderRow(ri int, row tabling.Row, cols []tabling.Column) string {
	switch r := row.(type) {
	case tabling.GroupRow:
		total := grid.CopyValue(columnFor(cols, "estimated"), tabling.ModelRow{Data: r.Data})
		label := fmt.Sprintf("▸ %s", r.Name)
		if total != "" {
			label += "  " + total
		}
		return styleGroup.Render(label)
	case tabling.FooterRow:
		return styleFooter.Render(pad("total"))
	}

	cells := make([]string, len(cols))
	for ci, col := range cols {
		if v.editing && ri == v.cursor.Row && ci == v.cursor.Col {
			cells[ci] = styleEditing.Render(pad(v.input.View()))
			continue
		}
		text := grid.CopyValue(col, row)
		style := styleCell
		if _, bad := v.session.CellErrors[CellKey{Row: row.RowID(), Field: col.Field}]; bad {
			style = styleCellErr
		} else if _, isPh := row.(tabling.PlaceholderRow); isPh {
			style = stylePending
		}
		if ri == v.cursor.Row && ci == v.cursor.Col {
			style = styleCursor
		}
		cells[ci] = style.Render(pad(text))
	}
	return strings.Join(cells, " ")
}

func pad(s string) string {
	if lipgloss.Width(s) > cellWidth {
		return s[:cellWidth-1] + "…"
	}
	return s + strings.Repeat(" ", cellWidth-lipgloss.Width(s))
}

func columnFor(cols []tabling.Column, field string) tabling.Column {
	for _, c := range cols {
		if c.Field == field {
			return c
		}
	}
	return tabling.Column{Field: field}
}

func indexOfRow(data []tabling.Row, id tabling.RowID) int {
	for i, r := range data {
		if r.RowID() == id {
			return i
		}
	}
	return -1
}

// groupColors is the rotation new groups draw their color from.
var groupColors = []string{"#8ec07c", "#fabd2f", "#83a598", "#d3869b", "#fe8019", "#b8bb26"}

// groupColorFor cycles the palette so fresh groups get distinct colors.
func groupColorFor(n int) string {
	return groupColors[n%len(groupColors)]
}

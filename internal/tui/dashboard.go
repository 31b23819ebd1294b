package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/martinsuchenak/circuits/internal/client"
	"github.com/martinsuchenak/circuits/internal/log"
	"github.com/martinsuchenak/circuits/internal/model"
	"github.com/martinsuchenak/circuits/internal/table"
)

const (
	minColumnWidth = 4
	maxColumnWidth = 28
)

var pageSizes = []int{5, 10, 25, 50, 100}

type dashMode int

const (
	modeBrowse dashMode = iota
	modeFilter
	modeImport
	modeColumns
)

type circuitsLoadedMsg struct {
	token uint64
	res   model.Result[[]model.Circuit]
}

type exportDoneMsg struct {
	res model.Result[[]byte]
}

type importDoneMsg struct {
	path string
	res  model.Result[string]
}

type dashboard struct {
	env     *env
	gen     client.Generation
	records []model.Circuit
	state   table.State
	view    table.View
	tbl     btable.Model
	col     int
	mode    dashMode
	input   textinput.Model
	pick    int
	loading bool
	loaded  bool
}

func newDashboard(e *env) *dashboard {
	in := textinput.New()
	in.Width = 40

	d := &dashboard{
		env:   e,
		state: table.DefaultState(),
		tbl:   btable.New(btable.WithFocused(true)),
		input: in,
	}
	d.project()
	return d
}

func (d *dashboard) Init() tea.Cmd {
	return d.refresh()
}

// refresh fetches the full record set. A newer refresh supersedes an older one.
func (d *dashboard) refresh() tea.Cmd {
	ctx, token := d.gen.Begin(context.Background())
	d.loading = true
	c := d.env.client
	return func() tea.Msg {
		return circuitsLoadedMsg{token: token, res: c.ListCircuits(ctx)}
	}
}

func (d *dashboard) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case circuitsLoadedMsg:
		if !d.gen.Current(msg.token) {
			log.Debug("Dropping stale circuit list", "token", msg.token)
			return d, nil
		}
		d.gen.Done(msg.token)
		d.loading = false
		if f, failed := msg.res.Failure(); failed {
			return d, d.env.failed(f, "Failed to load circuits: ")
		}
		d.records, _ = msg.res.Get()
		d.loaded = true
		d.project()
		return d, nil

	case exportDoneMsg:
		data, ok := msg.res.Get()
		if !ok {
			f, _ := msg.res.Failure()
			return d, d.env.failed(f, "")
		}
		path, err := client.SaveExport(d.env.exportDir, data, d.env.now())
		if err != nil {
			log.Error("Failed to save export", "error", err)
			return d, toast(toastError, "Failed to save CSV: "+err.Error())
		}
		return d, toast(toastSuccess, "Exported to "+path)

	case importDoneMsg:
		if f, failed := msg.res.Failure(); failed {
			return d, d.env.failed(f, "Import failed: ")
		}
		text, _ := msg.res.Get()
		return d, tea.Batch(toast(toastSuccess, text), d.refresh())

	case tea.KeyMsg:
		switch d.mode {
		case modeFilter:
			return d.updateFilter(msg)
		case modeImport:
			return d.updateImport(msg)
		case modeColumns:
			return d.updateColumns(msg)
		}
		return d.updateBrowse(msg)
	}
	return d, nil
}

func (d *dashboard) updateBrowse(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return d, tea.Quit
	case "/":
		d.mode = modeFilter
		d.input.Placeholder = "filter " + d.state.Filter.Field
		d.input.SetValue(d.state.Filter.Pattern)
		d.input.CursorEnd()
		return d, d.input.Focus()
	case "f":
		d.state = d.state.WithFilter(nextField(d.state.Filter.Field), d.state.Filter.Pattern)
		d.project()
	case "[":
		d.col = max(d.col-1, 0)
		d.project()
	case "]":
		d.col = min(d.col+1, len(d.view.Columns)-1)
		d.project()
	case "s", "S":
		if field, ok := d.focusedColumn(); ok {
			d.state = d.state.ToggleSort(field, msg.String() == "S")
			d.project()
		}
	case "left", "p":
		d.state = d.state.PrevPage(d.view)
		d.tbl.SetCursor(0)
		d.project()
	case "right", "n":
		d.state = d.state.NextPage(d.view)
		d.tbl.SetCursor(0)
		d.project()
	case "+", "=":
		d.state = d.state.WithPageSize(stepPageSize(d.view.PageSize, 1))
		d.project()
	case "-":
		d.state = d.state.WithPageSize(stepPageSize(d.view.PageSize, -1))
		d.project()
	case "v":
		d.mode = modeColumns
		d.pick = 0
	case "c":
		return d, d.copySelected()
	case "enter":
		if c, ok := d.selected(); ok {
			d.gen.Cancel()
			d.loading = false
			return d, navigate(newDetail(d.env, d, c.ID))
		}
	case "a":
		d.gen.Cancel()
		d.loading = false
		return d, navigate(newCreate(d.env, d))
	case "e":
		return d, d.export()
	case "i":
		d.mode = modeImport
		d.input.Placeholder = "path/to/circuits.csv"
		d.input.SetValue("")
		return d, d.input.Focus()
	case "r":
		d.gen.Cancel()
		d.loading = false
		return d, navigate(newReports(d.env, d))
	case "R":
		return d, d.refresh()
	case "L":
		d.gen.Cancel()
		d.env.client.Logout()
		return d, tea.Batch(navigate(newLogin(d.env, "")), toast(toastInfo, "Logged out"))
	default:
		var cmd tea.Cmd
		d.tbl, cmd = d.tbl.Update(msg)
		return d, cmd
	}
	return d, nil
}

func (d *dashboard) updateFilter(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		d.mode = modeBrowse
		d.input.Blur()
		return d, nil
	case "esc":
		d.mode = modeBrowse
		d.input.Blur()
		d.state = d.state.WithFilter(d.state.Filter.Field, "")
		d.project()
		return d, nil
	}

	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	if v := d.input.Value(); v != d.state.Filter.Pattern {
		d.state = d.state.WithFilter(d.state.Filter.Field, v)
		d.tbl.SetCursor(0)
		d.project()
	}
	return d, cmd
}

func (d *dashboard) updateImport(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		d.mode = modeBrowse
		d.input.Blur()
		path := strings.TrimSpace(d.input.Value())
		if path == "" {
			return d, nil
		}
		return d, d.importFile(path)
	case "esc":
		d.mode = modeBrowse
		d.input.Blur()
		return d, nil
	}

	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	return d, cmd
}

func (d *dashboard) updateColumns(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "esc", "v", "q":
		d.mode = modeBrowse
	case "up", "k":
		d.pick = max(d.pick-1, 0)
	case "down", "j":
		d.pick = min(d.pick+1, len(model.Fields)-1)
	case " ", "enter", "x":
		d.state = d.state.ToggleColumn(model.Fields[d.pick])
		d.project()
	}
	return d, nil
}

func (d *dashboard) copySelected() tea.Cmd {
	c, ok := d.selected()
	if !ok {
		return toast(toastError, "No circuit selected")
	}
	if err := clipboard.WriteAll(c.CktID); err != nil {
		log.Warn("Clipboard unavailable", "error", err)
		return toast(toastError, "Failed to copy to clipboard")
	}
	return toast(toastSuccess, fmt.Sprintf("Copied %q to clipboard", c.CktID))
}

func (d *dashboard) export() tea.Cmd {
	c := d.env.client
	return func() tea.Msg {
		return exportDoneMsg{res: c.ExportCircuits(context.Background())}
	}
}

func (d *dashboard) importFile(path string) tea.Cmd {
	c := d.env.client
	return func() tea.Msg {
		u, f, err := client.OpenUpload(path)
		if err != nil {
			return importDoneMsg{path: path, res: model.Fail[string](model.FailureValidation, err.Error())}
		}
		defer f.Close()
		return importDoneMsg{path: path, res: c.ImportCircuits(context.Background(), u)}
	}
}

func (d *dashboard) selected() (model.Circuit, bool) {
	i := d.tbl.Cursor()
	if i < 0 || i >= len(d.view.Rows) {
		return model.Circuit{}, false
	}
	return d.view.Rows[i], true
}

func (d *dashboard) focusedColumn() (string, bool) {
	if d.col < 0 || d.col >= len(d.view.Columns) {
		return "", false
	}
	return d.view.Columns[d.col], true
}

// project recomputes the visible page and pushes it into the table widget.
func (d *dashboard) project() {
	d.view = table.Project(d.records, d.state)
	d.col = max(min(d.col, len(d.view.Columns)-1), 0)

	widths := make([]int, len(d.view.Columns))
	cols := make([]btable.Column, len(d.view.Columns))
	for i, f := range d.view.Columns {
		cols[i].Title = d.columnTitle(i, f)
		widths[i] = len(cols[i].Title)
	}

	rows := make([]btable.Row, len(d.view.Rows))
	for r, c := range d.view.Rows {
		row := make(btable.Row, len(d.view.Columns))
		for i, f := range d.view.Columns {
			row[i], _ = c.Get(f)
			widths[i] = max(widths[i], len(row[i]))
		}
		rows[r] = row
	}
	for i := range cols {
		cols[i].Width = min(max(widths[i], minColumnWidth), maxColumnWidth)
	}

	cursor := d.tbl.Cursor()
	d.tbl.SetRows(nil)
	d.tbl.SetColumns(cols)
	d.tbl.SetRows(rows)
	d.tbl.SetHeight(d.view.PageSize + 1)
	d.tbl.SetCursor(min(cursor, max(len(rows)-1, 0)))
}

func (d *dashboard) columnTitle(i int, field string) string {
	title := model.Header(field)
	if desc, prio := d.state.SortDirection(field); prio > 0 {
		arrow := "▲"
		if desc {
			arrow = "▼"
		}
		if len(d.state.Sort) > 1 {
			arrow += fmt.Sprint(prio)
		}
		title += " " + arrow
	}
	if i == d.col {
		title = "›" + title
	}
	return title
}

func nextField(field string) string {
	i := slices.Index(model.AllFields, field)
	return model.AllFields[(i+1)%len(model.AllFields)]
}

func stepPageSize(current, dir int) int {
	i := slices.Index(pageSizes, current)
	if i < 0 {
		i, _ = slices.BinarySearch(pageSizes, current)
		if dir > 0 {
			i--
		}
	}
	return pageSizes[max(min(i+dir, len(pageSizes)-1), 0)]
}

func (d *dashboard) View() string {
	var b strings.Builder

	sess := d.env.client.Session()
	header := "Circuits"
	if u := sess.Username(); u != "" {
		header += fmt.Sprintf("  %s (%s)", u, sess.Role())
	}
	b.WriteString(theme.title.Render(header) + "\n")

	status := fmt.Sprintf("%d of %d circuits", d.view.Filtered, d.view.Total)
	if d.loading {
		status += "  loading..."
	}
	b.WriteString(theme.info.Render(status) + "\n")

	filter := fmt.Sprintf("Filter %s", d.state.Filter.Field)
	if d.state.Filter.Pattern != "" {
		filter += fmt.Sprintf(" contains %q", d.state.Filter.Pattern)
	}
	b.WriteString(theme.label.Render(filter))
	if len(d.state.Sort) > 0 {
		keys := make([]string, len(d.state.Sort))
		for i, k := range d.state.Sort {
			dir := "asc"
			if k.Desc {
				dir = "desc"
			}
			keys[i] = k.Field + " " + dir
		}
		b.WriteString(theme.label.Render("   Sort " + strings.Join(keys, ", ")))
	}
	b.WriteString("\n\n")

	if d.loaded && d.view.Filtered == 0 {
		b.WriteString(theme.hint.Render("No circuits match") + "\n")
	} else {
		b.WriteString(d.tbl.View() + "\n")
	}
	b.WriteString(theme.help.Render(fmt.Sprintf("Page %d/%d, %d per page", d.view.PageIndex+1, d.view.PageCount, d.view.PageSize)))
	b.WriteString("\n\n")

	switch d.mode {
	case modeFilter:
		b.WriteString(theme.label.Render("Filter "+d.state.Filter.Field+": ") + d.input.View() + "\n")
		b.WriteString(theme.help.Render("Enter → apply | Esc → clear"))
	case modeImport:
		b.WriteString(theme.label.Render("Import CSV: ") + d.input.View() + "\n")
		b.WriteString(theme.help.Render("Enter → upload | Esc → cancel"))
	case modeColumns:
		for i, f := range model.Fields {
			mark := "[x]"
			if !slices.Contains(d.view.Columns, f) {
				mark = "[ ]"
			}
			line := fmt.Sprintf("%s %s", mark, model.Header(f))
			if i == d.pick {
				line = theme.focused.Render("› " + line)
			} else {
				line = "  " + line
			}
			b.WriteString(line + "\n")
		}
		b.WriteString(theme.help.Render("Space → toggle | Esc → done"))
	default:
		b.WriteString(theme.help.Render(
			"/ filter | f filter column | [ ] column | s/S sort | ←/→ page | +/- page size | v columns\n" +
				"Enter details | a add | c copy ckt id | e export | i import | r reports | R refresh | L logout | q quit"))
	}
	return b.String()
}

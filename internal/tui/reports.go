package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/martinsuchenak/circuits/internal/client"
	"github.com/martinsuchenak/circuits/internal/model"
)

type reportsLoadedMsg struct {
	token uint64
	res   model.Result[[]model.ImportReport]
}

type reportAckedMsg struct {
	id  string
	res model.Result[struct{}]
}

// reportsView lists import reports and lets an admin acknowledge finished imports.
type reportsView struct {
	env        *env
	back       *dashboard
	gen        client.Generation
	reports    []model.ImportReport
	cursor     int
	unseenOnly bool
	loading    bool
}

func newReports(e *env, back *dashboard) *reportsView {
	return &reportsView{env: e, back: back, unseenOnly: true}
}

func (v *reportsView) Init() tea.Cmd {
	return v.refresh()
}

func (v *reportsView) refresh() tea.Cmd {
	ctx, token := v.gen.Begin(context.Background())
	v.loading = true
	c, unseen := v.env.client, v.unseenOnly
	return func() tea.Msg {
		if unseen {
			return reportsLoadedMsg{token: token, res: c.UnseenReports(ctx)}
		}
		return reportsLoadedMsg{token: token, res: c.AllReports(ctx)}
	}
}

func (v *reportsView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsLoadedMsg:
		if !v.gen.Current(msg.token) {
			return v, nil
		}
		v.gen.Done(msg.token)
		v.loading = false
		if f, failed := msg.res.Failure(); failed {
			return v, v.env.failed(f, "Failed to load reports: ")
		}
		v.reports, _ = msg.res.Get()
		v.cursor = max(min(v.cursor, len(v.reports)-1), 0)
		return v, nil

	case reportAckedMsg:
		if f, failed := msg.res.Failure(); failed {
			return v, v.env.failed(f, "Acknowledge failed: ")
		}
		return v, tea.Batch(toast(toastSuccess, "Report acknowledged"), v.refresh())

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			v.gen.Cancel()
			return v, navigate(v.back)
		case "up", "k":
			v.cursor = max(v.cursor-1, 0)
		case "down", "j":
			v.cursor = max(min(v.cursor+1, len(v.reports)-1), 0)
		case "u":
			v.unseenOnly = !v.unseenOnly
			v.cursor = 0
			return v, v.refresh()
		case "R":
			return v, v.refresh()
		case "a", "enter":
			return v, v.acknowledge()
		}
	}
	return v, nil
}

func (v *reportsView) acknowledge() tea.Cmd {
	if v.cursor >= len(v.reports) {
		return nil
	}
	r := v.reports[v.cursor]
	if r.Type != model.ReportFinished {
		return toast(toastInfo, "Only finished imports can be acknowledged")
	}
	c := v.env.client
	return func() tea.Msg {
		return reportAckedMsg{id: r.ID, res: c.AcknowledgeReport(context.Background(), r.ID)}
	}
}

func (v *reportsView) View() string {
	var b strings.Builder

	title := "Import reports"
	if v.unseenOnly {
		title += " (unseen)"
	}
	b.WriteString(theme.title.Render(title) + "\n\n")

	switch {
	case v.loading && len(v.reports) == 0:
		b.WriteString(theme.hint.Render("Loading...") + "\n")
	case len(v.reports) == 0:
		b.WriteString(theme.hint.Render("No reports") + "\n")
	}

	for i, r := range v.reports {
		file := ""
		if r.FileName != nil {
			file = " [" + *r.FileName + "]"
		}
		style := theme.label
		if r.Type == model.ReportError {
			style = theme.error
		}
		line := fmt.Sprintf("%-8s %s%s", r.Type, r.Message, file)
		if i == v.cursor {
			b.WriteString(theme.focused.Render("› ") + style.Render(line) + "\n")
		} else {
			b.WriteString("  " + style.Render(line) + "\n")
		}
	}

	b.WriteString("\n" + theme.help.Render("↑/↓ move | a acknowledge | u unseen/all | R refresh | Esc back"))
	return b.String()
}

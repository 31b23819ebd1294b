package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/martinsuchenak/circuits/internal/client"
	"github.com/martinsuchenak/circuits/internal/editor"
	"github.com/martinsuchenak/circuits/internal/log"
	"github.com/martinsuchenak/circuits/internal/model"
)

const labelWidth = 16

type circuitLoadedMsg struct {
	token uint64
	res   model.Result[model.Circuit]
}

type circuitSavedMsg struct {
	res model.Result[model.Circuit]
}

// detailView edits one circuit through an editor.Editor. Network calls run
// as commands and their results are applied on the event loop.
type detailView struct {
	env    *env
	back   *dashboard
	ed     *editor.Editor
	gen    client.Generation
	inputs []textinput.Model
	focus  int
}

func newDetail(e *env, back *dashboard, id string) *detailView {
	return newDetailView(e, back, editor.NewForUpdate(id))
}

func newCreate(e *env, back *dashboard) *detailView {
	return newDetailView(e, back, editor.NewForCreate())
}

func newDetailView(e *env, back *dashboard, ed *editor.Editor) *detailView {
	inputs := make([]textinput.Model, len(model.Fields))
	for i, f := range model.Fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = model.Header(f)
		in.Width = 48
		inputs[i] = in
	}
	return &detailView{env: e, back: back, ed: ed, inputs: inputs}
}

func (v *detailView) Init() tea.Cmd {
	if v.ed.State() == editor.Loading {
		return v.load()
	}
	return v.inputs[v.focus].Focus()
}

func (v *detailView) load() tea.Cmd {
	ctx, token := v.gen.Begin(context.Background())
	c, id := v.env.client, v.ed.ID()
	return func() tea.Msg {
		return circuitLoadedMsg{token: token, res: c.GetCircuit(ctx, id)}
	}
}

func (v *detailView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case circuitLoadedMsg:
		if !v.gen.Current(msg.token) {
			return v, nil
		}
		v.gen.Done(msg.token)
		if err := v.ed.FinishLoad(msg.res); err != nil {
			if f, failed := msg.res.Failure(); failed {
				return v, v.env.failed(f, "Failed to load circuit: ")
			}
			return v, nil
		}
		for i, f := range model.Fields {
			v.inputs[i].SetValue(v.ed.Value(f))
		}
		return v, v.inputs[v.focus].Focus()

	case circuitSavedMsg:
		if err := v.ed.FinishSave(msg.res); err != nil {
			if f, failed := msg.res.Failure(); failed {
				return v, tea.Batch(v.env.failed(f, "Saving failed: "), v.inputs[v.focus].Focus())
			}
			log.Warn("Unexpected save result", "error", err)
			return v, nil
		}
		return v, tea.Batch(toast(toastSuccess, "Save Successful"), navigate(v.back))

	case tea.KeyMsg:
		if msg.String() == "esc" {
			v.gen.Cancel()
			if v.ed.Dirty() {
				return v, tea.Batch(navigate(v.back), toast(toastInfo, "Unsaved changes discarded"))
			}
			return v, navigate(v.back)
		}
		if s := v.ed.State(); s != editor.Ready && s != editor.Editing {
			return v, nil
		}
		switch msg.String() {
		case "tab", "down":
			return v, v.setFocus((v.focus + 1) % len(v.inputs))
		case "shift+tab", "up":
			return v, v.setFocus((v.focus + len(v.inputs) - 1) % len(v.inputs))
		case "ctrl+s":
			return v, v.save()
		}
		return v, v.edit(msg)
	}

	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	return v, cmd
}

// edit forwards a key to the focused input and copies a changed value into the draft.
func (v *detailView) edit(msg tea.KeyMsg) tea.Cmd {
	before := v.inputs[v.focus].Value()
	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	if after := v.inputs[v.focus].Value(); after != before {
		if err := v.ed.Set(model.Fields[v.focus], after); err != nil {
			return tea.Batch(cmd, toast(toastError, err.Error()))
		}
	}
	return cmd
}

func (v *detailView) setFocus(i int) tea.Cmd {
	v.inputs[v.focus].Blur()
	v.focus = i
	return v.inputs[i].Focus()
}

func (v *detailView) save() tea.Cmd {
	draft, err := v.ed.BeginSave()
	if err != nil {
		return toast(toastError, err.Error())
	}
	v.inputs[v.focus].Blur()
	c, create := v.env.client, v.ed.Creating()
	return func() tea.Msg {
		return circuitSavedMsg{res: editor.Submit(context.Background(), c, create, draft)}
	}
}

func (v *detailView) View() string {
	var b strings.Builder

	title := "New circuit"
	if !v.ed.Creating() {
		title = "Circuit " + v.ed.ID()
	}
	if v.ed.Dirty() {
		title += " *"
	}
	b.WriteString(theme.title.Render(title) + "\n\n")

	switch v.ed.State() {
	case editor.Loading:
		b.WriteString(theme.hint.Render("Loading..."))
		return b.String()
	case editor.Failed:
		b.WriteString(theme.error.Render("Failed to load circuit: "+v.ed.Message()) + "\n\n")
		b.WriteString(theme.help.Render("Esc → back"))
		return b.String()
	}

	first, last := v.window()
	for i := first; i < last; i++ {
		label := fmt.Sprintf("%-*s", labelWidth, model.Header(model.Fields[i]))
		if i == v.focus {
			label = theme.focused.Render(label)
		} else {
			label = theme.label.Render(label)
		}
		b.WriteString(label + " " + v.inputs[i].View() + "\n")
	}

	b.WriteString("\n")
	switch {
	case v.ed.State() == editor.Saving:
		b.WriteString(theme.hint.Render("Saving...") + "\n")
	case v.ed.Message() != "":
		b.WriteString(theme.error.Render(v.ed.Message()) + "\n")
	}
	b.WriteString(theme.help.Render("Tab/↓ next | Shift+Tab/↑ previous | Ctrl+S save | Esc back"))
	return b.String()
}

// window returns the range of fields that fits the terminal, keeping the
// focused field on screen.
func (v *detailView) window() (int, int) {
	n := len(v.inputs)
	rows := v.env.height - 10
	if v.env.height == 0 || rows >= n {
		return 0, n
	}
	rows = max(rows, 3)
	first := min(max(v.focus-rows/2, 0), n-rows)
	return first, first + rows
}

package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/martinsuchenak/circuits/internal/client"
	"github.com/martinsuchenak/circuits/internal/model"
)

// View is one screen of the UI. It follows Bubble Tea's Init/Update/View
// shape but returns a View from Update so screens can replace themselves.
type View interface {
	Init() tea.Cmd
	Update(tea.Msg) (View, tea.Cmd)
	View() string
}

// env is shared by every screen of one program.
type env struct {
	client    *client.Client
	exportDir string
	now       func() time.Time
	width     int
	height    int
}

type navigateMsg struct{ to View }

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

type toastMsg struct {
	kind toastKind
	text string
}

type toastExpiredMsg struct{ id int }

// authRequiredMsg sends the user back to the login screen.
type authRequiredMsg struct{ reason string }

func navigate(to View) tea.Cmd {
	return func() tea.Msg { return navigateMsg{to: to} }
}

func toast(kind toastKind, text string) tea.Cmd {
	return func() tea.Msg { return toastMsg{kind: kind, text: text} }
}

// failed turns a failure into the message the app should act on. A missing
// or rejected credential sends the user to the login screen.
func (e *env) failed(f model.Failure, prefix string) tea.Cmd {
	if f.Kind == model.FailureMissingCredential || !e.client.Session().Active() {
		return func() tea.Msg { return authRequiredMsg{reason: f.Message} }
	}
	return toast(toastError, prefix+f.Message)
}

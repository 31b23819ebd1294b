// Package tui is the interactive terminal front end: a login screen, the
// circuit table, a detail editor and the import report list.
package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/martinsuchenak/circuits/internal/client"
	"github.com/martinsuchenak/circuits/internal/log"
)

const toastTTL = 4 * time.Second

// Options configure a program.
type Options struct {
	// ExportDir receives CSV exports. Defaults to the working directory.
	ExportDir string
	// Username pre-fills the login form.
	Username string
}

// App is the root model. It owns the current screen and the toast line.
type App struct {
	env     *env
	current View
	toast   *toastMsg
	toastID int
}

// New builds the root model. With an active session the dashboard is shown
// first, otherwise the login screen.
func New(c *client.Client, opts Options) *App {
	dir := opts.ExportDir
	if dir == "" {
		dir = "."
	}
	e := &env{client: c, exportDir: dir, now: time.Now}

	var first View
	if c.Session().Active() {
		first = newDashboard(e)
	} else {
		first = newLogin(e, opts.Username)
	}
	return &App{env: e, current: first}
}

// Run starts the program on the alternate screen and blocks until it exits.
func Run(c *client.Client, opts Options) error {
	p := tea.NewProgram(New(c, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (a *App) Init() tea.Cmd {
	return a.current.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.env.width, a.env.height = msg.Width, msg.Height
	case navigateMsg:
		a.current = msg.to
		return a, a.current.Init()
	case toastMsg:
		return a, a.showToast(msg)
	case toastExpiredMsg:
		if msg.id == a.toastID {
			a.toast = nil
		}
		return a, nil
	case authRequiredMsg:
		log.Info("Credential missing or expired, returning to login", "reason", msg.reason)
		username := a.env.client.Session().Username()
		a.env.client.Logout()
		a.current = newLogin(a.env, username)
		return a, tea.Batch(a.current.Init(), a.showToast(toastMsg{kind: toastError, text: "Please log in"}))
	}

	var cmd tea.Cmd
	a.current, cmd = a.current.Update(msg)
	return a, cmd
}

func (a *App) showToast(t toastMsg) tea.Cmd {
	a.toastID++
	a.toast = &t
	id := a.toastID
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.current.View())
	if a.toast != nil {
		b.WriteString("\n\n")
		style := theme.info
		switch a.toast.kind {
		case toastSuccess:
			style = theme.success
		case toastError:
			style = theme.error
		}
		b.WriteString(style.Render(a.toast.text))
	}
	return theme.app.Render(b.String())
}

package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/martinsuchenak/circuits/internal/client"
	"github.com/martinsuchenak/circuits/internal/model"
)

const (
	loginUsername = iota
	loginPassword
	loginFields
)

var roles = []string{model.RoleUser, model.RoleAdmin}

type loginResultMsg struct {
	res model.Result[client.LoginResponse]
}

type loginView struct {
	env     *env
	inputs  []textinput.Model
	focus   int // loginFields selects the role picker
	role    int
	pending bool
}

func newLogin(e *env, username string) *loginView {
	user := textinput.New()
	user.Placeholder = "username"
	user.Width = 32
	user.SetValue(username)

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.Width = 32

	v := &loginView{env: e, inputs: []textinput.Model{user, pass}}
	if username != "" {
		v.focus = loginPassword
	}
	v.inputs[v.focus].Focus()
	return v
}

func (v *loginView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *loginView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		v.pending = false
		if f, failed := msg.res.Failure(); failed {
			return v, toast(toastError, "Login failed: "+f.Message)
		}
		return v, tea.Batch(
			navigate(newDashboard(v.env)),
			toast(toastSuccess, "Logged in as "+v.env.client.Session().Username()),
		)
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return v, tea.Quit
		case "enter":
			if v.focus < loginFields-1 {
				return v, v.setFocus(v.focus + 1)
			}
			return v, v.submit()
		case "tab", "down":
			return v, v.setFocus((v.focus + 1) % (loginFields + 1))
		case "shift+tab", "up":
			return v, v.setFocus((v.focus + loginFields) % (loginFields + 1))
		case "left", "right", " ":
			if v.focus == loginFields {
				v.role = (v.role + 1) % len(roles)
				return v, nil
			}
		}
	}

	if v.focus < loginFields {
		var cmd tea.Cmd
		v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *loginView) setFocus(i int) tea.Cmd {
	if v.focus < loginFields {
		v.inputs[v.focus].Blur()
	}
	v.focus = i
	if i < loginFields {
		return v.inputs[i].Focus()
	}
	return nil
}

func (v *loginView) submit() tea.Cmd {
	username := strings.TrimSpace(v.inputs[loginUsername].Value())
	password := v.inputs[loginPassword].Value()
	if username == "" || password == "" {
		return toast(toastError, "Username and password are required")
	}
	if v.pending {
		return nil
	}
	v.pending = true

	c := v.env.client
	req := client.LoginRequest{Username: username, Password: password, RequestedRole: roles[v.role]}
	return func() tea.Msg {
		return loginResultMsg{res: c.Login(context.Background(), req)}
	}
}

func (v *loginView) View() string {
	var b strings.Builder
	b.WriteString(theme.title.Render("Circuits: Login") + "\n\n")

	labels := []string{"Username:", "Password:"}
	for i, in := range v.inputs {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, theme.label.Render(labels[i]), in.View()))
		b.WriteString("\n\n")
	}

	b.WriteString(theme.label.Render("Role:") + " ")
	for i, r := range roles {
		item := "( ) " + r
		if i == v.role {
			item = "(•) " + r
		}
		if v.focus == loginFields && i == v.role {
			item = theme.focused.Render(item)
		}
		b.WriteString(item + "  ")
	}
	b.WriteString("\n\n")

	if v.pending {
		b.WriteString(theme.hint.Render("Signing in...") + "\n")
	}
	b.WriteString(theme.help.Render("Enter → next/submit | Tab → switch field | ←/→ → role | Esc → quit"))
	return b.String()
}

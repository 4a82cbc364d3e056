package signup

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ojterm/internal/auth"
	"github.com/fragmede/ojterm/internal/ui/login"
	"github.com/fragmede/ojterm/internal/ui/messages"
	"github.com/fragmede/ojterm/internal/ui/theme"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Padding(1, 0)
	labelStyle = theme.LabelStyle.Width(10)
)

const (
	fieldHandle = iota
	fieldEmail
	fieldPassword
	fieldConfirm
	fieldCount
)

var labels = [fieldCount]string{"Handle", "Email", "Password", "Confirm"}

// Model is the account registration form.
type Model struct {
	inputs     [fieldCount]textinput.Model
	focused    int
	errs       []string
	submitting bool
	session    *auth.Session
	reserved   func(string) bool
	width      int
	height     int
}

// New creates a signup form. reserved flags emails that may not register.
func New(session *auth.Session, reserved func(string) bool) Model {
	var inputs [fieldCount]textinput.Model
	placeholders := [fieldCount]string{"3-20 letters, digits, _", "you@example.com", "at least 6 characters", "repeat password"}
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.Width = 30
		if i >= fieldPassword {
			ti.EchoMode = textinput.EchoPassword
		}
		inputs[i] = ti
	}
	inputs[fieldHandle].CharLimit = 20
	inputs[fieldHandle].Focus()

	return Model{inputs: inputs, session: session, reserved: reserved}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m Model) form() Form {
	return Form{
		Handle:   strings.TrimSpace(m.inputs[fieldHandle].Value()),
		Email:    strings.TrimSpace(m.inputs[fieldEmail].Value()),
		Password: m.inputs[fieldPassword].Value(),
		Confirm:  m.inputs[fieldConfirm].Value(),
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			return m, m.focus((m.focused + 1) % fieldCount)
		case "shift+tab", "up":
			return m, m.focus((m.focused + fieldCount - 1) % fieldCount)
		case "ctrl+l":
			return m, func() tea.Msg { return messages.OpenLoginMsg{} }
		case "enter":
			if m.focused < fieldConfirm {
				return m, m.focus(m.focused + 1)
			}
			if m.submitting {
				return m, nil
			}
			f := m.form()
			if m.errs = Validate(f, m.reserved); len(m.errs) > 0 {
				return m, nil
			}
			m.submitting = true
			session := m.session
			return m, func() tea.Msg {
				err := session.Signup(context.Background(), f.Email, f.Password, f.Handle)
				return messages.AuthResultMsg{State: session.State(), Signup: true, Err: err}
			}
		}

	case messages.AuthResultMsg:
		m.submitting = false
		if msg.Err != nil {
			m.errs = []string{login.FailureText(msg.Err)}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m *Model) focus(i int) tea.Cmd {
	m.inputs[m.focused].Blur()
	m.focused = i
	return m.inputs[i].Focus()
}

// View renders the signup form.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Create an account"))
	sb.WriteString("\n\n")
	for i := range m.inputs {
		sb.WriteString(labelStyle.Render(labels[i]+":") + " " + m.inputs[i].View())
		sb.WriteString("\n\n")
	}

	for _, e := range m.errs {
		sb.WriteString(theme.ErrorStyle.Render(e))
		sb.WriteString("\n")
	}
	if len(m.errs) > 0 {
		sb.WriteString("\n")
	}

	if m.submitting {
		sb.WriteString("Creating account...")
	} else {
		sb.WriteString(theme.KeyStyle.Render("Enter") + " to continue, " +
			theme.KeyStyle.Render("Ctrl+L") + " to sign in instead, " +
			theme.KeyStyle.Render("Esc") + " to cancel")
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}

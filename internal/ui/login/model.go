package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/auth"
	"github.com/fragmede/ojterm/internal/ui/messages"
	"github.com/fragmede/ojterm/internal/ui/theme"
)

var titleStyle = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Padding(1, 0)

// Model is the login form view.
type Model struct {
	emailInput    textinput.Model
	passwordInput textinput.Model
	focusIndex    int
	err           string
	submitting    bool
	session       *auth.Session
	width         int
	height        int
}

// New creates a new login form.
func New(session *auth.Session) Model {
	emailInput := textinput.New()
	emailInput.Placeholder = "email"
	emailInput.Focus()
	emailInput.Width = 30

	passwordInput := textinput.New()
	passwordInput.Placeholder = "password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.Width = 30

	return Model{
		emailInput:    emailInput,
		passwordInput: passwordInput,
		session:       session,
	}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			if m.focusIndex == 0 {
				m.focusIndex = 1
				m.emailInput.Blur()
				m.passwordInput.Focus()
			} else {
				m.focusIndex = 0
				m.passwordInput.Blur()
				m.emailInput.Focus()
			}
			return m, nil
		case "ctrl+n":
			return m, func() tea.Msg { return messages.OpenSignupMsg{} }
		case "enter":
			if m.submitting {
				return m, nil
			}
			email := strings.TrimSpace(m.emailInput.Value())
			password := m.passwordInput.Value()
			if email == "" || password == "" {
				m.err = "Email and password required"
				return m, nil
			}
			m.submitting = true
			m.err = ""
			session := m.session
			return m, func() tea.Msg {
				err := session.Login(context.Background(), email, password)
				return messages.AuthResultMsg{State: session.State(), Err: err}
			}
		}

	case messages.AuthResultMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = FailureText(msg.Err)
			m.passwordInput.SetValue("")
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.emailInput, cmd = m.emailInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

// FailureText turns a login or signup error into a message for the form.
func FailureText(err error) string {
	switch {
	case errors.Is(err, api.ErrMalformedResponse):
		return "The judge sent an unexpected response. Try again later."
	case api.IsUnauthorized(err):
		return "Invalid email or password"
	case api.StatusCode(err) == http.StatusConflict:
		return "An account with that email or handle already exists"
	case api.StatusCode(err) == 0:
		return "Could not reach the judge: " + err.Error()
	}
	var he *api.HTTPError
	if errors.As(err, &he) && he.Body != "" {
		return he.Body
	}
	return err.Error()
}

// View renders the login form.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Sign in"))
	sb.WriteString("\n\n")
	sb.WriteString(theme.LabelStyle.Render("Email:"))
	sb.WriteString("\n")
	sb.WriteString(m.emailInput.View())
	sb.WriteString("\n\n")
	sb.WriteString(theme.LabelStyle.Render("Password:"))
	sb.WriteString("\n")
	sb.WriteString(m.passwordInput.View())
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(theme.ErrorStyle.Render(m.err))
		sb.WriteString("\n\n")
	}

	if m.submitting {
		sb.WriteString("Signing in...")
	} else {
		sb.WriteString(theme.KeyStyle.Render("Enter") + " to submit, " +
			theme.KeyStyle.Render("Ctrl+N") + " to create an account, " +
			theme.KeyStyle.Render("Esc") + " to cancel")
	}

	content := sb.String()
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

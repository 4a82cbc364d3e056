package userprofile

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/auth"
	"github.com/fragmede/ojterm/internal/cache"
	"github.com/fragmede/ojterm/internal/render"
	"github.com/fragmede/ojterm/internal/ui/messages"
	"github.com/fragmede/ojterm/internal/ui/theme"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Padding(1, 0)
	labelStyle = lipgloss.NewStyle().Foreground(theme.Gray).Bold(true).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(theme.White)
	adminStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(theme.Accent).Bold(true).Padding(0, 1)
)

// Model is the signed-in user's profile.
type Model struct {
	user     *api.User
	extended *auth.ExtendedProfile
	watching int
	unread   int
	width    int
	height   int
}

// New snapshots the session's identity and local counters.
func New(session *auth.Session, db *cache.DB) Model {
	m := Model{user: session.User(), extended: session.UserExtendedData()}
	if m.user != nil && db != nil {
		m.watching = db.WatchCount(m.user.ID)
		m.unread = db.UnreadNotificationCount(m.user.ID)
	}
	return m
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.VerdictMsg:
		m.unread = msg.Unread
		if m.watching > 0 {
			m.watching--
		}
	case tea.KeyMsg:
		if m.user == nil {
			return m, nil
		}
		id, handle := m.user.ID, m.user.DisplayName()
		switch msg.String() {
		case "s":
			return m, func() tea.Msg { return messages.OpenStatsMsg{UserID: id, Handle: handle} }
		case "v":
			return m, func() tea.Msg {
				return messages.OpenSubmissionsMsg{Query: api.SubmissionQuery{User: id}, Title: "My submissions"}
			}
		case "n":
			return m, func() tea.Msg { return messages.OpenNotifyMsg{} }
		case "X":
			return m, func() tea.Msg { return messages.LogoutMsg{} }
		}
	}
	return m, nil
}

// View renders the profile.
func (m Model) View() string {
	if m.user == nil {
		return titleStyle.Render("Not signed in")
	}

	var sb strings.Builder
	title := titleStyle.Render(m.user.DisplayName())
	if auth.HasAdminPrivilege(m.user.Roles) {
		title += " " + adminStyle.Render("ADMIN")
	}
	sb.WriteString(title)
	sb.WriteString("\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		sb.WriteString(labelStyle.Render(label) + valueStyle.Render(value))
		sb.WriteString("\n")
	}
	row("Handle", m.user.Handle)
	row("Name", m.user.Name)
	row("Email", m.user.Email)
	roles := make([]string, len(m.user.Roles))
	for i, r := range m.user.Roles {
		roles[i] = string(r)
	}
	row("Roles", strings.Join(roles, ", "))

	if e := m.extended; e != nil {
		sb.WriteString("\n")
		row("Department", e.Department)
		row("Permissions", strings.Join(e.Permissions, ", "))
		if !e.LastLogin.IsZero() {
			row("Last login", render.TimeAgo(e.LastLogin))
		}
		row("Theme", e.Preferences.Theme)
	}

	sb.WriteString("\n")
	row("Pending", render.Count(m.watching)+" submissions awaiting verdict")
	row("Unread", render.Count(m.unread)+" notifications")

	sb.WriteString("\n")
	sb.WriteString(theme.HintStyle.Render("s stats | v submissions | n notifications | X sign out | esc back"))
	return sb.String()
}

package notifications

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/fragmede/ojterm/internal/cache"
	"github.com/fragmede/ojterm/internal/render"
	"github.com/fragmede/ojterm/internal/ui/messages"
	"github.com/fragmede/ojterm/internal/ui/theme"
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Padding(1, 0)
	notifStyle     = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle  = lipgloss.NewStyle().Background(theme.Bar).Padding(0, 1)
	problemStyle   = lipgloss.NewStyle().Foreground(theme.White).Bold(true)
	unreadDotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
)

const limit = 50

// Model lists verdict notifications for the signed-in user.
type Model struct {
	notifications []cache.Notification
	selectedIdx   int
	userID        string
	db            *cache.DB
	width         int
	height        int
}

// New creates a notifications view for userID.
func New(db *cache.DB, userID string) Model {
	return Model{db: db, userID: userID}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Load refreshes the notification list from the database.
func (m *Model) Load() {
	list, err := m.db.Notifications(m.userID, limit)
	if err != nil {
		log.Warn().Err(err).Msg("loading notifications")
		return
	}
	m.notifications = list
	if m.selectedIdx >= len(list) {
		m.selectedIdx = max(len(list)-1, 0)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.VerdictMsg:
		m.Load()
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.selectedIdx < len(m.notifications)-1 {
				m.selectedIdx++
			}
		case "k", "up":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		case "a":
			if err := m.db.MarkAllNotificationsRead(m.userID); err != nil {
				log.Warn().Err(err).Send()
			}
			m.Load()
			return m, m.unreadChanged()
		case "enter":
			if m.selectedIdx >= 0 && m.selectedIdx < len(m.notifications) {
				n := m.notifications[m.selectedIdx]
				if !n.Read {
					if err := m.db.MarkNotificationRead(n.ID); err != nil {
						log.Warn().Err(err).Send()
					}
					m.notifications[m.selectedIdx].Read = true
				}
				return m, tea.Batch(
					m.unreadChanged(),
					func() tea.Msg { return messages.OpenSubmissionMsg{ID: n.SubmissionID} },
				)
			}
		}
	}
	return m, nil
}

func (m Model) unreadChanged() tea.Cmd {
	unread := m.UnreadCount()
	return func() tea.Msg { return messages.UnreadChangedMsg{Unread: unread} }
}

// View renders the notifications list.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Verdicts"))
	sb.WriteString("\n")

	if len(m.notifications) == 0 {
		sb.WriteString("\n  No verdicts yet. Submit a solution and it will show up here once judged.\n")
		return sb.String()
	}

	for i, n := range m.notifications {
		var line strings.Builder

		if !n.Read {
			line.WriteString(unreadDotStyle.Render("● "))
		} else {
			line.WriteString("  ")
		}

		line.WriteString(problemStyle.Render(strings.TrimSpace(n.ProblemCode + " " + n.ProblemTitle)))
		line.WriteString("  ")
		line.WriteString(theme.Badge(n.Verdict.Text(), n.Verdict.Color()))
		line.WriteString("\n  ")
		line.WriteString(theme.MetaStyle.Render(render.Duration(n.TimeUsedMs) + " | " +
			render.Memory(n.MemoryUsedKb) + " | " + render.TimeAgo(n.CreatedAt)))

		entry := line.String()
		if i == m.selectedIdx {
			entry = selectedStyle.Render(entry)
		} else {
			entry = notifStyle.Render(entry)
		}
		sb.WriteString(entry + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(theme.HintStyle.Render("enter open | a mark all read | esc back"))
	return sb.String()
}

// UnreadCount returns the number of unread notifications.
func (m Model) UnreadCount() int {
	count := 0
	for _, n := range m.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

package statusbar

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ojterm/internal/auth"
	"github.com/fragmede/ojterm/internal/ui/theme"
)

var (
	barStyle = lipgloss.NewStyle().
			Background(theme.Bar).
			Foreground(theme.White)

	activeTabStyle = lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(theme.White).
			Bold(true).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#555555")).
				Foreground(theme.Light).
				Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Background(theme.Bar).
			Foreground(lipgloss.Color("#00FF00")).
			Padding(0, 1)

	adminStyle = lipgloss.NewStyle().
			Background(theme.Bar).
			Foreground(theme.Accent).
			Bold(true).
			Padding(0, 1)

	notifyStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#FF0000")).
			Foreground(theme.White).
			Bold(true).
			Padding(0, 1)

	statusTextStyle = lipgloss.NewStyle().
			Background(theme.Bar).
			Foreground(lipgloss.Color("#AAAAAA")).
			Padding(0, 1)

	errorTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B0000")).
			Foreground(theme.White).
			Padding(0, 1)
)

// Tabs are the top-level sections shown on the left of the bar.
var Tabs = []string{"Problems", "Submissions"}

// Model is the status bar at the bottom of the screen.
type Model struct {
	width       int
	activeTab   string
	state       auth.State
	unreadCount int
	statusText  string
	statusError bool
}

// New creates a new status bar.
func New() Model {
	return Model{activeTab: Tabs[0]}
}

// SetSize sets the width.
func (m *Model) SetSize(w int) {
	m.width = w
}

// SetActiveTab highlights the named section. Unknown names highlight nothing.
func (m *Model) SetActiveTab(name string) {
	m.activeTab = name
}

// SetSession records the session snapshot to display.
func (m *Model) SetSession(st auth.State) {
	m.state = st
}

// SetUnread sets the unread notification count.
func (m *Model) SetUnread(count int) {
	m.unreadCount = count
}

// SetStatus sets a temporary status message.
func (m *Model) SetStatus(text string, isError bool) {
	m.statusText = text
	m.statusError = isError
}

// Update is a no-op for the status bar.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	var tabsStr string
	for _, t := range Tabs {
		if t == m.activeTab {
			tabsStr += activeTabStyle.Render(t)
		} else {
			tabsStr += inactiveTabStyle.Render(t)
		}
	}

	var right string
	if m.statusText != "" {
		if m.statusError {
			right += errorTextStyle.Render(m.statusText)
		} else {
			right += statusTextStyle.Render(m.statusText)
		}
	}
	if m.unreadCount > 0 {
		right += notifyStyle.Render(fmt.Sprintf(" %d ", m.unreadCount))
	}
	switch m.state.Phase() {
	case auth.PhaseInitializing:
		right += statusTextStyle.Render("restoring session...")
	case auth.PhaseAuthenticated:
		if m.state.IsAdmin() {
			right += adminStyle.Render("admin")
		}
		right += userStyle.Render(m.state.User().DisplayName())
	default:
		right += statusTextStyle.Render("L:login")
	}

	tabsWidth := lipgloss.Width(tabsStr)
	rightWidth := lipgloss.Width(right)
	gap := m.width - tabsWidth - rightWidth
	if gap < 0 {
		gap = 0
	}
	mid := barStyle.Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, tabsStr, mid, right)
}

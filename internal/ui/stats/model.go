package stats

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/render"
	"github.com/fragmede/ojterm/internal/ui/messages"
	"github.com/fragmede/ojterm/internal/ui/theme"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Padding(1, 0)
	labelStyle = lipgloss.NewStyle().Foreground(theme.Gray).Width(24)
	valueStyle = lipgloss.NewStyle().Foreground(theme.White).Bold(true)
)

const barWidth = 30

// Model shows a user's submission statistics.
type Model struct {
	userID  string
	handle  string
	stats   *api.UserStats
	client  *api.Client
	loading bool
	err     string
	width   int
	height  int
}

// New creates a stats view for userID, labelled with handle.
func New(userID, handle string, client *api.Client) Model {
	return Model{userID: userID, handle: handle, client: client, loading: true}
}

// Init fetches the statistics.
func (m Model) Init() tea.Cmd {
	client, id := m.client, m.userID
	return func() tea.Msg {
		s, err := client.GetUserStats(context.Background(), id)
		return messages.StatsLoadedMsg{Stats: s, Err: err}
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
	case messages.StatsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
		} else {
			m.stats, m.err = msg.Stats, ""
		}
	case messages.VerdictMsg:
		return m, m.Init()
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.Init()
		case "v":
			id, handle := m.userID, m.handle
			return m, func() tea.Msg {
				return messages.OpenSubmissionsMsg{
					Query: api.SubmissionQuery{User: id},
					Title: "Submissions by " + handle,
				}
			}
		}
	}
	return m, nil
}

// Render lays out the statistics.
func Render(s *api.UserStats) string {
	var sb strings.Builder
	sb.WriteString(labelStyle.Render("Total submissions") + valueStyle.Render(render.Count(s.TotalSubmissions)))
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("Accepted") + valueStyle.Render(render.Count(s.Count(api.VerdictAccepted))))
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("Acceptance rate") + valueStyle.Render(fmt.Sprintf("%d%%", s.AcceptanceRate())))
	sb.WriteString("\n\n")

	for _, v := range api.Verdicts {
		n := s.Count(v)
		if n == 0 {
			continue
		}
		filled := 0
		if s.TotalSubmissions > 0 {
			filled = n * barWidth / s.TotalSubmissions
		}
		if filled == 0 {
			filled = 1
		}
		bar := lipgloss.NewStyle().Foreground(theme.Color(v.Color())).Render(strings.Repeat("█", filled))
		sb.WriteString(labelStyle.Render(v.Text()) + bar + " " + render.Count(n))
		sb.WriteString("\n")
	}
	return sb.String()
}

// View renders the statistics view.
func (m Model) View() string {
	title := titleStyle.Render("Statistics for " + m.handle)
	switch {
	case m.loading && m.stats == nil:
		return title + "\nLoading..."
	case m.err != "":
		return title + "\n" + theme.ErrorStyle.Render("Error: "+m.err)
	case m.stats == nil:
		return title
	}
	body := Render(m.stats)
	if m.stats.TotalSubmissions == 0 {
		body = "No submissions yet.\n"
	}
	return title + "\n" + body + "\n" + theme.HintStyle.Render("v submissions | r reload | esc back")
}

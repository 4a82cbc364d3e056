package submissionview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/render"
	"github.com/fragmede/ojterm/internal/ui/messages"
	"github.com/fragmede/ojterm/internal/ui/theme"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(theme.White).Padding(0, 1)
	rowLabel    = lipgloss.NewStyle().Foreground(theme.Gray).Width(12).PaddingLeft(1)
	codeBox     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// Model shows one submission with its source code.
type Model struct {
	viewport   viewport.Model
	id         string
	submission *api.Submission
	client     *api.Client
	loading    bool
	err        string
	width      int
	height     int
}

// New creates a view for submission id.
func New(id string, client *api.Client) Model {
	vp := viewport.New(0, 0)
	vp.SetContent("Loading...")
	return Model{viewport: vp, id: id, client: client, loading: true}
}

// Init fetches the submission.
func (m Model) Init() tea.Cmd {
	client, id := m.client, m.id
	return func() tea.Msg {
		s, err := client.GetSubmission(context.Background(), id)
		return messages.SubmissionLoadedMsg{Submission: s, Err: err}
	}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = h - 1
	m.refresh()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.SubmissionLoadedMsg:
		if msg.Submission != nil && msg.Submission.ID != m.id {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
		} else {
			m.submission, m.err = msg.Submission, ""
		}
		m.refresh()
		return m, nil

	case messages.VerdictMsg:
		if msg.Submission != nil && msg.Submission.ID == m.id {
			return m, m.Init()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return m, m.Init()
		case "p":
			if m.submission != nil && m.submission.Problem.ID != "" {
				id := m.submission.Problem.ID
				return m, func() tea.Msg { return messages.OpenProblemMsg{ID: id} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) refresh() {
	switch {
	case m.loading:
		m.viewport.SetContent("Loading...")
	case m.err != "":
		m.viewport.SetContent(theme.ErrorStyle.Render("Error: " + m.err))
	case m.submission != nil:
		m.viewport.SetContent(Render(m.submission, m.width))
	}
}

// Render lays out a submission as scrollable text.
func Render(s *api.Submission, width int) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Submission " + s.ID))
	sb.WriteString("\n\n")

	row := func(label, value string) {
		sb.WriteString(rowLabel.Render(label))
		sb.WriteString(value)
		sb.WriteString("\n")
	}
	row("Verdict", theme.Badge(s.Verdict.Text(), s.Verdict.Color()))
	row("Problem", strings.TrimSpace(s.Problem.Code+" "+s.Problem.Title))
	row("User", s.User.Handle)
	row("Language", s.Language.DisplayName())
	if s.Verdict.IsFinal() {
		row("Time", render.Duration(s.TimeUsedMs))
		row("Memory", render.Memory(s.MemoryUsedKb))
		if s.TotalTestCases > 0 {
			row("Tests", fmt.Sprintf("%d / %d passed", s.TestCasesPassed, s.TotalTestCases))
		}
	}
	row("Submitted", render.TimeAgo(s.CreatedAt))

	if s.ErrorMessage != "" {
		sb.WriteString("\n")
		sb.WriteString(theme.ErrorStyle.Render(s.ErrorMessage))
		sb.WriteString("\n")
	}

	if s.Code != "" {
		sb.WriteString("\n")
		box := codeBox
		if width > 4 {
			box = box.Width(width - 4)
		}
		sb.WriteString(box.Render(theme.CodeStyle.Render(strings.TrimRight(s.Code, "\n"))))
		sb.WriteString("\n")
	}
	return sb.String()
}

// View renders the submission view.
func (m Model) View() string {
	return m.viewport.View() + "\n" + theme.HintStyle.Render("p problem | r reload | esc back")
}

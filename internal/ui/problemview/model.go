package problemview

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
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(theme.White).Padding(0, 1)
	metaStyle      = lipgloss.NewStyle().Foreground(theme.Gray).Padding(0, 1)
	sectionStyle   = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	footerStyle    = theme.HintStyle
)

const scrollStep = 3

// Model shows a single problem statement.
type Model struct {
	viewport viewport.Model
	problem  *api.Problem
	id       string
	client   *api.Client
	admin    bool
	loading  bool
	err      string
	width    int
	height   int
}

// New creates a problem view for id.
func New(id string, client *api.Client) Model {
	vp := viewport.New(0, 0)
	vp.SetContent("Loading...")
	return Model{
		viewport: vp,
		id:       id,
		client:   client,
		loading:  true,
	}
}

// Init fetches the problem.
func (m Model) Init() tea.Cmd {
	client, id := m.client, m.id
	return func() tea.Msg {
		p, err := client.GetProblem(context.Background(), id)
		return messages.ProblemLoadedMsg{Problem: p, Err: err}
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

// SetAdmin enables the edit key.
func (m *Model) SetAdmin(admin bool) {
	m.admin = admin
}

// Problem returns the loaded problem, or nil.
func (m Model) Problem() *api.Problem {
	return m.problem
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.ProblemLoadedMsg:
		if msg.Problem != nil && msg.Problem.ID != m.id {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
		} else {
			m.problem = msg.Problem
			m.err = ""
		}
		m.refresh()
		return m, nil

	case messages.ProblemSavedMsg:
		if msg.Err == nil && msg.Problem != nil && msg.Problem.ID == m.id {
			m.problem = msg.Problem
			m.refresh()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			m.viewport.ScrollDown(1)
			return m, nil
		case "k", "up":
			m.viewport.ScrollUp(1)
			return m, nil
		case "ctrl+d", "pgdown":
			m.viewport.ScrollDown(m.viewport.Height / 2)
			return m, nil
		case "ctrl+u", "pgup":
			m.viewport.ScrollUp(m.viewport.Height / 2)
			return m, nil
		case "g", "home":
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			m.viewport.GotoBottom()
			return m, nil
		case "r":
			m.loading = true
			return m, m.Init()
		}
		if m.problem == nil {
			return m, nil
		}
		p := *m.problem
		switch msg.String() {
		case "s":
			return m, func() tea.Msg { return messages.OpenSubmitMsg{Problem: &p} }
		case "v":
			return m, func() tea.Msg {
				return messages.OpenSubmissionsMsg{
					Query: api.SubmissionQuery{Problem: p.Code},
					Title: "Submissions for " + p.Code,
				}
			}
		case "e":
			if m.admin {
				return m, func() tea.Msg { return messages.OpenProblemFormMsg{Problem: &p} }
			}
		}

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.viewport.ScrollUp(scrollStep)
		case tea.MouseButtonWheelDown:
			m.viewport.ScrollDown(scrollStep)
		}
		return m, nil
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
	case m.problem != nil:
		m.viewport.SetContent(Render(m.problem, m.width))
	}
}

// Render lays out a problem as scrollable text.
func Render(p *api.Problem, width int) string {
	textWidth := width - 4
	if textWidth > 100 {
		textWidth = 100
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(p.Code + "  " + p.Title))
	sb.WriteString("\n")

	meta := []string{
		theme.Badge(api.DifficultyText(p.Difficulty), api.DifficultyColor(p.Difficulty)),
		fmt.Sprintf("difficulty %d", p.Difficulty),
		"time " + render.Duration(p.TimeLimitMs),
		fmt.Sprintf("memory %dMB", p.MemoryLimitMb),
	}
	if p.Visibility == api.VisibilityPrivate {
		meta = append(meta, "private")
	}
	sb.WriteString(metaStyle.Render(strings.Join(meta, " | ")))
	sb.WriteString("\n")
	if len(p.Tags) > 0 {
		sb.WriteString(metaStyle.Render("tags: " + strings.Join(p.Tags, ", ")))
		sb.WriteString("\n")
	}
	sb.WriteString(separatorStyle.Render(strings.Repeat("─", max(width, 1))))
	sb.WriteString("\n")

	section := func(title, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		sb.WriteString("\n")
		sb.WriteString(sectionStyle.Render(title))
		sb.WriteString("\n")
		sb.WriteString(render.StatementToText(body, textWidth))
		sb.WriteString("\n")
	}
	section("Statement", p.Statement)
	section("Input", p.InputSpec)
	section("Output", p.OutputSpec)

	for i, s := range p.Samples {
		sb.WriteString("\n")
		sb.WriteString(sectionStyle.Render(fmt.Sprintf("Sample %d", i+1)))
		sb.WriteString("\n")
		sb.WriteString(theme.LabelStyle.Render("input"))
		sb.WriteString("\n")
		sb.WriteString(theme.CodeStyle.Render(render.Block(s.Input)))
		sb.WriteString("\n")
		sb.WriteString(theme.LabelStyle.Render("output"))
		sb.WriteString("\n")
		sb.WriteString(theme.CodeStyle.Render(render.Block(s.Output)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// View renders the problem view.
func (m Model) View() string {
	hint := "s submit | v submissions | r reload | esc back"
	if m.admin {
		hint = "s submit | v submissions | e edit | r reload | esc back"
	}
	return m.viewport.View() + "\n" + footerStyle.Render(hint)
}

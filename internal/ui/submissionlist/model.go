package submissionlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/render"
	"github.com/fragmede/ojterm/internal/ui/messages"
	"github.com/fragmede/ojterm/internal/ui/theme"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	filterStyle = lipgloss.NewStyle().Foreground(theme.Light)
)

var columns = []table.Column{
	{Title: "ID", Width: 8},
	{Title: "User", Width: 14},
	{Title: "Problem", Width: 22},
	{Title: "Language", Width: 10},
	{Title: "Verdict", Width: 21},
	{Title: "Time", Width: 8},
	{Title: "Memory", Width: 9},
	{Title: "Submitted", Width: 16},
}

// Model is a filterable, paginated table of submissions.
type Model struct {
	table   table.Model
	client  *api.Client
	title   string
	query   api.SubmissionQuery
	page    *api.Page[api.Submission]
	userID  string
	loading bool
	err     string
	width   int
	height  int
}

// New creates a submission table for query. title names the listing.
func New(query api.SubmissionQuery, title string, client *api.Client, pageSize int) Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(theme.White).
		Background(theme.Accent).
		Bold(false)
	t.SetStyles(s)

	if query.PageSize == 0 {
		query.PageSize = pageSize
	}
	if query.Current == 0 {
		query.Current = 1
	}
	if title == "" {
		title = "Submissions"
	}
	return Model{table: t, client: client, title: title, query: query, loading: true}
}

// SetUserID enables the "mine" filter for the signed-in user.
func (m *Model) SetUserID(id string) {
	m.userID = id
}

// Query returns the active filters.
func (m Model) Query() api.SubmissionQuery {
	return m.query
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// SetSize updates the table dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetWidth(w)
	m.table.SetHeight(h - 4)
}

// Rows converts submissions to table rows.
func Rows(subs []api.Submission) []table.Row {
	rows := make([]table.Row, 0, len(subs))
	for _, s := range subs {
		problem := s.Problem.Code
		if s.Problem.Title != "" {
			problem += " " + s.Problem.Title
		}
		rows = append(rows, table.Row{
			render.ShortID(s.ID),
			s.User.Handle,
			problem,
			s.Language.DisplayName(),
			s.Verdict.Text(),
			render.Duration(s.TimeUsedMs),
			render.Memory(s.MemoryUsedKb),
			render.TimeAgo(s.CreatedAt),
		})
	}
	return rows
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.SubmissionsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		m.err = ""
		m.page = msg.Page
		m.table.SetRows(Rows(msg.Page.Items))
		m.table.SetCursor(0)
		return m, nil

	case messages.VerdictMsg:
		// A watched submission was judged; refresh if it is on screen.
		if m.page != nil && msg.Submission != nil {
			for _, s := range m.page.Items {
				if s.ID == msg.Submission.ID {
					return m, m.reload()
				}
			}
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if s, ok := m.Selected(); ok {
				return m, func() tea.Msg { return messages.OpenSubmissionMsg{ID: s.ID} }
			}
			return m, nil
		case "]":
			if m.page != nil && m.page.HasNext() && !m.loading {
				m.query.Current++
				return m, m.reload()
			}
			return m, nil
		case "[":
			if m.page != nil && m.page.HasPrev() && !m.loading {
				m.query.Current--
				return m, m.reload()
			}
			return m, nil
		case "f":
			m.query.Verdict = nextVerdict(m.query.Verdict)
			m.query.Current = 1
			return m, m.reload()
		case "l":
			m.query.Language = nextLanguage(m.query.Language)
			m.query.Current = 1
			return m, m.reload()
		case "m":
			if m.userID == "" {
				return m, nil
			}
			if m.query.User == m.userID {
				m.query.User = ""
			} else {
				m.query.User = m.userID
			}
			m.query.Current = 1
			return m, m.reload()
		case "x":
			m.query.Verdict, m.query.Language = "", ""
			m.query.Current = 1
			return m, m.reload()
		case "r":
			return m, m.reload()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// Selected returns the highlighted submission.
func (m Model) Selected() (api.Submission, bool) {
	if m.page == nil || len(m.page.Items) == 0 {
		return api.Submission{}, false
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.page.Items) {
		return api.Submission{}, false
	}
	return m.page.Items[i], true
}

func nextVerdict(v api.Verdict) api.Verdict {
	if v == "" {
		return api.Verdicts[0]
	}
	for i, cand := range api.Verdicts {
		if cand == v {
			if i+1 < len(api.Verdicts) {
				return api.Verdicts[i+1]
			}
			return ""
		}
	}
	return ""
}

func nextLanguage(l api.Language) api.Language {
	if l == "" {
		return api.Languages[0]
	}
	for i, cand := range api.Languages {
		if cand == l {
			if i+1 < len(api.Languages) {
				return api.Languages[i+1]
			}
			return ""
		}
	}
	return ""
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	return m.load()
}

func (m Model) load() tea.Cmd {
	client, q := m.client, m.query
	return func() tea.Msg {
		page, err := client.ListSubmissions(context.Background(), q)
		return messages.SubmissionsLoadedMsg{Page: page, Err: err}
	}
}

func (m Model) filters() string {
	parts := []string{}
	if m.query.Verdict != "" {
		parts = append(parts, "verdict: "+m.query.Verdict.Text())
	}
	if m.query.Language != "" {
		parts = append(parts, "language: "+m.query.Language.DisplayName())
	}
	if m.query.User != "" && m.query.User == m.userID {
		parts = append(parts, "mine")
	} else if m.query.User != "" {
		parts = append(parts, "user: "+m.query.User)
	}
	if m.query.Problem != "" {
		parts = append(parts, "problem: "+m.query.Problem)
	}
	if len(parts) == 0 {
		return "all submissions"
	}
	return strings.Join(parts, " | ")
}

// View renders the table.
func (m Model) View() string {
	var sb strings.Builder
	header := m.title
	if m.page != nil && m.page.TotalPages > 1 {
		header += fmt.Sprintf(" (page %d of %d, %s total)", m.page.Current, m.page.TotalPages, render.Count(m.page.Total))
	}
	if m.loading {
		header += " (loading...)"
	}
	sb.WriteString(headerStyle.Render(header))
	sb.WriteString("\n")
	sb.WriteString(filterStyle.Render(m.filters()))
	sb.WriteString("\n")

	switch {
	case m.err != "":
		sb.WriteString(theme.ErrorStyle.Render("Error: " + m.err))
	case m.page != nil && len(m.page.Items) == 0:
		sb.WriteString("\n  No submissions match.\n")
	default:
		sb.WriteString(m.table.View())
	}
	sb.WriteString("\n")
	hint := "enter open | f verdict | l language | x clear | [ ] page | r reload"
	if m.userID != "" {
		hint += " | m mine"
	}
	sb.WriteString(theme.HintStyle.Render(hint))
	return sb.String()
}

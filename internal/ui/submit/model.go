package submit

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/cache"
	"github.com/fragmede/ojterm/internal/render"
	"github.com/fragmede/ojterm/internal/ui/messages"
	"github.com/fragmede/ojterm/internal/ui/theme"
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	labelStyle     = theme.LabelStyle.Width(10)
	langStyle      = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Padding(0, 1)
	langDimStyle   = lipgloss.NewStyle().Foreground(theme.Dim).Padding(0, 1)
	draftNoteStyle = theme.DimStyle
)

// Model is the solution submission form.
type Model struct {
	problem    api.Problem
	editor     textarea.Model
	language   int
	client     *api.Client
	db         *cache.DB
	err        string
	note       string
	submitting bool
	width      int
	height     int
}

// New creates a submission form for p, restoring any saved draft.
func New(p api.Problem, client *api.Client, db *cache.DB) Model {
	ta := textarea.New()
	ta.Placeholder = "Paste or type your solution..."
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.Focus()
	ta.SetWidth(80)
	ta.SetHeight(15)

	m := Model{
		problem: p,
		editor:  ta,
		client:  client,
		db:      db,
	}

	if db != nil {
		d, err := db.GetDraft(p.ID)
		if err != nil {
			log.Warn().Err(err).Str("problem", p.ID).Msg("loading draft")
		}
		if d != nil {
			m.editor.SetValue(d.Code)
			m.setLanguage(d.Language)
			m.note = "Restored draft from " + render.TimeAgo(d.UpdatedAt)
		}
	}
	return m
}

func (m *Model) setLanguage(l api.Language) {
	for i, cand := range api.Languages {
		if cand == l {
			m.language = i
			return
		}
	}
}

// Language returns the selected language.
func (m Model) Language() api.Language {
	return api.Languages[m.language]
}

// Code returns the editor contents.
func (m Model) Code() string {
	return m.editor.Value()
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	tw := w - 4
	if tw > 120 {
		tw = 120
	}
	m.editor.SetWidth(tw)
	th := h - 10
	if th < 5 {
		th = 5
	}
	m.editor.SetHeight(th)
}

// SaveDraft stores the editor contents so they survive leaving the form.
// An empty editor removes the draft.
func (m Model) SaveDraft() {
	if m.db == nil || m.submitting {
		return
	}
	var err error
	if strings.TrimSpace(m.Code()) == "" {
		err = m.db.DeleteDraft(m.problem.ID)
	} else {
		err = m.db.SaveDraft(cache.Draft{ProblemID: m.problem.ID, Language: m.Language(), Code: m.Code()})
	}
	if err != nil {
		log.Warn().Err(err).Str("problem", m.problem.ID).Msg("saving draft")
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+t":
			m.language = (m.language + 1) % len(api.Languages)
			return m, nil
		case "ctrl+w":
			m.SaveDraft()
			m.note = "Draft saved"
			return m, nil
		case "ctrl+s":
			code := m.Code()
			if strings.TrimSpace(code) == "" {
				m.err = "Code cannot be empty"
				return m, nil
			}
			if m.submitting {
				return m, nil
			}
			m.submitting = true
			m.err = ""
			client := m.client
			sub := api.NewSubmission{Problem: m.problem.ID, Language: m.Language(), Code: code}
			return m, func() tea.Msg {
				s, err := client.SubmitSolution(context.Background(), sub)
				return messages.SubmitResultMsg{Submission: s, Err: err}
			}
		}

	case messages.SubmitResultMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		if m.db != nil {
			if err := m.db.DeleteDraft(m.problem.ID); err != nil {
				log.Warn().Err(err).Msg("deleting submitted draft")
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// View renders the submission form.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Submit: " + m.problem.Code + "  " + m.problem.Title))
	sb.WriteString("\n")
	sb.WriteString(theme.MetaStyle.Render("time " + render.Duration(m.problem.TimeLimitMs) + " | memory " +
		render.Memory(m.problem.MemoryLimitMb*1024)))
	sb.WriteString("\n\n")

	sb.WriteString(labelStyle.Render("Language"))
	for i, l := range api.Languages {
		if i == m.language {
			sb.WriteString(langStyle.Render("[" + l.DisplayName() + "]"))
		} else {
			sb.WriteString(langDimStyle.Render(l.DisplayName()))
		}
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.editor.View())
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(theme.ErrorStyle.Render(m.err))
		sb.WriteString("\n")
	} else if m.note != "" {
		sb.WriteString(draftNoteStyle.Render(m.note))
		sb.WriteString("\n")
	}

	if m.submitting {
		sb.WriteString("Submitting...")
	} else {
		sb.WriteString(theme.HintStyle.Render("Ctrl+T language | Ctrl+W save draft | Ctrl+S submit | Esc back"))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}

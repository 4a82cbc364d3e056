package problemlist

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/ui/messages"
)

// Model is the paginated problem list.
type Model struct {
	list     list.Model
	client   *api.Client
	page     *api.Page[api.Problem]
	current  int
	pageSize int
	admin    bool
	deleting string
	loading  bool
	width    int
	height   int
}

// New creates a problem list showing pageSize problems per page.
func New(client *api.Client, pageSize int) Model {
	l := list.New(nil, Delegate{}, 0, 0)
	l.Title = "Problems"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	return Model{
		list:     l,
		client:   client,
		current:  1,
		pageSize: pageSize,
	}
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.list.SetSize(w, h)
}

// SetAdmin enables the create, edit and delete keys.
func (m *Model) SetAdmin(admin bool) {
	m.admin = admin
	if !admin {
		m.deleting = ""
	}
}

// Refresh reloads the current page.
func (m *Model) Refresh() tea.Cmd {
	m.loading = true
	m.list.Title = m.title() + " (refreshing...)"
	return m.load()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.ProblemsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Error: " + msg.Err.Error()
			return m, nil
		}
		m.page = msg.Page
		m.current = msg.Page.Current
		items := make([]list.Item, 0, len(msg.Page.Items))
		offset := (msg.Page.Current - 1) * msg.Page.PageSize
		for i, p := range msg.Page.Items {
			items = append(items, ProblemItem{Problem: p, Index: offset + i})
		}
		m.list.SetItems(items)
		m.list.Title = m.title()
		return m, nil

	case messages.ProblemDeletedMsg:
		if msg.Err == nil {
			return m, m.Refresh()
		}
		return m, nil

	case messages.ProblemSavedMsg:
		if msg.Err == nil {
			return m, m.Refresh()
		}
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		if m.deleting != "" {
			return m.confirmDelete(msg)
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(ProblemItem); ok {
				return m, func() tea.Msg { return messages.OpenProblemMsg{ID: item.ID} }
			}
		case "s":
			if item, ok := m.list.SelectedItem().(ProblemItem); ok {
				p := item.Problem
				return m, func() tea.Msg { return messages.OpenSubmitMsg{Problem: &p} }
			}
		case "]":
			if m.page != nil && m.page.HasNext() && !m.loading {
				m.current++
				return m, m.Refresh()
			}
			return m, nil
		case "[":
			if m.page != nil && m.page.HasPrev() && !m.loading {
				m.current--
				return m, m.Refresh()
			}
			return m, nil
		case "r", "ctrl+r":
			return m, m.Refresh()
		case "c":
			if m.admin {
				return m, func() tea.Msg { return messages.OpenProblemFormMsg{} }
			}
		case "e":
			if item, ok := m.list.SelectedItem().(ProblemItem); ok && m.admin {
				p := item.Problem
				return m, func() tea.Msg { return messages.OpenProblemFormMsg{Problem: &p} }
			}
		case "D":
			if item, ok := m.list.SelectedItem().(ProblemItem); ok && m.admin {
				m.deleting = item.ID
				m.list.Title = fmt.Sprintf("Delete %s? (y/n)", item.Code)
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) confirmDelete(msg tea.KeyMsg) (Model, tea.Cmd) {
	id := m.deleting
	m.deleting = ""
	m.list.Title = m.title()
	if msg.String() != "y" {
		return m, nil
	}
	client := m.client
	return m, func() tea.Msg {
		err := client.DeleteProblem(context.Background(), id)
		return messages.ProblemDeletedMsg{ID: id, Err: err}
	}
}

// View renders the problem list.
func (m Model) View() string {
	return m.list.View()
}

// Selected returns the highlighted problem, if any.
func (m Model) Selected() (api.Problem, bool) {
	item, ok := m.list.SelectedItem().(ProblemItem)
	return item.Problem, ok
}

// Filtering reports whether the list is capturing keystrokes for its filter.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) title() string {
	if m.page == nil || m.page.TotalPages <= 1 {
		return "Problems"
	}
	return fmt.Sprintf("Problems (page %d of %d)", m.page.Current, m.page.TotalPages)
}

func (m Model) load() tea.Cmd {
	client := m.client
	page, size := m.current, m.pageSize
	return func() tea.Msg {
		p, err := client.ListProblems(context.Background(), page, size)
		return messages.ProblemsLoadedMsg{Page: p, Err: err}
	}
}

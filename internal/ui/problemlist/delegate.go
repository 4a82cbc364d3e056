package problemlist

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/ui/theme"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.White)

	descStyle = lipgloss.NewStyle().
			Foreground(theme.Gray)

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.Accent)

	selectedDescStyle = lipgloss.NewStyle().
				Foreground(theme.Light)

	indexStyle = lipgloss.NewStyle().
			Foreground(theme.Accent).
			Width(4).
			Align(lipgloss.Right)

	difficultyStyle = lipgloss.NewStyle().Width(7)
)

type Delegate struct{}

func (d Delegate) Height() int                             { return 2 }
func (d Delegate) Spacing() int                            { return 1 }
func (d Delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d Delegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(ProblemItem)
	if !ok {
		return
	}

	idx := indexStyle.Render(fmt.Sprintf("%d.", item.Index+1))
	diff := difficultyStyle.Render(theme.Badge(api.DifficultyText(item.Difficulty), api.DifficultyColor(item.Difficulty)))

	var title, desc string
	if index == m.Index() {
		title = selectedTitleStyle.Render(item.Title())
		desc = selectedDescStyle.Render(item.Description())
	} else {
		title = titleStyle.Render(item.Title())
		desc = descStyle.Render(item.Description())
	}

	fmt.Fprintf(w, "%s %s\n     %s %s", idx, title, diff, desc)
}

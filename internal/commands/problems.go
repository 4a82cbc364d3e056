package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/render"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

type ProblemsCmd struct {
	Page     int `help:"Page number" default:"1"`
	PageSize int `help:"Problems per page (defaults to page_size from config)"`
}

func (p *ProblemsCmd) Run(ctx context.Context, globals *Globals) error {
	d, _, err := globals.connect(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	size := p.PageSize
	if size <= 0 {
		size = d.Config.PageSize
	}
	page, err := d.Client.ListProblems(ctx, p.Page, size)
	if err != nil {
		return err
	}

	out := globals.out()
	if len(page.Items) == 0 {
		fmt.Fprintln(out, "No problems found.")
		return nil
	}
	fmt.Fprintln(out, ProblemTable(page.Items))
	fmt.Fprintf(out, "Page %d/%d (%s problems)\n", page.Current, max(page.TotalPages, 1), render.Count(page.Total))
	if page.HasNext() {
		fmt.Fprintf(out, "Use --page=%d to see the next page\n", page.Current+1)
	}
	return nil
}

// ProblemTable renders problems as a bordered table.
func ProblemTable(problems []api.Problem) string {
	t := newTable("ID", "Code", "Title", "Difficulty", "Limits", "Tags")
	for _, p := range problems {
		t.Row(
			p.ID,
			p.Code,
			render.Truncate(p.Title, 40),
			api.DifficultyText(p.Difficulty),
			fmt.Sprintf("%s / %dMB", render.Duration(p.TimeLimitMs), p.MemoryLimitMb),
			strings.Join(p.Tags, ", "),
		)
	}
	return t.Render()
}

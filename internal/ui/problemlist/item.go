package problemlist

import (
	"fmt"
	"strings"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/render"
)

// ProblemItem wraps a problem for the bubbles list.
type ProblemItem struct {
	api.Problem
	Index int
}

func (p ProblemItem) Title() string {
	return p.Code + "  " + p.Problem.Title
}

// Description lists tags, visibility and limits. Difficulty is rendered
// separately by the delegate so it can be colored.
func (p ProblemItem) Description() string {
	parts := make([]string, 0, 4)
	if tags := TagSummary(p.Tags, 3); tags != "" {
		parts = append(parts, tags)
	}
	if p.Visibility == api.VisibilityPrivate {
		parts = append(parts, "private")
	}
	parts = append(parts, render.Duration(p.TimeLimitMs))
	parts = append(parts, fmt.Sprintf("%dMB", p.MemoryLimitMb))
	return strings.Join(parts, " | ")
}

func (p ProblemItem) FilterValue() string {
	return p.Code + " " + p.Problem.Title + " " + strings.Join(p.Tags, " ")
}

// TagSummary shows the first n tags and counts the rest, e.g. "dp, math +2".
func TagSummary(tags []string, n int) string {
	if len(tags) <= n {
		return strings.Join(tags, ", ")
	}
	return fmt.Sprintf("%s +%d", strings.Join(tags[:n], ", "), len(tags)-n)
}

// Package theme holds the palette and shared styles of the terminal UI.
package theme

import "github.com/charmbracelet/lipgloss"

var (
	Accent = lipgloss.Color("#FF6600")
	White  = lipgloss.Color("#FFFFFF")
	Gray   = lipgloss.Color("#828282")
	Dim    = lipgloss.Color("#666666")
	Light  = lipgloss.Color("#CCCCCC")
	Bar    = lipgloss.Color("#333333")

	named = map[string]lipgloss.Color{
		"green":  lipgloss.Color("#32CD32"),
		"orange": lipgloss.Color("#FFA500"),
		"red":    lipgloss.Color("#FF4040"),
		"blue":   lipgloss.Color("#00BFFF"),
	}
)

// Color maps a display color name to a terminal color. Unknown names are gray.
func Color(name string) lipgloss.Color {
	if c, ok := named[name]; ok {
		return c
	}
	return Gray
}

// Badge renders text in the named color.
func Badge(text, color string) string {
	return lipgloss.NewStyle().Foreground(Color(color)).Bold(true).Render(text)
}

var (
	TitleStyle = lipgloss.NewStyle().Foreground(Accent).Bold(true).Padding(1, 0)

	HeadingStyle = lipgloss.NewStyle().Foreground(White).Bold(true)

	LabelStyle = lipgloss.NewStyle().Foreground(White).Bold(true)

	MetaStyle = lipgloss.NewStyle().Foreground(Gray)

	DimStyle = lipgloss.NewStyle().Foreground(Dim)

	HintStyle = lipgloss.NewStyle().Foreground(Gray)

	KeyStyle = lipgloss.NewStyle().Foreground(Accent)

	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))

	CodeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0D0A0"))

	SelectedStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(Accent).
			PaddingLeft(1)
)

package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit          key.Binding
	Back          key.Binding
	Help          key.Binding
	Enter         key.Binding
	Refresh       key.Binding
	Up            key.Binding
	Down          key.Binding
	PrevPage      key.Binding
	NextPage      key.Binding
	Problems      key.Binding
	Submissions   key.Binding
	Login         key.Binding
	Signup        key.Binding
	Logout        key.Binding
	Profile       key.Binding
	Stats         key.Binding
	Notify        key.Binding
	Submit        key.Binding
	Filter        key.Binding
	CreateProblem key.Binding
	EditProblem   key.Binding
	DeleteProblem key.Binding
}

var Keys = KeyMap{
	Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Enter:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Refresh:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Up:            key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "up")),
	Down:          key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/down", "down")),
	PrevPage:      key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous page")),
	NextPage:      key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next page")),
	Problems:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "problems")),
	Submissions:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "submissions")),
	Login:         key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "sign in")),
	Signup:        key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sign up")),
	Logout:        key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "sign out")),
	Profile:       key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "profile")),
	Stats:         key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "my stats")),
	Notify:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "verdicts")),
	Submit:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "submit solution")),
	Filter:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	CreateProblem: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "new problem (admin)")),
	EditProblem:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit problem (admin)")),
	DeleteProblem: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete problem (admin)")),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Problems, k.Submissions, k.Notify, k.Back, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.PrevPage, k.NextPage, k.Filter, k.Refresh},
		{k.Problems, k.Submissions, k.Submit, k.Notify, k.Stats, k.Profile},
		{k.Login, k.Signup, k.Logout, k.CreateProblem, k.EditProblem, k.DeleteProblem},
		{k.Help, k.Back, k.Quit},
	}
}

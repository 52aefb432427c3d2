package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	Top           key.Binding
	Bottom        key.Binding
	Checkout      key.Binding
	Delete        key.Binding
	Rename        key.Binding
	PopStash      key.Binding
	Refresh       key.Binding
	Fetch         key.Binding
	ToggleRemotes key.Binding
	Search        key.Binding
	Mine          key.Binding
	Age           key.Binding
	Prefix        key.Binding
	HideMerged    key.Binding
	ClearFilters  key.Binding
	Copy          key.Binding
	Details       key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Checkout, k.Delete, k.Rename, k.Search, k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Checkout, k.Delete, k.Rename, k.PopStash},
		{k.Search, k.Mine, k.Age, k.Prefix, k.HideMerged, k.ClearFilters},
		{k.Refresh, k.Fetch, k.ToggleRemotes, k.Copy, k.Details},
		{k.Help, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "bottom"),
		),
		Checkout: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "checkout"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Rename: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "rename"),
		),
		PopStash: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pop stash"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Fetch: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fetch"),
		),
		ToggleRemotes: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "remotes"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Mine: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mine"),
		),
		Age: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "recent"),
		),
		Prefix: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "prefix"),
		),
		HideMerged: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "hide merged"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear filters"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy name"),
		),
		Details: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "details"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the dashboard responds to.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	FeedUp     key.Binding
	FeedDown   key.Binding
	CycleZone  key.Binding
	ZoneLive   key.Binding
	ZoneWait   key.Binding
	ZoneDone   key.Binding
	Detail     key.Binding
	Report     key.Binding
	Violations key.Binding
	Stats      key.Binding
	Log        key.Binding
	Close      key.Binding
	Quit       key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("j/k", "move"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
		),
		FeedUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("J/K", "feed"),
		),
		FeedDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
		),
		CycleZone: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "zone"),
		),
		ZoneLive: key.NewBinding(
			key.WithKeys("1"),
		),
		ZoneWait: key.NewBinding(
			key.WithKeys("2"),
		),
		ZoneDone: key.NewBinding(
			key.WithKeys("3"),
		),
		Detail: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "detail"),
		),
		Report: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "report"),
		),
		Violations: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "history"),
		),
		Stats: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stats"),
		),
		Log: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "log"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

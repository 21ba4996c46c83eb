package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Enter      key.Binding
	Back       key.Binding
	Expand     key.Binding
	Tab        key.Binding
	Refresh    key.Binding
	ToggleRead key.Binding
	UnreadOnly key.Binding
	Help       key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	Enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Expand:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "expand/collapse")),
	Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	ToggleRead: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "read/unread")),
	UnreadOnly: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unread only")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

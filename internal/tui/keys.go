package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the reader.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Follow   key.Binding
	Engage   key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
	Raw      key.Binding
	Refresh  key.Binding
	Retry    key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default keybinding configuration.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev link"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next link"),
		),
		Follow: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "follow"),
		),
		Engage: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "engage"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup", "b"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDn: key.NewBinding(
			key.WithKeys("pgdown", " "),
			key.WithHelp("pgdn", "scroll down"),
		),
		Raw: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "markup"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

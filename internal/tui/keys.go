package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Outdent  key.Binding
	Indent   key.Binding
	Grab     key.Binding
	Drop     key.Binding
	Cancel   key.Binding
	Collapse key.Binding
	Reload   key.Binding
	Quit     key.Binding
}

var defaultKeyMap = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Outdent: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "outdent"),
	),
	Indent: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "indent"),
	),
	Grab: key.NewBinding(
		key.WithKeys("enter", "m"),
		key.WithHelp("enter", "move"),
	),
	Drop: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "drop"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Collapse: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "collapse"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// browseKeys is shown while no item is being moved
type browseKeys keyMap

func (k browseKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Grab, k.Collapse, k.Reload, k.Quit}
}

func (k browseKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// dragKeys is shown while an item is being moved
type dragKeys keyMap

func (k dragKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Outdent, k.Indent, k.Drop, k.Cancel}
}

func (k dragKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

package dashboard

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines dashboard keybindings
type KeyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Up      key.Binding
	Down    key.Binding
	Run     key.Binding
	Refresh key.Binding
	Pause   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

var dashKeys = KeyMap{
	Next:    key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab/→", "next panel")),
	Prev:    key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("shift+tab/←", "previous panel")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Run:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run task")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Pause:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause/resume auto-refresh")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Run, k.Refresh, k.Pause, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Up, k.Down},
		{k.Run, k.Refresh, k.Pause},
		{k.Help, k.Quit},
	}
}

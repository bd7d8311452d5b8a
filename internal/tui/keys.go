package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left       key.Binding
	Right      key.Binding
	Up         key.Binding
	Down       key.Binding
	Select     key.Binding
	Cancel     key.Binding
	Draw       key.Binding
	Foundation key.Binding
	Undo       key.Binding
	Restart    key.Binding
	DrawMode   key.Binding
	GiveUp     key.Binding
	Suspend    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:     key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "pick/drop")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Draw:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "draw")),
		Foundation: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "to foundation")),
		Undo:       key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Restart:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "new deal")),
		DrawMode:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "draw 1/3")),
		GiveUp:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "give up")),
		Suspend:    key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "suspend")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Draw, k.Foundation, k.Undo, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.Select, k.Cancel, k.Draw, k.Foundation},
		{k.Undo, k.Restart, k.DrawMode, k.GiveUp},
		{k.Suspend, k.Help, k.Quit},
	}
}

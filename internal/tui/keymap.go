package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keyboard shortcuts outside of the keypad keys.
type KeyMap struct {
	// Fields
	NextField key.Binding
	PrevField key.Binding
	Evaluate  key.Binding
	Clear     key.Binding
	Backspace key.Binding
	Thousands key.Binding

	// Currencies
	PickA key.Binding
	PickB key.Binding
	Swap  key.Binding

	// Lists
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Delete key.Binding
	Wipe   key.Binding

	// Application
	History key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("Tab/↓", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("S-Tab/↑", "previous field"),
		),
		Evaluate: key.NewBinding(
			key.WithKeys("enter", "="),
			key.WithHelp("Enter/=", "evaluate and save"),
		),
		Clear: key.NewBinding(
			key.WithKeys("esc", "c"),
			key.WithHelp("Esc/c", "clear field"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace", "ctrl+h"),
			key.WithHelp("⌫", "delete"),
		),
		Thousands: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "000"),
		),

		PickA: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "currency A"),
		),
		PickB: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "currency B"),
		),
		Swap: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "swap A and B"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "h"),
			key.WithHelp("Esc", "back"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete entry"),
		),
		Wipe: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "clear history"),
		),

		History: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "history"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh rates"),
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

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.Evaluate, k.History, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextField, k.PrevField, k.Evaluate, k.Clear, k.Backspace, k.Thousands},
		{k.PickA, k.PickB, k.Swap},
		{k.History, k.Delete, k.Wipe, k.Back},
		{k.Refresh, k.Help, k.Quit},
	}
}

package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the browser's own bindings. Navigation, filtering and quit
// are handled by the list component.
type keyMap struct {
	Help         key.Binding
	CycleTheme   key.Binding
	CycleQuality key.Binding
	Favorites    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		CycleQuality: key.NewBinding(
			key.WithKeys("Q"),
			key.WithHelp("Q", "Cycle stream quality"),
		),
		Favorites: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "Favorites only"),
		),
	}
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.Help, k.CycleTheme, k.CycleQuality, k.Favorites}
}

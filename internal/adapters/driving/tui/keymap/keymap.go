// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the review screen.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Help shows the help view.
	Help key.Binding

	// Up navigates up in the pair list.
	Up key.Binding

	// Down navigates down in the pair list.
	Down key.Binding

	// KeepBoth records that both addresses are legitimate.
	KeepBoth key.Binding

	// FlagFirst marks the newer address as suspect.
	FlagFirst key.Binding

	// FlagSecond marks the existing address as suspect.
	FlagSecond key.Binding

	// Reload refetches the pair list from the catalog.
	Reload key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		KeepBoth: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "keep both"),
		),
		FlagFirst: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "flag first"),
		),
		FlagSecond: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "flag second"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
	}
}

// ShortHelp returns a short list of keybindings for the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// ReviewHelp returns keybindings for the pair list.
func (k *KeyMap) ReviewHelp() []key.Binding {
	return []key.Binding{k.KeepBoth, k.FlagFirst, k.FlagSecond, k.Quit}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.KeepBoth, k.FlagFirst, k.FlagSecond},
		{k.Reload, k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings of the dashboard.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	NextOption key.Binding
	PrevOption key.Binding
	Start      key.Binding
	Cancel     key.Binding
	Clear      key.Binding
	Save       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous group"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next group"),
		),
		NextOption: key.NewBinding(
			key.WithKeys("right", "l", "tab"),
			key.WithHelp("right/l", "next option"),
		),
		PrevOption: key.NewBinding(
			key.WithKeys("left", "h", "shift+tab"),
			key.WithHelp("left/h", "previous option"),
		),
		Start: key.NewBinding(
			key.WithKeys("enter", "r"),
			key.WithHelp("enter/r", "run sweep"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "c"),
			key.WithHelp("esc/c", "cancel sweep"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear chart"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save to history"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the one-line help.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Cancel, k.NextOption, k.Clear, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the expanded help.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextOption, k.PrevOption},
		{k.Start, k.Cancel, k.Clear, k.Save},
		{k.Help, k.Quit},
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/charmbracelet/bubbles/key"

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings of the chat screen.
type KeyMap struct {
	Submit        key.Binding
	NewChat       key.Binding
	SessionUp     key.Binding
	SessionDown   key.Binding
	OpenSession   key.Binding
	Refresh       key.Binding
	ToggleSidebar key.Binding
	ScrollUp      key.Binding
	ScrollDown    key.Binding
	Cancel        key.Binding
	Logout        key.Binding
	Help          key.Binding
	Quit          key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		SessionUp: key.NewBinding(
			key.WithKeys("ctrl+up", "ctrl+p"),
			key.WithHelp("C-up", "previous session"),
		),
		SessionDown: key.NewBinding(
			key.WithKeys("ctrl+down"),
			key.WithHelp("C-down", "next session"),
		),
		OpenSession: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "open session"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "refresh sessions"),
		),
		ToggleSidebar: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("C-b", "toggle sessions"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "stop reply"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "log out"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NewChat, k.OpenSession, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Cancel, k.NewChat},
		{k.SessionUp, k.SessionDown, k.OpenSession, k.Refresh},
		{k.ScrollUp, k.ScrollDown, k.ToggleSidebar},
		{k.Logout, k.Help, k.Quit},
	}
}

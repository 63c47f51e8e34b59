// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keyboard shortcuts for the chat view.
type KeyMap struct {
	Send        key.Binding
	Quit        key.Binding
	Cancel      key.Binding
	NewChat     key.Binding
	RateGood    key.Binding
	RateBad     key.Binding
	OpenReport  key.Binding
	CloseReport key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
}

// DefaultKeyMap returns the default shortcuts.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel generation"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new chat"),
		),
		RateGood: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "rate answer good"),
		),
		RateBad: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("ctrl+b", "rate answer bad"),
		),
		OpenReport: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "open report"),
		),
		CloseReport: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc", "close report"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
	}
}

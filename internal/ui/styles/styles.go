// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the tazak TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styled components for the application.
type Theme struct {
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style

	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
	Timestamp lipgloss.Style

	FeedbackGood lipgloss.Style
	FeedbackBad  lipgloss.Style

	InputPrompt lipgloss.Style
	StatusBar   lipgloss.Style
	ShortcutKey lipgloss.Style
	Spinner     lipgloss.Style
	Error       lipgloss.Style

	ReportBox   lipgloss.Style
	ReportTitle lipgloss.Style
	ReportField lipgloss.Style
}

// NewTheme builds the default theme.
func NewTheme() *Theme {
	return &Theme{
		Header: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("63")),
		HeaderTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			Padding(0, 1),

		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		BotLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("213")),
		Timestamp: lipgloss.NewStyle().
			Faint(true),

		FeedbackGood: lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")),
		FeedbackBad: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),

		InputPrompt: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")),
		StatusBar: lipgloss.NewStyle().
			Faint(true),
		ShortcutKey: lipgloss.NewStyle().
			Bold(true),
		Spinner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("213")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		ReportBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2),
		ReportTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")),
		ReportField: lipgloss.NewStyle().
			Faint(true),
	}
}

// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/benamram/tazak-tui/internal/model"
	"github.com/benamram/tazak-tui/internal/report"
	"github.com/benamram/tazak-tui/internal/util"
)

const (
	headerHeight = 2
	footerHeight = 4
)

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")
	if m.reportOpen {
		sb.WriteString(m.renderReport())
	} else {
		sb.WriteString(m.viewport.View())
	}
	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())
	return sb.String()
}

// renderHeader draws the title line with the chat id.
func (m Model) renderHeader() string {
	title := "tazak"
	if chat := m.currentChat(); chat != nil {
		title = fmt.Sprintf("tazak / chat %s", util.TruncateRunes(chat.ID, 8))
	}
	header := m.theme.HeaderTitle.Render(title)
	return m.theme.Header.Width(m.width).Render(header)
}

// renderFooter draws the input line and the status bar.
func (m Model) renderFooter() string {
	var sb strings.Builder
	sb.WriteString(m.input.View())
	sb.WriteString("\n")

	switch {
	case m.lastError != "":
		sb.WriteString(m.theme.Error.Render("error: " + m.lastError))
	case m.state == StateStreaming:
		sb.WriteString(m.spin.View())
		sb.WriteString(m.theme.StatusBar.Render(" generating... (esc to cancel)"))
	default:
		sb.WriteString(m.theme.StatusBar.Render(m.shortcutLine()))
	}
	return sb.String()
}

// shortcutLine lists the active shortcuts.
func (m Model) shortcutLine() string {
	parts := []string{
		m.theme.ShortcutKey.Render("enter") + " send",
		m.theme.ShortcutKey.Render("ctrl+n") + " new chat",
		m.theme.ShortcutKey.Render("ctrl+g/b") + " rate",
		m.theme.ShortcutKey.Render("ctrl+r") + " report",
		m.theme.ShortcutKey.Render("ctrl+c") + " quit",
	}
	return strings.Join(parts, "  ")
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport re-renders the transcript into the viewport and follows
// the tail.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// renderTranscript renders the current chat plus the in-flight answer.
func (m *Model) renderTranscript() string {
	chat := m.currentChat()
	if chat == nil {
		return "No chat loaded."
	}

	var sb strings.Builder
	for i := range chat.Messages {
		sb.WriteString(m.renderMessage(&chat.Messages[i]))
		sb.WriteString("\n")
	}

	// Pending user query and streamed partial, not yet committed.
	if m.pending != nil && m.pending.chatID == chat.ID {
		sb.WriteString(m.theme.UserLabel.Render(model.SenderUser.DisplayName()))
		sb.WriteString("\n")
		sb.WriteString(m.pending.query)
		sb.WriteString("\n\n")
		sb.WriteString(m.theme.BotLabel.Render(model.SenderBot.DisplayName()))
		sb.WriteString("\n")
		sb.WriteString(m.renderContent(m.streaming))
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderMessage renders one committed message with its label, timestamp and
// any rating.
func (m *Model) renderMessage(msg *model.Message) string {
	var sb strings.Builder

	label := m.theme.UserLabel
	if msg.Sender == model.SenderBot {
		label = m.theme.BotLabel
	}
	sb.WriteString(label.Render(msg.Sender.DisplayName()))
	sb.WriteString(" ")
	sb.WriteString(m.theme.Timestamp.Render(msg.Date.Format("15:04")))
	if msg.Feedback != nil {
		switch *msg.Feedback {
		case model.FeedbackGood:
			sb.WriteString(" " + m.theme.FeedbackGood.Render("▲ rated good"))
		case model.FeedbackBad:
			sb.WriteString(" " + m.theme.FeedbackBad.Render("▼ rated bad"))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(m.renderContent(msg.Content))
	sb.WriteString("\n")
	return sb.String()
}

// renderContent projects spans to markdown and renders through glamour when
// configured, with a plain fallback.
func (m *Model) renderContent(content model.Content) string {
	md := content.Markdown()
	if md == "" {
		return ""
	}
	if m.renderer != nil {
		out, err := m.renderer.Render(md)
		if err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return md
}

// =============================================================================
// REPORT POPUP
// =============================================================================

// renderReport draws the report popup in place of the transcript.
func (m Model) renderReport() string {
	rep, status := m.reports.Get(m.ctx, m.reportKey)

	var body string
	switch status {
	case report.StatusPending:
		body = m.spin.View() + " loading report..."
	case report.StatusFailed:
		body = m.theme.Error.Render("report could not be loaded, retrying")
	case report.StatusMissing:
		body = m.theme.Error.Render("report reference is incomplete")
	case report.StatusReady:
		body = m.renderReportBody(rep)
	}

	width := m.width - 6
	if width < 20 {
		width = 20
	}
	box := m.theme.ReportBox.Width(width).Render(body)
	return lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, box)
}

// renderReportBody lays out a fetched report.
func (m Model) renderReportBody(rep model.Report) string {
	var sb strings.Builder
	sb.WriteString(m.theme.ReportTitle.Render(rep.Title))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.ReportField.Render("Speakers: "))
	sb.WriteString(rep.SpeakerA)
	if rep.SpeakerB != "" {
		sb.WriteString(", ")
		sb.WriteString(rep.SpeakerB)
	}
	sb.WriteString("\n")
	sb.WriteString(m.theme.ReportField.Render("Updated: "))
	sb.WriteString(rep.UpdatedDate)
	sb.WriteString("\n\n")
	sb.WriteString(m.renderReportText(rep))
	if rep.Feedback != nil {
		sb.WriteString("\n\n")
		switch *rep.Feedback {
		case model.FeedbackGood:
			sb.WriteString(m.theme.FeedbackGood.Render("▲ rated good"))
		case model.FeedbackBad:
			sb.WriteString(m.theme.FeedbackBad.Render("▼ rated bad"))
		}
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.StatusBar.Render("ctrl+g/b rate  esc close"))
	return sb.String()
}

// renderReportText prefers the summary, falling back to the raw transcript.
func (m Model) renderReportText(rep model.Report) string {
	text := rep.Tazak
	if text == "" {
		text = rep.RawText
	}
	if m.renderer != nil {
		out, err := m.renderer.Render(text)
		if err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return text
}

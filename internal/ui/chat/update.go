// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view.
package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/benamram/tazak-tui/internal/model"
	"github.com/benamram/tazak-tui/internal/report"
	"github.com/benamram/tazak-tui/internal/session"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case chatsLoadedMsg:
		m.chats = msg.chats
		if len(m.chats) > 0 {
			m.chatID = m.chats[len(m.chats)-1].ID
			m.refreshViewport()
			return m, nil
		}
		return m, createChatCmd(m.store)

	case chatCreatedMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
			return m, nil
		}
		m.chats = m.store.Cached()
		m.chatID = msg.chat.ID
		m.refreshViewport()
		return m, nil

	case optionsMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
			return m, nil
		}
		m.options = msg.options
		return m, nil

	case storeUpdatedMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
		}
		if msg.chats != nil {
			m.chats = msg.chats
		}
		m.refreshViewport()
		return m, nil

	case streamStartedMsg:
		return m.handleStreamStarted(msg)

	case contentFrameMsg:
		if msg.sess == m.sessions.Active() {
			m.streaming = msg.content
			m.refreshViewport()
		}
		return m, waitEventCmd(m.events)

	case streamDoneMsg:
		return m.handleStreamDone(msg)

	case reportUpdatedMsg:
		if m.reportOpen && msg.key == m.reportKey {
			m.refreshViewport()
		}
		return m, waitEventCmd(m.events)

	case ExternalChatsMsg:
		m.chats = msg.Chats
		if m.chats.Find(m.chatID) == nil && len(m.chats) > 0 {
			m.chatID = m.chats[len(m.chats)-1].ID
		}
		m.refreshViewport()
		return m, nil

	case errMsg:
		m.state = StateReady
		m.pending = nil
		m.streaming = nil
		m.lastError = msg.err.Error()
		m.refreshViewport()
		return m, nil
	}

	return m.updateComponents(msg)
}

// handleResize lays out the viewport and builds the markdown renderer for
// the new width.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	contentHeight := msg.Height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(msg.Width, contentHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = contentHeight
	}
	m.input.Width = msg.Width - 4

	if m.cfg.UI.Markdown {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.cfg.UI.Theme),
			glamour.WithWordWrap(msg.Width-4),
		)
		if err == nil {
			m.renderer = renderer
		}
	}

	m.refreshViewport()
	return m, nil
}

// handleKey dispatches a keypress.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The report popup captures its own keys while open.
	if m.reportOpen {
		switch {
		case key.Matches(msg, m.keyMap.CloseReport):
			m.reportOpen = false
			m.refreshViewport()
			return m, nil
		case key.Matches(msg, m.keyMap.RateGood):
			return m.handleRateReport(model.FeedbackGood)
		case key.Matches(msg, m.keyMap.RateBad):
			return m.handleRateReport(model.FeedbackBad)
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.sessions.Abort()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Send):
		return m.handleSend()

	case key.Matches(msg, m.keyMap.Cancel):
		if m.state == StateStreaming {
			// The session notices the abort and streamDoneMsg follows.
			m.sessions.Abort()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.NewChat):
		return m, createChatCmd(m.store)

	case key.Matches(msg, m.keyMap.RateGood):
		return m.handleRate(model.FeedbackGood)

	case key.Matches(msg, m.keyMap.RateBad):
		return m.handleRate(model.FeedbackBad)

	case key.Matches(msg, m.keyMap.OpenReport):
		return m.handleOpenReport()

	case key.Matches(msg, m.keyMap.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	return m.updateComponents(msg)
}

// handleSend commits the typed query: append the user message, open the
// stream. Sending while a generation runs supersedes it.
func (m Model) handleSend() (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(m.input.Value())
	if query == "" || m.chatID == "" {
		return m, nil
	}
	m.input.Reset()
	m.lastError = ""

	pending := pendingQuery{
		chatID:  m.chatID,
		query:   query,
		filters: m.defaultFilters(),
	}
	m.state = StateStreaming
	m.streaming = nil
	m.pending = &pending
	m.refreshViewport()

	return m, tea.Batch(
		appendMessageCmd(m.store, m.chatID, userMessage(pending)),
		openStreamCmd(m.ctx, m.client, m.sessions, m.events, pending),
	)
}

// handleStreamStarted records the pending query id and begins consuming.
func (m Model) handleStreamStarted(msg streamStartedMsg) (tea.Model, tea.Cmd) {
	if msg.sess != m.sessions.Active() {
		// Superseded before the first record; just drain the body.
		return m, runSessionCmd(m.ctx, msg)
	}
	m.pending = &msg.pending
	return m, runSessionCmd(m.ctx, msg)
}

// handleStreamDone commits a completed generation, or clears the streaming
// state on abort or failure.
func (m Model) handleStreamDone(msg streamDoneMsg) (tea.Model, tea.Cmd) {
	if msg.sess != m.sessions.Active() {
		return m, nil
	}
	m.state = StateReady
	m.streaming = nil
	m.pending = nil

	if msg.err != nil {
		if !errors.Is(msg.err, session.ErrSuperseded) {
			m.lastError = msg.err.Error()
		}
		m.refreshViewport()
		return m, nil
	}

	return m, appendMessageCmd(m.store, msg.pending.chatID, botMessage(msg.result, msg.pending))
}

// handleRate rates the newest answered bot message.
func (m Model) handleRate(fb model.Feedback) (tea.Model, tea.Cmd) {
	msg := m.lastBotMessage()
	if msg == nil {
		return m, nil
	}
	return m, rateMessageCmd(m.ctx, m.store, m.client, m.chatID, *msg, fb)
}

// handleRateReport rates the open report. Only a fetched report can be
// rated: the title goes into the submission.
func (m Model) handleRateReport(fb model.Feedback) (tea.Model, tea.Cmd) {
	rep, status := m.reports.Get(m.ctx, m.reportKey)
	if status != report.StatusReady {
		return m, nil
	}
	m.reports.SubmitFeedback(m.ctx, m.reportKey, rep.Title, fb)
	m.refreshViewport()
	return m, nil
}

// handleOpenReport opens the popup for the first report referenced by the
// newest bot message.
func (m Model) handleOpenReport() (tea.Model, tea.Cmd) {
	msg := m.lastBotMessage()
	if msg == nil {
		return m, nil
	}
	ids := msg.Content.ReportIDs()
	if len(ids) == 0 {
		return m, nil
	}

	m.reportKey = report.Key{ChatID: m.chatID, ReportID: ids[0], QueryID: msg.QueryID}
	m.reportOpen = true
	m.refreshViewport()
	return m, nil
}

// updateComponents forwards a message to the focused widgets.
func (m Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

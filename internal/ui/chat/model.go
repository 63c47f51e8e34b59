// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view.
package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/benamram/tazak-tui/internal/api"
	"github.com/benamram/tazak-tui/internal/config"
	"github.com/benamram/tazak-tui/internal/model"
	"github.com/benamram/tazak-tui/internal/report"
	"github.com/benamram/tazak-tui/internal/session"
	"github.com/benamram/tazak-tui/internal/store"
	"github.com/benamram/tazak-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving a streamed answer
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state State
	theme *styles.Theme

	width  int
	height int
	ready  bool

	// Engine collaborators.
	cfg      config.Config
	client   *api.Client
	store    *store.Store
	reports  *report.Cache
	sessions *session.Manager

	// The in-memory chat projection and the chat on screen.
	chats  model.Chats
	chatID string

	// Streaming state for the in-flight generation. events carries observer
	// frames and report-cache settles out of their goroutines.
	events    chan tea.Msg
	streaming model.Content
	pending   *pendingQuery

	// Filter options fetched from the service.
	options []model.Option

	// Report popup.
	reportOpen bool
	reportKey  report.Key

	// UI components.
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer
	keyMap   KeyMap

	lastError string

	// ctx bounds background work (report fetches, feedback posts).
	ctx context.Context
}

// pendingQuery carries the query context from stream open to commit.
type pendingQuery struct {
	chatID  string
	query   string
	queryID string
	filters model.Filters
}

// New creates the chat view.
func New(ctx context.Context, cfg config.Config, client *api.Client, st *store.Store, reports *report.Cache) Model {
	input := textinput.New()
	input.Placeholder = "Ask about the selected channels..."
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	theme := styles.NewTheme()
	spin.Style = theme.Spinner

	events := make(chan tea.Msg, 64)
	reports.SetOnUpdate(func(key report.Key) {
		select {
		case events <- reportUpdatedMsg{key: key}:
		default:
		}
	})

	return Model{
		state:    StateReady,
		theme:    theme,
		cfg:      cfg,
		client:   client,
		store:    st,
		reports:  reports,
		sessions: session.NewManager(),
		events:   events,
		input:    input,
		spin:     spin,
		keyMap:   DefaultKeyMap(),
		ctx:      ctx,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spin.Tick,
		loadChatsCmd(m.store),
		fetchOptionsCmd(m.ctx, m.client),
		waitEventCmd(m.events),
	)
}

// currentChat returns the chat on screen, or nil before the store loaded.
func (m *Model) currentChat() *model.Chat {
	return m.chats.Find(m.chatID)
}

// lastBotMessage returns the newest bot message of the current chat that
// carries a query id (the greeting does not take feedback).
func (m *Model) lastBotMessage() *model.Message {
	chat := m.currentChat()
	if chat == nil {
		return nil
	}
	for i := len(chat.Messages) - 1; i >= 0; i-- {
		msg := &chat.Messages[i]
		if msg.Sender == model.SenderBot && msg.QueryID != "" {
			return msg
		}
	}
	return nil
}

// defaultFilters builds the filter snapshot for a new query. The selection
// widgets live outside this shell; every configured channel is searched over
// the last month.
func (m *Model) defaultFilters() model.Filters {
	conversations := make([]string, 0, len(m.options))
	for _, opt := range m.options {
		conversations = append(conversations, opt.Value)
	}
	return model.Filters{
		Conversations: conversations,
		DateRange:     time.Now().AddDate(0, -1, 0).Format(time.RFC3339),
		Keywords:      []string{},
	}
}
